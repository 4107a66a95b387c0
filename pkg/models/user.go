package models

import "time"

type User struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// IsAdmin reports whether the backend granted the admin role.
func (u User) IsAdmin() bool { return u.Role == "admin" }

// RoleLabel is the role shown next to the user name. Accounts without a
// role are regular users.
func (u User) RoleLabel() string {
	if u.Role == "" {
		return "user"
	}
	return u.Role
}

// Initial is the avatar letter shown in the navigation bar.
func (u User) Initial() string {
	for _, r := range u.Username {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		return string(r)
	}
	return "?"
}

type RegisterRequest struct {
	Username string `json:"username" form:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// AuthState is the snapshot exposed by the session store.
type AuthState struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	User            *User  `json:"user"`
	Token           string `json:"-"`
	Loading         bool   `json:"loading"`
	Error           string `json:"error,omitempty"`
}

// ErrorResponse is what the register form shows when the backend refuses.
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// Envelope wraps every backend payload.
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}
