package services

// Backend endpoints, relative to the API base URL.
const (
	PathArticleCreate = "/api/v1/articles/create"
	PathArticleUpdate = "/api/v1/articles/update"
	PathArticleDelete = "/api/v1/articles/delete"
	PathArticleDetail = "/api/v1/articles/detail"
	PathArticleList   = "/api/v1/articles/list"

	PathAuthRegister = "/api/v1/auth/register"
	PathAuthLogin    = "/api/v1/auth/login"
)
