package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"blog-admin/pkg/models"
	"blog-admin/pkg/services"
)

type backendCall struct {
	Path          string
	Authorization string
	Body          map[string]any
}

// fakeBackend answers the article and auth endpoints with canned envelopes.
// Tests replace entries in replies to change a single endpoint.
type fakeBackend struct {
	mu      sync.Mutex
	calls   []backendCall
	replies map[string]func(w http.ResponseWriter)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{replies: map[string]func(w http.ResponseWriter){
		services.PathAuthLogin: reply(http.StatusOK, 200, "ok", map[string]any{
			"token": "tok",
			"user":  map[string]any{"id": 3, "username": "amy", "email": "amy@example.com", "role": "admin"},
		}),
		services.PathAuthRegister: reply(http.StatusCreated, 201, "registered", map[string]any{"id": 4, "username": "bob"}),
		services.PathArticleList: reply(http.StatusOK, 200, "ok", map[string]any{
			"total":    25,
			"articles": []any{sampleArticle(7, "go"), sampleArticle(8, "go", "web")},
		}),
		services.PathArticleDetail: reply(http.StatusOK, 200, "ok", sampleArticle(7, "go")),
		services.PathArticleCreate: reply(http.StatusCreated, 201, "created", sampleArticle(9)),
		services.PathArticleUpdate: reply(http.StatusOK, 200, "updated", sampleArticle(7)),
		services.PathArticleDelete: reply(http.StatusOK, 200, "deleted", nil),
	}}
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	b.mu.Lock()
	b.calls = append(b.calls, backendCall{Path: r.URL.Path, Authorization: r.Header.Get("Authorization"), Body: body})
	fn := b.replies[r.URL.Path]
	b.mu.Unlock()

	if fn == nil {
		http.NotFound(w, r)
		return
	}
	fn(w)
}

func (b *fakeBackend) set(path string, fn func(w http.ResponseWriter)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[path] = fn
}

func (b *fakeBackend) callsTo(path string) []backendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []backendCall
	for _, c := range b.calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func reply(status, code int, message string, data any) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "message": message, "data": data})
	}
}

func sampleArticle(id uint, tags ...string) map[string]any {
	tagList := make([]map[string]any, 0, len(tags))
	for i, name := range tags {
		tagList = append(tagList, map[string]any{"id": i + 1, "name": name})
	}
	return map[string]any{
		"id":         id,
		"title":      "Title",
		"content":    "# Title\n\nbody",
		"status":     "draft",
		"author":     map[string]any{"id": 3, "username": "amy"},
		"tags":       tagList,
		"created_at": "2024-05-01T10:00:00Z",
		"updated_at": "2024-05-02T11:30:00Z",
	}
}

// console drives the router like a browser that keeps its cookies.
type console struct {
	t       *testing.T
	router  *gin.Engine
	backend *fakeBackend
	cookies map[string]*http.Cookie
}

func newConsole(t *testing.T) *console {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := newFakeBackend()
	api := httptest.NewServer(backend)
	t.Cleanup(api.Close)

	editor := models.DefaultEditorConfig()
	s := &Server{
		APIBaseURL: api.URL,
		HTTPClient: api.Client(),
		Editor:     editor,
		Tags:       services.NewTagCache(),
		Renderer:   services.NewRenderer(editor.Markdown),
	}

	r := gin.New()
	r.Use(sessions.Sessions("blog-admin-test", cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	s.Routes(r)

	return &console{t: t, router: r, backend: backend, cookies: map[string]*http.Cookie{}}
}

func (c *console) do(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *console) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, "", nil)
}

func (c *console) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(values.Encode()))
}

func (c *console) postJSON(path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	return c.do(http.MethodPost, path, "application/json", bytes.NewReader(raw))
}

func (c *console) login() {
	c.t.Helper()
	w := c.postForm("/login", url.Values{"email": {"amy@example.com"}, "password": {"secret1"}})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/articles" {
		c.t.Fatalf("login: status %d location %q body %s", w.Code, w.Header().Get("Location"), w.Body.String())
	}
}

func expectRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusFound || w.Header().Get("Location") != location {
		t.Fatalf("expected redirect to %s, got %d %q", location, w.Code, w.Header().Get("Location"))
	}
}

func TestAuthRequired(t *testing.T) {
	c := newConsole(t)

	expectRedirect(t, c.get("/"), "/login")
	expectRedirect(t, c.get("/articles"), "/login")
	expectRedirect(t, c.get("/articles/7"), "/login")

	w := c.get("/api/articles")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("api status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Unauthorized") {
		t.Fatalf("unexpected api body %s", w.Body.String())
	}
	if calls := c.backend.callsTo(services.PathArticleList); len(calls) != 0 {
		t.Fatalf("backend reached without a session")
	}
}

func TestLoginAndListArticles(t *testing.T) {
	c := newConsole(t)
	if w := c.get("/login"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Sign in") {
		t.Fatalf("login page: %d", w.Code)
	}

	c.login()
	expectRedirect(t, c.get("/"), "/articles")
	expectRedirect(t, c.get("/login"), "/articles")

	w := c.get("/articles?page=2")
	if w.Code != http.StatusOK {
		t.Fatalf("articles status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Title", `href="/articles/8"`, `class="avatar">A<`, "admin", "/articles?page=3", `class="current">2<`} {
		if !strings.Contains(body, want) {
			t.Fatalf("articles page missing %q:\n%s", want, body)
		}
	}

	calls := c.backend.callsTo(services.PathArticleList)
	if len(calls) != 1 {
		t.Fatalf("list calls = %d", len(calls))
	}
	if calls[0].Authorization != "Bearer tok" {
		t.Fatalf("Authorization = %q", calls[0].Authorization)
	}
	if calls[0].Body["author_id"] != float64(3) || calls[0].Body["page"] != float64(2) || calls[0].Body["page_size"] != float64(10) {
		t.Fatalf("unexpected list body %v", calls[0].Body)
	}
}

func TestNavbarShowsRoleForRegularUsers(t *testing.T) {
	c := newConsole(t)
	c.backend.set(services.PathAuthLogin, reply(http.StatusOK, 200, "ok", map[string]any{
		"token": "tok",
		"user":  map[string]any{"id": 5, "username": "bob", "email": "bob@example.com"},
	}))
	c.login()

	body := c.get("/articles").Body.String()
	if !strings.Contains(body, `class="role">user<`) {
		t.Fatalf("expected a user role label:\n%s", body)
	}
	if strings.Contains(body, `class="role admin"`) {
		t.Fatalf("regular user rendered as admin:\n%s", body)
	}
}

func TestArticlesEmptyState(t *testing.T) {
	c := newConsole(t)
	c.backend.set(services.PathArticleList, reply(http.StatusOK, 200, "ok", map[string]any{"total": 0, "articles": []any{}}))
	c.login()

	body := c.get("/articles").Body.String()
	if !strings.Contains(body, "No articles yet") {
		t.Fatalf("expected empty state:\n%s", body)
	}
	if strings.Contains(body, `class="pagination"`) {
		t.Fatalf("pagination shown for an empty list")
	}
}

func TestLoginFailures(t *testing.T) {
	c := newConsole(t)

	w := c.postForm("/login", url.Values{"email": {"not-an-email"}, "password": {"x"}})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "email must be a valid email address") {
		t.Fatalf("invalid form: %d %s", w.Code, w.Body.String())
	}
	if len(c.backend.callsTo(services.PathAuthLogin)) != 0 {
		t.Fatalf("invalid form reached the backend")
	}

	c.backend.set(services.PathAuthLogin, reply(http.StatusOK, 400, "wrong password", nil))
	w = c.postForm("/login", url.Values{"email": {"amy@example.com"}, "password": {"nope"}})
	if !strings.Contains(w.Body.String(), "wrong password") {
		t.Fatalf("expected backend message inline, got %d %s", w.Code, w.Body.String())
	}

	c.backend.set(services.PathAuthLogin, reply(http.StatusUnauthorized, 401, "unauthorized", nil))
	w = c.postForm("/login", url.Values{"email": {"amy@example.com"}, "password": {"nope"}})
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "Invalid email or password") {
		t.Fatalf("expected invalid credentials, got %d %s", w.Code, w.Body.String())
	}
	expectRedirect(t, c.get("/articles"), "/login")
}

func TestRegister(t *testing.T) {
	c := newConsole(t)

	w := c.postForm("/register", url.Values{"username": {"bob"}, "email": {"bob@example.com"}, "password": {"secret1"}})
	expectRedirect(t, w, "/login?registered=1")
	if !strings.Contains(c.get("/login?registered=1").Body.String(), "Registration successful") {
		t.Fatalf("expected success notice on login page")
	}

	c.backend.set(services.PathAuthRegister, reply(http.StatusConflict, 409, "email already exists", nil))
	w = c.postForm("/register", url.Values{"username": {"bob"}, "email": {"bob@example.com"}, "password": {"secret1"}})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	for _, want := range []string{"Registration failed", "email already exists", `value="bob"`} {
		if !strings.Contains(w.Body.String(), want) {
			t.Fatalf("register page missing %q:\n%s", want, w.Body.String())
		}
	}

	w = c.postForm("/register", url.Values{"username": {"b"}, "email": {"bob@example.com"}, "password": {"secret1"}})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "username must be at least 3 characters") {
		t.Fatalf("short username: %d %s", w.Code, w.Body.String())
	}
}

func TestBackendUnauthorizedClearsSession(t *testing.T) {
	c := newConsole(t)
	c.login()

	c.backend.set(services.PathArticleList, reply(http.StatusUnauthorized, 401, "token expired", nil))
	expectRedirect(t, c.get("/articles"), "/login")

	expectRedirect(t, c.get("/articles"), "/login")
	if calls := c.backend.callsTo(services.PathArticleList); len(calls) != 1 {
		t.Fatalf("expected the cleared session to stop further calls, got %d", len(calls))
	}
	if w := c.get("/api/tags"); w.Code != http.StatusUnauthorized {
		t.Fatalf("api status after 401 = %d", w.Code)
	}
}

func TestLogout(t *testing.T) {
	c := newConsole(t)
	c.login()
	expectRedirect(t, c.get("/logout"), "/login")
	expectRedirect(t, c.get("/articles"), "/login")
}

func TestEditorCreateAndUpdate(t *testing.T) {
	c := newConsole(t)
	c.login()

	w := c.get("/articles/new")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `<option value="draft" selected>`) {
		t.Fatalf("new article page: %d %s", w.Code, w.Body.String())
	}

	w = c.postForm("/articles/new", url.Values{
		"title":   {"Hello"},
		"content": {"body"},
		"status":  {"published"},
		"tags":    {"go, web ,"},
	})
	expectRedirect(t, w, "/articles")
	created := c.backend.callsTo(services.PathArticleCreate)
	if len(created) != 1 {
		t.Fatalf("create calls = %d", len(created))
	}
	tags, _ := created[0].Body["tags"].([]any)
	if created[0].Body["title"] != "Hello" || len(tags) != 2 || tags[1] != "web" {
		t.Fatalf("unexpected create body %v", created[0].Body)
	}

	w = c.postForm("/articles/new", url.Values{"title": {"   "}, "content": {"body"}, "status": {"draft"}})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Save failed, please retry") {
		t.Fatalf("blank title: %d %s", w.Code, w.Body.String())
	}
	if len(c.backend.callsTo(services.PathArticleCreate)) != 1 {
		t.Fatalf("blank title reached the backend")
	}

	w = c.get("/articles/edit/7")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `value="go"`) {
		t.Fatalf("edit page: %d %s", w.Code, w.Body.String())
	}

	w = c.postForm("/articles/edit/7", url.Values{"title": {"New"}, "content": {"text"}, "status": {"draft"}})
	expectRedirect(t, w, "/articles")
	updated := c.backend.callsTo(services.PathArticleUpdate)
	if len(updated) != 1 || updated[0].Body["id"] != float64(7) {
		t.Fatalf("unexpected update calls %v", updated)
	}

	c.backend.set(services.PathArticleUpdate, reply(http.StatusOK, 500, "update failed", nil))
	w = c.postForm("/articles/edit/7", url.Values{"title": {"New"}, "content": {"text"}, "status": {"draft"}})
	if !strings.Contains(w.Body.String(), "Save failed, please retry: update failed") || !strings.Contains(w.Body.String(), `value="New"`) {
		t.Fatalf("expected inline failure keeping input, got %s", w.Body.String())
	}
}

func TestArticlePage(t *testing.T) {
	c := newConsole(t)
	c.login()

	w := c.get("/articles/7")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`<h1 id="title">Title</h1>`, "2024-05-01 10:00:00", "2024-05-02 11:30:00", "Draft", "amy"} {
		if !strings.Contains(body, want) {
			t.Fatalf("article page missing %q:\n%s", want, body)
		}
	}

	if w := c.get("/articles/abc"); w.Code != http.StatusNotFound {
		t.Fatalf("bad id status = %d", w.Code)
	}
}

func TestDeleteArticle(t *testing.T) {
	c := newConsole(t)
	c.login()

	expectRedirect(t, c.do(http.MethodPost, "/articles/7/delete", "", nil), "/articles")
	calls := c.backend.callsTo(services.PathArticleDelete)
	if len(calls) != 1 || calls[0].Body["id"] != float64(7) {
		t.Fatalf("unexpected delete calls %v", calls)
	}

	w := c.postJSON("/api/delete", map[string]any{"id": 0})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("delete id 0 status = %d", w.Code)
	}
}

func TestJSONAPI(t *testing.T) {
	c := newConsole(t)
	c.login()

	w := c.get("/api/articles")
	var list struct {
		Total int64            `json:"total"`
		Items []models.Article `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || list.Total != 25 || len(list.Items) != 2 {
		t.Fatalf("list: %v %s", err, w.Body.String())
	}

	w = c.get("/api/tags?q=g")
	if !strings.Contains(w.Body.String(), `"go"`) || strings.Contains(w.Body.String(), `"web"`) {
		t.Fatalf("tags: %s", w.Body.String())
	}

	w = c.get("/api/article?id=7")
	var article models.Article
	if err := json.Unmarshal(w.Body.Bytes(), &article); err != nil || article.ID != 7 {
		t.Fatalf("article: %v %s", err, w.Body.String())
	}
	if w := c.get("/api/article?id=x"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", w.Code)
	}

	w = c.postJSON("/api/create", map[string]any{"title": "T", "content": "C", "tags": []string{"a"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d %s", w.Code, w.Body.String())
	}
	w = c.postJSON("/api/create", map[string]any{"title": "", "content": "C"})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "title is required") {
		t.Fatalf("invalid create: %d %s", w.Code, w.Body.String())
	}

	w = c.postJSON("/api/article", map[string]any{"id": 7, "title": "T", "content": "C", "status": "published"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d", w.Code)
	}

	c.backend.set(services.PathArticleDetail, reply(http.StatusInternalServerError, 500, "database down", nil))
	w = c.get("/api/article?id=7")
	if w.Code != http.StatusBadGateway || !strings.Contains(w.Body.String(), "database down") {
		t.Fatalf("backend failure: %d %s", w.Code, w.Body.String())
	}

	w = c.postJSON("/api/preview", map[string]any{"content": "**bold**"})
	if !strings.Contains(w.Body.String(), `\u003cstrong\u003ebold`) && !strings.Contains(w.Body.String(), "<strong>bold") {
		t.Fatalf("preview: %s", w.Body.String())
	}

	w = c.get("/api/config")
	var cfg models.EditorConfig
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil || cfg.DefaultStatus != models.StatusDraft || cfg.PageSize != 10 {
		t.Fatalf("config: %v %s", err, w.Body.String())
	}
}

func TestUpdateResetsTagSuggestions(t *testing.T) {
	c := newConsole(t)
	c.login()

	tagsFor := func() []string {
		t.Helper()
		var got struct {
			Tags []string `json:"tags"`
		}
		if err := json.Unmarshal(c.get("/api/tags").Body.Bytes(), &got); err != nil {
			t.Fatalf("tags: %v", err)
		}
		return got.Tags
	}

	c.get("/api/articles")
	if got := tagsFor(); len(got) != 2 {
		t.Fatalf("expected go and web after listing, got %v", got)
	}
	w := c.postJSON("/api/article", map[string]any{"id": 8, "title": "T", "content": "C", "tags": []string{"go"}})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d", w.Code)
	}
	if got := tagsFor(); len(got) != 0 {
		t.Fatalf("stale suggestions after api update: %v", got)
	}

	c.get("/articles")
	if got := tagsFor(); len(got) != 2 {
		t.Fatalf("expected suggestions to be relearned, got %v", got)
	}
	expectRedirect(t, c.postForm("/articles/edit/8", url.Values{"title": {"T"}, "content": {"C"}, "status": {"draft"}}), "/articles")
	if got := tagsFor(); len(got) != 0 {
		t.Fatalf("stale suggestions after form update: %v", got)
	}
}

func TestExportAndImport(t *testing.T) {
	c := newConsole(t)
	c.login()

	w := c.get("/api/export?id=7&format=toml")
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Body.String(), "+++\n") {
		t.Fatalf("expected toml front matter, got %s", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "article-7.md") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if w := c.get("/api/export?id=7&format=xml"); w.Code != http.StatusBadRequest {
		t.Fatalf("unsupported format status = %d", w.Code)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "post.md")
	_, _ = part.Write([]byte("---\ntitle: Imported\ntags: [go]\n---\n\nHello there.\n"))
	_ = mw.WriteField("status", "published")
	_ = mw.Close()

	w = c.do(http.MethodPost, "/api/import", mw.FormDataContentType(), &buf)
	if w.Code != http.StatusCreated {
		t.Fatalf("import status = %d %s", w.Code, w.Body.String())
	}
	created := c.backend.callsTo(services.PathArticleCreate)
	if len(created) != 1 {
		t.Fatalf("create calls = %d", len(created))
	}
	got := created[0].Body
	if got["title"] != "Imported" || got["status"] != "published" || got["content"] != "Hello there." {
		t.Fatalf("unexpected import body %v", got)
	}

	if w := c.do(http.MethodPost, "/api/import", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing file status = %d", w.Code)
	}
}
