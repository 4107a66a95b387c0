package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"blog-admin/pkg/config"
	"blog-admin/pkg/logging"
	"blog-admin/pkg/models"
	"blog-admin/pkg/services"
)

const dateLayout = "2006-01-02 15:04:05"

const usage = `usage: blogctl <command> [flags]

commands:
  register   create an account
  login      sign in and remember the session
  logout     forget the session
  whoami     show the signed-in user
  list       list your articles
  show       print one article
  create     create an article
  edit       update an article
  delete     delete an article
  preview    render markdown to HTML
  export     write an article as markdown with front matter
  import     create articles from markdown files`

func main() {
	config.Init()
	if err := config.Validate(false); err != nil {
		log.Fatalf("blogctl: invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if services.IsUnauthorized(err) || errors.Is(err, services.ErrNotAuthenticated) {
			fmt.Fprintln(os.Stderr, "blogctl: please log in first: blogctl login -email <email>")
			os.Exit(1)
		}
		log.Fatalf("blogctl: %s", services.Message(err))
	}
}

// app is one CLI invocation: the session restored from disk and the
// services bound to it.
type app struct {
	in       *bufio.Reader
	out      io.Writer
	editor   models.EditorConfig
	logger   logging.Logger
	store    *services.AuthStore
	auth     *services.AuthService
	articles *services.ArticleService
	renderer *services.Renderer
}

func newApp(ctx context.Context, stdin io.Reader, stdout io.Writer) (*app, error) {
	provider, err := logging.NewGoLogger(logging.Config{Level: config.LogLevel, Format: config.LogFormat})
	if err != nil {
		return nil, err
	}
	editor, err := config.LoadEditorConfig(config.EditorConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load editor config: %w", err)
	}
	storage, err := services.NewFileStorage(config.SessionFile, []byte(config.SessionSecret))
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}

	httpClient := &http.Client{Timeout: config.RequestTimeout}
	clientLogger := logging.ClientLogger(provider)

	auth := services.NewAuthService(
		services.NewClient(config.APIBaseURL, services.WithHTTPClient(httpClient), services.WithLogger(clientLogger)),
		services.WithPasswordPrehash(config.PasswordPrehash),
	)
	store := services.NewAuthStore(storage, auth, logging.SessionLogger(provider))
	store.Initialize(ctx)

	client := services.NewClient(config.APIBaseURL,
		services.WithHTTPClient(httpClient),
		services.WithLogger(clientLogger),
		services.WithTokenSource(store),
		services.WithUnauthorizedHandler(store.ClearCredentials),
	)

	return &app{
		in:       bufio.NewReader(stdin),
		out:      stdout,
		editor:   editor,
		logger:   logging.CLILogger(provider),
		store:    store,
		auth:     auth,
		articles: services.NewArticleService(client, services.NewTagCache(editor.Tags...)),
		renderer: services.NewRenderer(editor.Markdown),
	}, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(stdout, usage)
		return errors.New("missing command")
	}

	a, err := newApp(ctx, stdin, stdout)
	if err != nil {
		return err
	}

	commands := map[string]func(context.Context, []string) error{
		"register": a.register,
		"login":    a.login,
		"logout":   a.logout,
		"whoami":   a.whoami,
		"list":     a.list,
		"show":     a.show,
		"create":   a.create,
		"edit":     a.edit,
		"delete":   a.delete,
		"preview":  a.preview,
		"export":   a.export,
		"import":   a.importFiles,
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintln(stdout, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd(ctx, args[1:])
}

func (a *app) requireLogin() error {
	if !a.store.IsAuthenticated() {
		return services.ErrNotAuthenticated
	}
	return nil
}

// prompt reads one line of input, used for passwords and confirmations.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	username := fs.String("username", "", "Account name (3-50 characters)")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		p, err := a.prompt("Password: ")
		if err != nil {
			return err
		}
		*password = p
	}

	user, err := a.auth.Register(ctx, models.RegisterRequest{Username: *username, Email: *email, Password: *password})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	fmt.Fprintf(a.out, "Registered %s, you can now log in.\n", user.Username)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		p, err := a.prompt("Password: ")
		if err != nil {
			return err
		}
		*password = p
	}

	if err := a.store.Login(ctx, *email, *password); err != nil {
		if services.IsUnauthorized(err) {
			return errors.New("invalid email or password")
		}
		return err
	}
	user := a.store.User()
	fmt.Fprintf(a.out, "Logged in as %s.\n", user.Username)
	return nil
}

func (a *app) logout(context.Context, []string) error {
	if err := a.store.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *app) whoami(context.Context, []string) error {
	user := a.store.User()
	if user == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s> (%s)\n", user.Username, user.Email, user.RoleLabel())
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	page := fs.Int("page", 1, "Page number")
	status := fs.String("status", "", "Only show draft or published articles")
	tag := fs.String("tag", "", "Only show articles with this tag")
	all := fs.Bool("all", false, "Include articles by other authors")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	req := models.ListArticleRequest{Page: *page, PageSize: a.editor.PageSize, Status: *status, Tag: *tag}
	if !*all {
		req.AuthorID = a.store.User().ID
	}
	resp, err := a.articles.List(ctx, req)
	if err != nil {
		return err
	}
	if len(resp.Items) == 0 {
		fmt.Fprintln(a.out, "No articles yet.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tTAGS\tUPDATED")
	for _, art := range resp.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", art.ID, models.StatusLabel(art.Status), art.Title,
			strings.Join(art.TagNames(), ", "), art.UpdatedAt.Format(dateLayout))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	p := models.NewPagination(resp.Total, req.Page, req.PageSize)
	if p.HasPages() {
		fmt.Fprintf(a.out, "Page %d of %d (%d articles)\n", p.Page, p.PageCount(), p.Total)
	}
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	id := fs.Uint("id", 0, "Article ID")
	asHTML := fs.Bool("html", false, "Print the content rendered as HTML")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	art, err := a.articles.Get(ctx, *id)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, art.Title)
	fmt.Fprintf(a.out, "%s · %s · %s\n", art.Author.Username, art.CreatedAt.Format(dateLayout), models.StatusLabel(art.Status))
	if tags := art.TagNames(); len(tags) > 0 {
		fmt.Fprintf(a.out, "Tags: %s\n", strings.Join(tags, ", "))
	}
	fmt.Fprintln(a.out)

	content := art.Content
	if *asHTML {
		if content, err = a.renderer.Render(art.Content); err != nil {
			return err
		}
	}
	fmt.Fprintln(a.out, content)
	fmt.Fprintf(a.out, "\nLast updated %s\n", art.UpdatedAt.Format(dateLayout))
	return nil
}

// articleFlags are shared by create and edit.
type articleFlags struct {
	fs      *flag.FlagSet
	title   *string
	content *string
	file    *string
	status  *string
	tags    *string
}

func newArticleFlags(name, defaultStatus string) *articleFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &articleFlags{
		fs:      fs,
		title:   fs.String("title", "", "Article title"),
		content: fs.String("content", "", "Markdown content"),
		file:    fs.String("file", "", "Read title, tags, status and content from a markdown file (- for stdin)"),
		status:  fs.String("status", defaultStatus, "draft or published"),
		tags:    fs.String("tags", "", "Comma separated tags"),
	}
}

func (f *articleFlags) isSet(name string) bool {
	set := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

// apply overlays the file and explicitly set flags onto req.
func (f *articleFlags) apply(req *models.CreateArticleRequest, stdin io.Reader) error {
	if *f.file != "" {
		doc, err := readDocumentFile(*f.file, stdin)
		if err != nil {
			return err
		}
		req.Title, req.Content, req.Tags = doc.Title, doc.Content, doc.Tags
		if doc.Status != "" {
			req.Status = doc.Status
		}
	}
	if f.isSet("title") {
		req.Title = *f.title
	}
	if f.isSet("content") {
		req.Content = *f.content
	}
	if f.isSet("status") || req.Status == "" {
		req.Status = *f.status
	}
	if f.isSet("tags") {
		req.Tags = models.ParseTags(*f.tags)
	}
	return nil
}

func readDocumentFile(path string, stdin io.Reader) (models.CreateArticleRequest, error) {
	if path == "-" {
		return services.ParseDocument("stdin.md", stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return models.CreateArticleRequest{}, err
	}
	defer file.Close()
	return services.ParseDocument(path, file)
}

func (a *app) create(ctx context.Context, args []string) error {
	f := newArticleFlags("create", a.editor.DefaultStatus)
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	var req models.CreateArticleRequest
	if err := f.apply(&req, a.in); err != nil {
		return err
	}
	art, err := a.articles.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	fmt.Fprintf(a.out, "Created article %d: %s\n", art.ID, art.Title)
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	f := newArticleFlags("edit", "")
	id := f.fs.Uint("id", 0, "Article ID")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	current, err := a.articles.Get(ctx, *id)
	if err != nil {
		return err
	}
	req := models.CreateArticleRequest{
		Title:   current.Title,
		Content: current.Content,
		Status:  current.Status,
		Tags:    current.TagNames(),
	}
	if err := f.apply(&req, a.in); err != nil {
		return err
	}

	art, err := a.articles.Update(ctx, models.UpdateArticleRequest{ID: *id, CreateArticleRequest: req})
	if err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	fmt.Fprintf(a.out, "Updated article %d: %s\n", art.ID, art.Title)
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.Uint("id", 0, "Article ID")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	if !*yes {
		answer, err := a.prompt(fmt.Sprintf("Delete article %d? [y/N] ", *id))
		if err != nil {
			return err
		}
		if ans := strings.ToLower(answer); ans != "y" && ans != "yes" {
			fmt.Fprintln(a.out, "Aborted.")
			return nil
		}
	}
	if err := a.articles.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted article %d.\n", *id)
	return nil
}

func (a *app) preview(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	file := fs.String("file", "-", "Markdown file to render (- for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	doc, err := readDocumentFile(*file, a.in)
	if err != nil {
		return err
	}
	html, err := a.renderer.Render(doc.Content)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, html)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	id := fs.Uint("id", 0, "Article ID")
	format := fs.String("format", a.editor.ExportFormat, "Front matter format: yaml, toml or json")
	output := fs.String("o", "", "Write to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	art, err := a.articles.Get(ctx, *id)
	if err != nil {
		return err
	}
	data, err := services.ExportArticle(*art, *format)
	if err != nil {
		return err
	}
	if *output == "" {
		_, err = a.out.Write(data)
		return err
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wrote %s\n", *output)
	return nil
}

func (a *app) importFiles(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	status := fs.String("status", "", "Override the status of every imported article")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("no files given")
	}

	for _, path := range fs.Args() {
		req, err := readDocumentFile(path, a.in)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if *status != "" {
			req.Status = *status
		} else if req.Status == "" {
			req.Status = a.editor.DefaultStatus
		}
		art, err := a.articles.Create(ctx, req)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		a.logger.Info("article imported", "id", art.ID, "file", path)
		fmt.Fprintf(a.out, "Imported %s as article %d\n", path, art.ID)
	}
	return nil
}
