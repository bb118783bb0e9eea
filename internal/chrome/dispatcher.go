// Package chrome is the host framework: it dispatches requests to
// registered components, runs request filters and renders pages with the
// shared layout (navigation, stylesheets, scripts, script data, notices).
package chrome

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed htdocs
var htdocsFS embed.FS

const (
	formTokenCookie = "codecomments_form_token"
	formTokenArg    = "__FORM_TOKEN"
	noticeCookie    = "codecomments_notices"
)

// IdentifyFunc resolves the requester's username and granted permission actions.
type IdentifyFunc func(r *http.Request) (username string, actions []string)

// Options configures a Dispatcher.
type Options struct {
	Href           *Href
	Identify       IdentifyFunc
	SiteName       string
	DefaultHandler string // path component "/" redirects to
	CookieSecret   []byte // signs the notice cookie; random when empty
	Debug          bool   // show internal error details
	SecureCookies  bool
}

// Dispatcher is the http.Handler that runs registered components.
type Dispatcher struct {
	env       *Env
	opts      Options
	templates *template.Template
	cookies   *securecookie.SecureCookie
}

// NewDispatcher parses the host and component templates.
func NewDispatcher(env *Env, opts Options) (*Dispatcher, error) {
	if opts.Href == nil {
		opts.Href = NewHref(HrefConfig{})
	}
	if opts.SiteName == "" {
		opts.SiteName = "Code Comments"
	}
	secret := opts.CookieSecret
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
	}

	funcMap := template.FuncMap{
		"chrome":     opts.Href.Chrome,
		"formatTime": tmplFormatTime,
		"inc":        func(i int) int { return i + 1 },
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing host templates: %w", err)
	}
	for _, p := range env.TemplateProviders() {
		tfs := p.TemplatesFS()
		if tfs == nil {
			continue
		}
		matches, err := fs.Glob(tfs, "*.html")
		if err != nil {
			return nil, fmt.Errorf("listing templates of %T: %w", p, err)
		}
		if len(matches) == 0 {
			continue
		}
		if tmpl, err = tmpl.ParseFS(tfs, "*.html"); err != nil {
			return nil, fmt.Errorf("parsing templates of %T: %w", p, err)
		}
	}

	return &Dispatcher{
		env:       env,
		opts:      opts,
		templates: tmpl,
		cookies:   securecookie.New(secret, nil),
	}, nil
}

// Href returns the URL builder.
func (d *Dispatcher) Href() *Href {
	return d.opts.Href
}

// ServeHTTP implements http.Handler.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	username, actions := "", []string(nil)
	if d.opts.Identify != nil {
		username, actions = d.opts.Identify(r)
	}

	req, err := NewRequest(r, d.opts.Href, username, NewPerm(actions...))
	if err != nil {
		d.writeError(w, &Request{Method: r.Method, PathInfo: r.URL.Path, Href: d.opts.Href, raw: r, Perm: Perm{}, scriptData: map[string]any{}}, err)
		return
	}
	req.formToken = d.ensureFormToken(w, r)

	resp, err := d.dispatch(req)
	if err != nil {
		d.writeError(w, req, err)
		return
	}
	d.write(w, req, resp)
}

func (d *Dispatcher) dispatch(req *Request) (*Response, error) {
	if err := d.checkFormToken(req); err != nil {
		return nil, err
	}

	handler := d.env.match(req)
	for _, f := range d.env.filters {
		handler = f.PreProcessRequest(req, handler)
	}
	if handler == nil {
		if req.PathInfo == "/" && d.opts.DefaultHandler != "" {
			return Redirect(d.opts.Href.Path(d.opts.DefaultHandler)), nil
		}
		return nil, &HTTPError{Status: http.StatusNotFound, Message: fmt.Sprintf("No handler matched request to %s", req.PathInfo)}
	}

	req.handler = handler
	resp, err := handler.ProcessRequest(req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%T produced no response for %s %s", handler, req.Method, req.PathInfo)
	}
	if !resp.IsRender() {
		return resp, nil
	}

	// Post-processing runs in reverse registration order.
	for i := len(d.env.filters) - 1; i >= 0; i-- {
		out, err := d.env.filters[i].PostProcessRequest(req, resp)
		if err != nil {
			return nil, err
		}
		if out != nil {
			resp = out
		}
	}
	return resp, nil
}

func (d *Dispatcher) write(w http.ResponseWriter, req *Request, resp *Response) {
	switch resp.kind {
	case kindRedirect:
		d.storeNotices(w, req.notices)
		http.Redirect(w, req.raw, resp.location, resp.status)
	case kindSend:
		if resp.ContentType != "" {
			w.Header().Set("Content-Type", resp.ContentType)
		}
		w.WriteHeader(resp.status)
		if _, err := w.Write(resp.body); err != nil {
			slog.Warn("writing response", "path", req.PathInfo, "error", err)
		}
	default:
		d.render(w, req, resp)
	}
}

// page is the value every template is executed with.
type page struct {
	Chrome *pageChrome
	Data   Data
}

type pageChrome struct {
	SiteName    string
	Nav         []navLink
	Stylesheets []string
	Scripts     []string
	ScriptData  map[string]any
	Notices     []string
	Authname    string
	FormToken   string
	Href        *Href
}

// activeNavigator is implemented by handlers that highlight a navigation item.
type activeNavigator interface {
	ActiveNavigationItem(req *Request) string
}

type navLink struct {
	NavItem
	Active bool
}

func (d *Dispatcher) render(w http.ResponseWriter, req *Request, resp *Response) {
	notices := append(d.takeNotices(w, req.raw), req.notices...)
	pc := d.pageChrome(req)
	pc.Notices = notices

	var buf bytes.Buffer
	if err := d.templates.ExecuteTemplate(&buf, resp.Template, page{Chrome: pc, Data: resp.Data}); err != nil {
		slog.Error("rendering template", "template", resp.Template, "error", err)
		http.Error(w, fmt.Sprintf("Error rendering template: %v", err), http.StatusInternalServerError)
		return
	}

	ct := resp.ContentType
	if ct == "" {
		ct = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(resp.status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("writing page", "path", req.PathInfo, "error", err)
	}
}

func (d *Dispatcher) pageChrome(req *Request) *pageChrome {
	pc := &pageChrome{
		SiteName:   d.opts.SiteName,
		ScriptData: req.scriptData,
		Authname:   req.Authname,
		FormToken:  req.formToken,
		Href:       d.opts.Href,
	}

	active := ""
	if a, ok := req.handler.(activeNavigator); ok {
		active = a.ActiveNavigationItem(req)
	}
	for _, n := range d.env.navs {
		for _, item := range n.NavigationItems(req) {
			pc.Nav = append(pc.Nav, navLink{NavItem: item, Active: item.Name == active})
		}
	}

	pc.Stylesheets = append(pc.Stylesheets, d.opts.Href.Chrome("common/css/layout.css"))
	for _, s := range req.stylesheets {
		pc.Stylesheets = append(pc.Stylesheets, d.opts.Href.Chrome(s))
	}
	if len(req.scripts) > 0 {
		pc.Scripts = append(pc.Scripts, d.opts.Href.Chrome("common/js/jquery.js"))
	}
	for _, s := range req.scripts {
		pc.Scripts = append(pc.Scripts, d.opts.Href.Chrome(s))
	}
	return pc
}

func (d *Dispatcher) writeError(w http.ResponseWriter, req *Request, err error) {
	status := StatusCode(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", req.Method, "path", req.PathInfo, "error", err)
		if !d.opts.Debug {
			message = "An internal error occurred while processing the request."
		}
	} else {
		slog.Warn("request rejected", "method", req.Method, "path", req.PathInfo, "status", status, "error", err)
	}

	pc := d.pageChrome(req)
	data := Data{
		"status":  status,
		"title":   http.StatusText(status),
		"message": message,
	}

	var buf bytes.Buffer
	if rerr := d.templates.ExecuteTemplate(&buf, "error.html", page{Chrome: pc, Data: data}); rerr != nil {
		http.Error(w, message, status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, werr := buf.WriteTo(w); werr != nil {
		slog.Warn("writing error page", "path", req.PathInfo, "error", werr)
	}
}

// ensureFormToken returns the requester's form token, issuing one if needed.
func (d *Dispatcher) ensureFormToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(formTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     formTokenCookie,
		Value:    token,
		Path:     d.cookiePath(),
		HttpOnly: true,
		Secure:   d.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

// checkFormToken rejects form posts that do not echo the form token.
// JSON bodies are exempt; browsers cannot send them cross-site without CORS.
func (d *Dispatcher) checkFormToken(req *Request) error {
	if req.Method != http.MethodPost {
		return nil
	}
	ct, _, _ := mime.ParseMediaType(req.Header("Content-Type"))
	if ct == "application/json" {
		return nil
	}
	if req.Args.Get(formTokenArg) == "" || req.Args.Get(formTokenArg) != req.formToken {
		return &HTTPError{
			Status:  http.StatusBadRequest,
			Message: "Missing or invalid form token. Do you have cookies enabled?",
		}
	}
	return nil
}

func (d *Dispatcher) storeNotices(w http.ResponseWriter, notices []string) {
	if len(notices) == 0 {
		return
	}
	encoded, err := d.cookies.Encode(noticeCookie, notices)
	if err != nil {
		slog.Warn("encoding notices", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     noticeCookie,
		Value:    encoded,
		Path:     d.cookiePath(),
		HttpOnly: true,
		Secure:   d.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeNotices returns notices stored before a redirect and clears the cookie.
func (d *Dispatcher) takeNotices(w http.ResponseWriter, r *http.Request) []string {
	c, err := r.Cookie(noticeCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:   noticeCookie,
		Value:  "",
		Path:   d.cookiePath(),
		MaxAge: -1,
	})
	var notices []string
	if err := d.cookies.Decode(noticeCookie, c.Value, &notices); err != nil {
		slog.Debug("discarding notice cookie", "error", err)
		return nil
	}
	return notices
}

func (d *Dispatcher) cookiePath() string {
	return d.opts.Href.Path()
}

// StaticHandler serves /chrome/<prefix>/<file> from the registered htdocs
// directories. Paths are relative to the mount point, like PathInfo.
// Files in overrideDir/<prefix>/ take precedence, which is how the bundled
// third-party client libraries are supplied.
func (d *Dispatcher) StaticHandler(overrideDir string) http.Handler {
	common, err := fs.Sub(htdocsFS, "htdocs")
	if err != nil {
		panic(fmt.Sprintf("chrome: embedded htdocs: %v", err))
	}
	dirs := []HtdocsDir{{Prefix: "common", FS: common}}
	for _, p := range d.env.providers {
		dirs = append(dirs, p.HtdocsDirs()...)
	}

	mux := http.NewServeMux()
	for _, dir := range dirs {
		prefix := "/chrome/" + dir.Prefix + "/"
		fsys := dir.FS
		if overrideDir != "" {
			fsys = overlayFS{layers: []fs.FS{osDirFS(overrideDir, dir.Prefix), dir.FS}}
		}
		mux.Handle(prefix, http.StripPrefix(prefix, http.FileServer(http.FS(fsys))))
	}
	return mux
}

func tmplFormatTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("2006-01-02 15:04")
}
