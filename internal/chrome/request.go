package chrome

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// PermAdmin is the administrative permission action.
const PermAdmin = "ADMIN"

// Anonymous is the authname of unauthenticated requests.
const Anonymous = "anonymous"

const maxBodyBytes = 1 << 20

// Perm is the set of permission actions granted to the requester.
type Perm map[string]bool

// NewPerm builds a permission set from action names.
func NewPerm(actions ...string) Perm {
	p := make(Perm, len(actions))
	for _, a := range actions {
		p[a] = true
	}
	return p
}

// Has reports whether the action is granted. Admins hold every action.
func (p Perm) Has(action string) bool {
	return p[action] || p[PermAdmin]
}

// Request is the per-request view handed to components.
type Request struct {
	Method   string
	PathInfo string
	Args     url.Values
	Authname string
	Perm     Perm
	Href     *Href

	formToken string
	raw       *http.Request
	handler   RequestHandler

	scripts     []string
	stylesheets []string
	scriptData  map[string]any
	notices     []string
}

// NewRequest wraps an incoming request. Query and form-body arguments are
// merged into Args.
func NewRequest(r *http.Request, href *Href, authname string, perm Perm) (*Request, error) {
	if err := r.ParseForm(); err != nil {
		return nil, &HTTPError{Status: http.StatusBadRequest, Message: fmt.Sprintf("parsing arguments: %v", err)}
	}
	if authname == "" {
		authname = Anonymous
	}
	if perm == nil {
		perm = Perm{}
	}
	return &Request{
		Method:     r.Method,
		PathInfo:   r.URL.Path,
		Args:       r.Form,
		Authname:   authname,
		Perm:       perm,
		Href:       href,
		raw:        r,
		scriptData: make(map[string]any),
	}, nil
}

// Context returns the request context.
func (r *Request) Context() context.Context {
	return r.raw.Context()
}

// Header returns the value of a request header.
func (r *Request) Header(name string) string {
	return r.raw.Header.Get(name)
}

// Read returns the request body, capped at 1MB.
func (r *Request) Read() ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.raw.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	return body, nil
}

// Require fails with a PermissionError unless the action is granted.
func (r *Request) Require(action string) error {
	if !r.Perm.Has(action) {
		return &PermissionError{Action: action}
	}
	return nil
}

// AddScript adds a script include. Duplicates are ignored.
func (r *Request) AddScript(resource string) {
	r.scripts = appendUnique(r.scripts, resource)
}

// AddStylesheet adds a stylesheet link. Duplicates are ignored.
func (r *Request) AddStylesheet(resource string) {
	r.stylesheets = appendUnique(r.stylesheets, resource)
}

// AddScriptData exposes values as globals to page scripts.
func (r *Request) AddScriptData(data map[string]any) {
	for k, v := range data {
		r.scriptData[k] = v
	}
}

// AddNotice queues a user-visible notice. Notices survive a redirect.
func (r *Request) AddNotice(msg string) {
	r.notices = append(r.notices, msg)
}

// Scripts returns the script includes in insertion order.
func (r *Request) Scripts() []string { return r.scripts }

// Stylesheets returns the stylesheet links in insertion order.
func (r *Request) Stylesheets() []string { return r.stylesheets }

// ScriptData returns the values exposed to page scripts.
func (r *Request) ScriptData() map[string]any { return r.scriptData }

// Notices returns the queued notices.
func (r *Request) Notices() []string { return r.notices }

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
