package chrome

import (
	"fmt"
	"io/fs"
)

// RequestHandler serves requests whose path it claims.
type RequestHandler interface {
	MatchRequest(req *Request) bool
	ProcessRequest(req *Request) (*Response, error)
}

// RequestFilter wraps handler selection and decorates rendered responses.
// PostProcessRequest is only called for template responses.
type RequestFilter interface {
	PreProcessRequest(req *Request, handler RequestHandler) RequestHandler
	PostProcessRequest(req *Request, resp *Response) (*Response, error)
}

// NavItem is a single navigation link.
type NavItem struct {
	Category string // "mainnav" or "metanav"
	Name     string
	Label    string
	URL      string
}

// NavigationContributor adds entries to the site navigation.
type NavigationContributor interface {
	ActiveNavigationItem(req *Request) string
	NavigationItems(req *Request) []NavItem
}

// HtdocsDir is a static asset tree served under /chrome/<Prefix>/.
type HtdocsDir struct {
	Prefix string
	FS     fs.FS
}

// TemplateProvider contributes page templates and static assets.
type TemplateProvider interface {
	TemplatesFS() fs.FS
	HtdocsDirs() []HtdocsDir
}

// Env is the component registry.
type Env struct {
	handlers  []RequestHandler
	filters   []RequestFilter
	navs      []NavigationContributor
	providers []TemplateProvider
}

// NewEnv creates an empty registry.
func NewEnv() *Env {
	return &Env{}
}

// Register adds components, filing each under every extension
// interface it implements. Handlers match in registration order.
func (e *Env) Register(components ...any) error {
	for _, c := range components {
		found := false
		if h, ok := c.(RequestHandler); ok {
			e.handlers = append(e.handlers, h)
			found = true
		}
		if f, ok := c.(RequestFilter); ok {
			e.filters = append(e.filters, f)
			found = true
		}
		if n, ok := c.(NavigationContributor); ok {
			e.navs = append(e.navs, n)
			found = true
		}
		if p, ok := c.(TemplateProvider); ok {
			e.providers = append(e.providers, p)
			found = true
		}
		if !found {
			return fmt.Errorf("component %T implements no extension point", c)
		}
	}
	return nil
}

// Handlers returns the registered request handlers.
func (e *Env) Handlers() []RequestHandler { return e.handlers }

// Filters returns the registered request filters.
func (e *Env) Filters() []RequestFilter { return e.filters }

// TemplateProviders returns the registered template providers.
func (e *Env) TemplateProviders() []TemplateProvider { return e.providers }

func (e *Env) match(req *Request) RequestHandler {
	for _, h := range e.handlers {
		if h.MatchRequest(req) {
			return h
		}
	}
	return nil
}
