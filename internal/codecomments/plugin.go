// Package codecomments implements inline code review comments on
// changesets and browsed files. Its components plug into the chrome host:
// a navigation entry, script data for source pages, a comment listing,
// deletion, bundling comments into a ticket, and a JSON API.
package codecomments

import (
	"context"
	"embed"
	"io/fs"
	"net/url"

	"github.com/evcraddock/code-comments/internal/chrome"
	"github.com/evcraddock/code-comments/internal/comment"
)

// BasePath is the path component every plugin route lives under.
const BasePath = "code-comments"

//go:embed templates
var templatesFS embed.FS

//go:embed htdocs
var htdocsFS embed.FS

// Store is the comment persistence the components rely on.
// *comment.Repository satisfies it.
type Store interface {
	All(ctx context.Context) ([]*comment.Comment, error)
	ByID(ctx context.Context, id string) (*comment.Comment, error)
	Search(ctx context.Context, args url.Values) ([]*comment.Comment, error)
	Create(ctx context.Context, req comment.CreateRequest) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// Config holds plugin settings.
type Config struct {
	RepoName string
	// FormattingHelpURL defaults to the WikiFormatting wiki page.
	FormattingHelpURL string
}

// Plugin is the state shared by all components.
type Plugin struct {
	store     Store
	cfg       Config
	templates fs.FS
	htdocs    fs.FS
}

// New creates the plugin.
func New(store Store, cfg Config) *Plugin {
	templates, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	htdocs, err := fs.Sub(htdocsFS, "htdocs")
	if err != nil {
		panic(err)
	}
	return &Plugin{store: store, cfg: cfg, templates: templates, htdocs: htdocs}
}

// Components returns the components to register with the chrome Env, in
// registration order.
func (p *Plugin) Components() []any {
	return []any{
		&CodeComments{p},
		&JSDataForRequests{base{p}},
		&ListComments{base{p}},
		&DeleteCommentForm{base{p}},
		&BundleCommentsRedirect{base{p}},
		&CommentsREST{base{p}},
	}
}

func (p *Plugin) path(parts ...string) []string {
	return append([]string{BasePath}, parts...)
}

// base gives handlers the plugin and marks Code Comments as the active
// navigation item.
type base struct {
	*Plugin
}

// ActiveNavigationItem highlights the Code Comments entry.
func (base) ActiveNavigationItem(*chrome.Request) string {
	return BasePath
}

// CodeComments contributes the navigation entry, templates, static files
// and the plugin stylesheet.
type CodeComments struct {
	*Plugin
}

// ActiveNavigationItem implements chrome.NavigationContributor.
func (c *CodeComments) ActiveNavigationItem(*chrome.Request) string {
	return BasePath
}

// NavigationItems implements chrome.NavigationContributor.
func (c *CodeComments) NavigationItems(req *chrome.Request) []chrome.NavItem {
	return []chrome.NavItem{{
		Category: "mainnav",
		Name:     BasePath,
		Label:    "Code Comments",
		URL:      req.Href.Path(BasePath),
	}}
}

// TemplatesFS implements chrome.TemplateProvider.
func (c *CodeComments) TemplatesFS() fs.FS {
	return c.templates
}

// HtdocsDirs implements chrome.TemplateProvider.
func (c *CodeComments) HtdocsDirs() []chrome.HtdocsDir {
	return []chrome.HtdocsDir{{Prefix: BasePath, FS: c.htdocs}}
}

// PreProcessRequest implements chrome.RequestFilter.
func (c *CodeComments) PreProcessRequest(_ *chrome.Request, handler chrome.RequestHandler) chrome.RequestHandler {
	return handler
}

// PostProcessRequest adds the plugin stylesheet to every page.
func (c *CodeComments) PostProcessRequest(req *chrome.Request, resp *chrome.Response) (*chrome.Response, error) {
	req.AddStylesheet(BasePath + "/code-comments.css")
	return resp, nil
}
