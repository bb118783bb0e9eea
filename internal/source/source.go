// Package source serves the repository pages that code comments are
// attached to: changesets and the source browser.
package source

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/evcraddock/code-comments/internal/chrome"
	"github.com/evcraddock/code-comments/internal/vcs"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Pages provides the source page templates and the "Browse Source" link.
type Pages struct{}

// TemplatesFS implements chrome.TemplateProvider.
func (Pages) TemplatesFS() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// HtdocsDirs implements chrome.TemplateProvider.
func (Pages) HtdocsDirs() []chrome.HtdocsDir { return nil }

// ActiveNavigationItem implements chrome.NavigationContributor.
func (Pages) ActiveNavigationItem(*chrome.Request) string { return "browser" }

// NavigationItems implements chrome.NavigationContributor.
func (Pages) NavigationItems(req *chrome.Request) []chrome.NavItem {
	return []chrome.NavItem{{
		Category: "mainnav",
		Name:     "browser",
		Label:    "Browse Source",
		URL:      req.Href.Path("browser"),
	}}
}

// Components returns everything to register for the source pages.
func Components(repo vcs.Repository) []any {
	return []any{Pages{}, NewChangeset(repo), NewBrowser(repo)}
}

// Changeset renders /changeset/<rev>.
type Changeset struct {
	repo vcs.Repository
}

// NewChangeset creates the changeset page handler.
func NewChangeset(repo vcs.Repository) *Changeset {
	return &Changeset{repo: repo}
}

// ActiveNavigationItem implements the chrome active-item hook.
func (h *Changeset) ActiveNavigationItem(*chrome.Request) string { return "browser" }

// MatchRequest implements chrome.RequestHandler.
func (h *Changeset) MatchRequest(req *chrome.Request) bool {
	rev, ok := strings.CutPrefix(req.PathInfo, "/changeset/")
	return ok && rev != "" && !strings.Contains(rev, "/")
}

// ProcessRequest implements chrome.RequestHandler.
func (h *Changeset) ProcessRequest(req *chrome.Request) (*chrome.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return nil, &chrome.HTTPError{Status: http.StatusMethodNotAllowed, Message: "Method not allowed"}
	}
	rev := strings.TrimPrefix(req.PathInfo, "/changeset/")

	cs, err := h.repo.Changeset(req.Context(), rev)
	if err != nil {
		return nil, err
	}

	return chrome.Render("changeset.html", chrome.Data{
		"reponame":  h.repo.Name(),
		"new_rev":   cs.Rev,
		"changeset": cs,
	}), nil
}

// Browser renders /browser/<path>?rev=<rev>.
type Browser struct {
	repo vcs.Repository
}

// NewBrowser creates the source browser handler.
func NewBrowser(repo vcs.Repository) *Browser {
	return &Browser{repo: repo}
}

// ActiveNavigationItem implements the chrome active-item hook.
func (h *Browser) ActiveNavigationItem(*chrome.Request) string { return "browser" }

// MatchRequest implements chrome.RequestHandler.
func (h *Browser) MatchRequest(req *chrome.Request) bool {
	return req.PathInfo == "/browser" || strings.HasPrefix(req.PathInfo, "/browser/")
}

// ProcessRequest implements chrome.RequestHandler.
func (h *Browser) ProcessRequest(req *chrome.Request) (*chrome.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return nil, &chrome.HTTPError{Status: http.StatusMethodNotAllowed, Message: "Method not allowed"}
	}
	path := strings.Trim(strings.TrimPrefix(req.PathInfo, "/browser"), "/")

	rev, err := h.repo.Resolve(req.Context(), req.Args.Get("rev"))
	if err != nil {
		return nil, err
	}
	node, err := h.repo.Node(req.Context(), path, rev)
	if err != nil {
		return nil, err
	}

	return chrome.Render("browser.html", chrome.Data{
		"reponame": h.repo.Name(),
		"rev":      rev,
		"path":     node.Path,
		"node":     node,
		"crumbs":   breadcrumbs(node.Path),
	}), nil
}

// crumb is one link in the path navigation above a browser page.
type crumb struct {
	Name string
	Path string
}

func breadcrumbs(path string) []crumb {
	if path == "" {
		return nil
	}
	var out []crumb
	parts := strings.Split(path, "/")
	for i, p := range parts {
		out = append(out, crumb{Name: p, Path: strings.Join(parts[:i+1], "/")})
	}
	return out
}
