package codecomments

import (
	"github.com/evcraddock/code-comments/internal/chrome"
)

// ListComments renders every comment at /code-comments.
type ListComments struct {
	base
}

// MatchRequest implements chrome.RequestHandler.
func (h *ListComments) MatchRequest(req *chrome.Request) bool {
	return req.PathInfo == "/"+BasePath
}

// ProcessRequest implements chrome.RequestHandler.
func (h *ListComments) ProcessRequest(req *chrome.Request) (*chrome.Response, error) {
	comments, err := h.store.All(req.Context())
	if err != nil {
		return nil, err
	}
	return chrome.Render("comments.html", chrome.Data{
		"reponame":   h.cfg.RepoName,
		"comments":   comments,
		"can_delete": req.Perm.Has(chrome.PermAdmin),
	}), nil
}
