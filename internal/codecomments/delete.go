package codecomments

import (
	"log/slog"
	"net/http"

	"github.com/evcraddock/code-comments/internal/chrome"
)

// DeleteCommentForm confirms (GET) and performs (POST) comment deletion.
// Both require the admin permission.
type DeleteCommentForm struct {
	base
}

// MatchRequest implements chrome.RequestHandler.
func (h *DeleteCommentForm) MatchRequest(req *chrome.Request) bool {
	return req.PathInfo == "/"+BasePath+"/delete"
}

// ProcessRequest implements chrome.RequestHandler.
func (h *DeleteCommentForm) ProcessRequest(req *chrome.Request) (*chrome.Response, error) {
	if err := req.Require(chrome.PermAdmin); err != nil {
		return nil, err
	}
	switch req.Method {
	case http.MethodGet, http.MethodHead:
		return h.form(req)
	case http.MethodPost:
		return h.delete(req)
	default:
		return nil, &chrome.HTTPError{Status: http.StatusMethodNotAllowed, Message: "Method not allowed"}
	}
}

func (h *DeleteCommentForm) form(req *chrome.Request) (*chrome.Response, error) {
	c, err := h.store.ByID(req.Context(), req.Args.Get("id"))
	if err != nil {
		return nil, err
	}
	return chrome.Render("delete.html", chrome.Data{
		"comment":   c,
		"return_to": req.Header("Referer"),
	}), nil
}

func (h *DeleteCommentForm) delete(req *chrome.Request) (*chrome.Response, error) {
	c, err := h.store.ByID(req.Context(), req.Args.Get("id"))
	if err != nil {
		return nil, err
	}
	if err := h.store.Delete(req.Context(), c.ID); err != nil {
		return nil, err
	}
	commentsDeleted.Inc()
	slog.Info("comment deleted", "id", c.ID, "by", req.Authname)

	req.AddNotice("Comment deleted.")

	returnTo := req.Args.Get("return_to")
	if returnTo == "" {
		returnTo = req.Href.Path()
	}
	return chrome.Redirect(returnTo), nil
}
