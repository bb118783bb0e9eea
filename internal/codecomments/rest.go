package codecomments

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/evcraddock/code-comments/internal/chrome"
	"github.com/evcraddock/code-comments/internal/comment"
)

// CommentsREST is the JSON API: GET searches comments by the query
// arguments, POST creates one from a JSON body.
//
// Errors are not translated here; the host renders them.
type CommentsREST struct {
	base
}

func (h *CommentsREST) apiPath() string {
	return "/" + BasePath + "/comments"
}

// MatchRequest implements chrome.RequestHandler. Every path under the API
// prefix is claimed, but only the prefix itself is served.
func (h *CommentsREST) MatchRequest(req *chrome.Request) bool {
	return strings.HasPrefix(req.PathInfo, h.apiPath())
}

// ProcessRequest implements chrome.RequestHandler.
func (h *CommentsREST) ProcessRequest(req *chrome.Request) (*chrome.Response, error) {
	if req.PathInfo != h.apiPath() {
		return nil, nil
	}
	switch req.Method {
	case http.MethodGet:
		comments, err := h.store.Search(req.Context(), req.Args)
		if err != nil {
			return nil, err
		}
		return h.respond(req, comments)
	case http.MethodPost:
		return h.create(req)
	}
	return nil, nil
}

func (h *CommentsREST) create(req *chrome.Request) (*chrome.Response, error) {
	body, err := req.Read()
	if err != nil {
		return nil, err
	}
	var payload comment.CreateRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding comment: %w", err)
	}
	if payload.Author == "" {
		payload.Author = req.Authname
	}

	id, err := h.store.Create(req.Context(), payload)
	if err != nil {
		return nil, err
	}
	commentsCreated.Inc()
	slog.Info("comment created", "id", id, "author", payload.Author, "revision", payload.Revision)

	c, err := h.store.ByID(req.Context(), strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}
	return h.respond(req, c)
}

func (h *CommentsREST) respond(req *chrome.Request, v any) (*chrome.Response, error) {
	enc := comment.Encoder{Links: req.Href}
	data, err := enc.Marshal(v)
	if err != nil {
		return nil, err
	}
	return chrome.Send(data, "application/json", http.StatusOK), nil
}
