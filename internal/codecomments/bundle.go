package codecomments

import (
	"fmt"
	"strings"

	"github.com/evcraddock/code-comments/internal/chrome"
)

// BundleCommentsRedirect collects comments into a new ticket description
// and redirects to the ticket form.
type BundleCommentsRedirect struct {
	base
}

// MatchRequest implements chrome.RequestHandler.
func (h *BundleCommentsRedirect) MatchRequest(req *chrome.Request) bool {
	return req.PathInfo == "/"+BasePath+"/bundle"
}

// ProcessRequest implements chrome.RequestHandler. ids is a comma
// separated list; repeated ids arguments are joined first. Blocks follow
// the order of the ids.
func (h *BundleCommentsRedirect) ProcessRequest(req *chrome.Request) (*chrome.Response, error) {
	ids := strings.Join(req.Args["ids"], ",")

	var sb strings.Builder
	for _, id := range strings.Split(ids, ",") {
		c, err := h.store.ByID(req.Context(), strings.TrimSpace(id))
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&sb, "[%s %s]\n%s\n\n", c.TracLink(), c.PathRevisionLine(), c.Text)
	}

	return chrome.Redirect(req.Href.NewTicket(sb.String())), nil
}
