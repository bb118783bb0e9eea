package codecomments

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/evcraddock/code-comments/internal/chrome"
)

// jsTemplates are the client-side templates shipped to source pages.
var jsTemplates = []string{"top-comments-block", "top-comment", "side-comment", "add-comment-dialog"}

// JSDataForRequests exposes the comment UI configuration to changeset and
// browser pages, and includes the scripts that render it.
type JSDataForRequests struct {
	base
}

// PreProcessRequest implements chrome.RequestFilter.
func (f *JSDataForRequests) PreProcessRequest(_ *chrome.Request, handler chrome.RequestHandler) chrome.RequestHandler {
	return handler
}

// PostProcessRequest implements chrome.RequestFilter. Pages other than
// changesets and the browser are returned unchanged.
func (f *JSDataForRequests) PostProcessRequest(req *chrome.Request, resp *chrome.Response) (*chrome.Response, error) {
	if resp.Data == nil {
		return resp, nil
	}

	var page map[string]any
	switch {
	case strings.HasPrefix(req.PathInfo, "/changeset/"):
		page = changesetJSData(resp.Data)
	case strings.HasPrefix(req.PathInfo, "/browser"):
		page = browserJSData(resp.Data)
	default:
		return resp, nil
	}

	templates, err := f.templatesJSData()
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"formatting_help_url": f.formattingHelpURL(req),
		"delete_url":          req.Href.Path(f.path("delete")...),
		"templates":           templates,
		"active_comment_id":   activeCommentID(req),
		"username":            req.Authname,
		"is_admin":            req.Perm.Has(chrome.PermAdmin),
	}
	for k, v := range page {
		data[k] = v
	}

	req.AddScript(BasePath + "/json2.js")
	req.AddScript(BasePath + "/underscore-min.js")
	req.AddScript(BasePath + "/backbone-min.js")
	req.AddScript(BasePath + "/jquery-ui/jquery-ui.js")
	req.AddStylesheet(BasePath + "/jquery-ui/trac-theme.css")
	req.AddScript(BasePath + "/code-comments.js")
	req.AddScriptData(map[string]any{"CodeComments": data})

	return resp, nil
}

func (f *JSDataForRequests) formattingHelpURL(req *chrome.Request) string {
	if f.cfg.FormattingHelpURL != "" {
		return f.cfg.FormattingHelpURL
	}
	return req.Href.Wiki("WikiFormatting")
}

// templatesJSData maps each client template name, with dashes replaced by
// underscores so it is a valid JS identifier, to its source.
func (f *JSDataForRequests) templatesJSData() (map[string]string, error) {
	out := make(map[string]string, len(jsTemplates))
	for _, name := range jsTemplates {
		text, err := f.templateJSData(name)
		if err != nil {
			return nil, err
		}
		out[strings.ReplaceAll(name, "-", "_")] = text
	}
	return out, nil
}

func (f *JSDataForRequests) templateJSData(name string) (string, error) {
	b, err := fs.ReadFile(f.templates, path.Join("js", name+".html"))
	if err != nil {
		return "", fmt.Errorf("reading client template %s: %w", name, err)
	}
	return string(b), nil
}

// activeCommentID is the codecomment argument, or nil when absent.
func activeCommentID(req *chrome.Request) any {
	if v, ok := req.Args["codecomment"]; ok && len(v) > 0 {
		return v[0]
	}
	return nil
}

func changesetJSData(data chrome.Data) map[string]any {
	return map[string]any{
		"page":                   "changeset",
		"revision":               data["new_rev"],
		"path":                   "",
		"selectorToInsertBefore": "div.diff:first",
	}
}

func browserJSData(data chrome.Data) map[string]any {
	return map[string]any{
		"page":                   "browser",
		"revision":               data["rev"],
		"path":                   data["path"],
		"selectorToInsertBefore": "table#info",
	}
}
