package chrome

import "net/http"

type responseKind int

const (
	kindRender responseKind = iota
	kindSend
	kindRedirect
)

// Data is the template data of a rendered page.
type Data map[string]any

// Response is what a handler produces: a template render, a raw body or a redirect.
type Response struct {
	Template    string
	Data        Data
	ContentType string

	kind     responseKind
	status   int
	body     []byte
	location string
}

// Render renders the named template. data may be nil.
func Render(template string, data Data) *Response {
	return &Response{Template: template, Data: data, kind: kindRender, status: http.StatusOK}
}

// Send writes body verbatim.
func Send(body []byte, contentType string, status int) *Response {
	return &Response{ContentType: contentType, kind: kindSend, status: status, body: body}
}

// Redirect sends the client to url with 303 See Other.
func Redirect(url string) *Response {
	return &Response{kind: kindRedirect, status: http.StatusSeeOther, location: url}
}

// IsRender reports whether this is a template response.
func (r *Response) IsRender() bool { return r.kind == kindRender }

// IsRedirect reports whether this is a redirect.
func (r *Response) IsRedirect() bool { return r.kind == kindRedirect }

// Location returns the redirect target.
func (r *Response) Location() string { return r.location }

// Body returns the raw body of a Send response.
func (r *Response) Body() []byte { return r.body }

// Status returns the HTTP status code.
func (r *Response) Status() int { return r.status }
