package chrome

import (
	"net/url"
	"strings"
)

// HrefConfig configures URL generation.
type HrefConfig struct {
	Base         string // path prefix the service is mounted under, e.g. "/tracker"
	NewTicketURL string // new-ticket page of the issue tracker; defaults to <base>/newticket
	WikiURL      string // wiki root; defaults to <base>/wiki
}

// Href builds site URLs relative to the configured base path.
type Href struct {
	base      string
	newTicket string
	wiki      string
}

// NewHref creates a URL builder.
func NewHref(cfg HrefConfig) *Href {
	base := strings.TrimRight(cfg.Base, "/")
	h := &Href{base: base, newTicket: cfg.NewTicketURL, wiki: strings.TrimRight(cfg.WikiURL, "/")}
	if h.newTicket == "" {
		h.newTicket = base + "/newticket"
	}
	if h.wiki == "" {
		h.wiki = base + "/wiki"
	}
	return h
}

// Base returns the base path ("" when mounted at the root).
func (h *Href) Base() string {
	return h.base
}

// Path joins parts below the base. Slashes inside a part are kept so
// repository paths can be passed whole.
func (h *Href) Path(parts ...string) string {
	var sb strings.Builder
	sb.WriteString(h.base)
	for _, p := range parts {
		for _, seg := range strings.Split(strings.Trim(p, "/"), "/") {
			if seg == "" {
				continue
			}
			sb.WriteByte('/')
			sb.WriteString(url.PathEscape(seg))
		}
	}
	if sb.Len() == 0 {
		return "/"
	}
	return sb.String()
}

// With is Path plus an encoded query string.
func (h *Href) With(query url.Values, parts ...string) string {
	p := h.Path(parts...)
	if len(query) == 0 {
		return p
	}
	return p + "?" + query.Encode()
}

// Wiki returns the URL of a wiki page.
func (h *Href) Wiki(page string) string {
	return h.wiki + "/" + url.PathEscape(page)
}

// NewTicket returns the ticket creation URL with the description pre-filled.
func (h *Href) NewTicket(description string) string {
	sep := "?"
	if strings.Contains(h.newTicket, "?") {
		sep = "&"
	}
	return h.newTicket + sep + url.Values{"description": {description}}.Encode()
}

// Chrome returns the URL of a static resource such as "code-comments/code-comments.css".
func (h *Href) Chrome(resource string) string {
	if strings.HasPrefix(resource, "/") || strings.Contains(resource, "://") {
		return resource
	}
	return h.Path("chrome", resource)
}
