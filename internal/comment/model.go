// Package comment provides the code comment domain model and data access.
package comment

import (
	"bytes"
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/russross/blackfriday/v2"
)

// Comment is a review comment anchored to a changeset, or to a file
// (optionally a line) at a revision.
type Comment struct {
	ID       int64
	Version  int
	Text     string
	Path     string // empty for changeset comments
	Revision string
	Line     int // 0 when not anchored to a line
	Author   string
	Time     time.Time
}

// Linker builds site URLs; *chrome.Href satisfies it.
type Linker interface {
	With(query url.Values, parts ...string) string
}

// IsChangesetComment reports whether the comment is on a whole changeset.
func (c *Comment) IsChangesetComment() bool {
	return c.Path == ""
}

// TracLink returns the tracker link target for the comment's anchor,
// e.g. "changeset:abc123" or "source:src/main.go@abc123#L12".
func (c *Comment) TracLink() string {
	if c.IsChangesetComment() {
		return "changeset:" + c.Revision
	}
	link := "source:" + c.Path + "@" + c.Revision
	if c.Line > 0 {
		link += "#L" + strconv.Itoa(c.Line)
	}
	return link
}

// PathRevisionLine returns "path@revision:line", omitting empty parts.
func (c *Comment) PathRevisionLine() string {
	if c.IsChangesetComment() {
		return c.Revision
	}
	s := c.Path + "@" + c.Revision
	if c.Line > 0 {
		s += ":" + strconv.Itoa(c.Line)
	}
	return s
}

// Permalink returns the page the comment is shown on, with the comment active.
func (c *Comment) Permalink(l Linker) string {
	id := strconv.FormatInt(c.ID, 10)
	if c.IsChangesetComment() {
		return l.With(url.Values{"codecomment": {id}}, "changeset", c.Revision)
	}
	return l.With(url.Values{"codecomment": {id}, "rev": {c.Revision}}, "browser", c.Path)
}

// FormattedDate returns the creation time for display.
func (c *Comment) FormattedDate() string {
	return c.Time.Local().Format("02 Jan 2006, 15:04")
}

// HTML renders the comment text as Markdown. Raw HTML in the text is dropped.
func (c *Comment) HTML() template.HTML {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.SkipHTML | blackfriday.Safelink | blackfriday.NofollowLinks,
	})
	out := blackfriday.Run([]byte(c.Text),
		blackfriday.WithRenderer(renderer),
		blackfriday.WithExtensions(blackfriday.CommonExtensions),
	)
	return template.HTML(bytes.TrimSpace(out))
}
