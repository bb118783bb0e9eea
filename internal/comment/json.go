package comment

import (
	"encoding/json"
	"fmt"
	"time"
)

// JSON is the wire representation of a comment.
type JSON struct {
	ID            int64  `json:"id"`
	Version       int    `json:"version"`
	Text          string `json:"text"`
	Path          string `json:"path"`
	Revision      string `json:"revision"`
	Line          int    `json:"line"`
	Author        string `json:"author"`
	Time          int64  `json:"time"`
	Permalink     string `json:"permalink"`
	FormattedDate string `json:"formatted_date"`
	HTML          string `json:"html"`
}

// Encoder serializes comments, adding the derived permalink, date and HTML.
type Encoder struct {
	Links Linker
}

// View returns the wire representation of c.
func (e Encoder) View(c *Comment) JSON {
	return JSON{
		ID:            c.ID,
		Version:       c.Version,
		Text:          c.Text,
		Path:          c.Path,
		Revision:      c.Revision,
		Line:          c.Line,
		Author:        c.Author,
		Time:          c.Time.Unix(),
		Permalink:     c.Permalink(e.Links),
		FormattedDate: c.FormattedDate(),
		HTML:          string(c.HTML()),
	}
}

// Marshal encodes a *Comment or a []*Comment.
func (e Encoder) Marshal(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case *Comment:
		return json.Marshal(e.View(t))
	case []*Comment:
		views := make([]JSON, 0, len(t))
		for _, c := range t {
			views = append(views, e.View(c))
		}
		return json.Marshal(views)
	default:
		return nil, fmt.Errorf("cannot encode %T as comment JSON", v)
	}
}

// Comment converts the wire form back into a Comment. Derived fields are
// dropped.
func (j JSON) Comment() *Comment {
	return &Comment{
		ID:       j.ID,
		Version:  j.Version,
		Text:     j.Text,
		Path:     j.Path,
		Revision: j.Revision,
		Line:     j.Line,
		Author:   j.Author,
		Time:     time.Unix(j.Time, 0),
	}
}
