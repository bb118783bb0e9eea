package comment

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/evcraddock/code-comments/internal/db"
)

type recordingListener struct {
	created []*Comment
}

func (l *recordingListener) CommentCreated(_ context.Context, c *Comment) {
	l.created = append(l.created, c)
}

func TestCreateAndByID(t *testing.T) {
	repo := testSetup(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, CreateRequest{
		Text:     "Check the error here",
		Author:   "alice",
		Path:     "/src/main.go",
		Revision: "abc123",
		Line:     42,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero ID")
	}

	got, err := repo.ByID(ctx, strconv.FormatInt(id, 10))
	if err != nil {
		t.Fatalf("by id: %v", err)
	}

	want := &Comment{
		ID:       id,
		Version:  1,
		Text:     "Check the error here",
		Path:     "src/main.go",
		Revision: "abc123",
		Line:     42,
		Author:   "alice",
		Time:     time.Unix(1700000000, 0).UTC(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("comment mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		req    CreateRequest
		fields []string
	}{
		{"missing text", CreateRequest{Author: "alice", Revision: "r1"}, []string{"text"}},
		{"whitespace text", CreateRequest{Text: "   ", Author: "alice", Revision: "r1"}, []string{"text"}},
		{"missing author", CreateRequest{Text: "hi", Revision: "r1"}, []string{"author"}},
		{"missing revision", CreateRequest{Text: "hi", Author: "alice"}, []string{"revision"}},
		{"negative line", CreateRequest{Text: "hi", Author: "alice", Revision: "r1", Line: -3}, []string{"line"}},
		{"everything missing", CreateRequest{}, []string{"author", "revision", "text"}},
	}

	repo := testSetup(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(context.Background(), tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if got := sortedKeys(verr.Fields); !cmp.Equal(got, tt.fields) {
				t.Errorf("fields = %v, want %v", got, tt.fields)
			}
		})
	}
}

func TestByIDNotFound(t *testing.T) {
	repo := testSetup(t)

	for _, id := range []string{"9999", "abc", ""} {
		_, err := repo.ByID(context.Background(), id)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("ByID(%q) err = %v, want ErrNotFound", id, err)
		}
	}
}

func TestAllOldestFirst(t *testing.T) {
	repo := testSetup(t)

	texts := []string{"first", "second", "third"}
	for i, text := range texts {
		repo.now = fixedClock(int64(1700000000 + i))
		createComment(t, repo, CreateRequest{Text: text, Author: "bob", Revision: "r1"})
	}

	comments, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("got %d comments, want 3", len(comments))
	}
	for i, text := range texts {
		if comments[i].Text != text {
			t.Errorf("comments[%d] = %q, want %q", i, comments[i].Text, text)
		}
	}
}

func TestAllEmpty(t *testing.T) {
	repo := testSetup(t)

	comments, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if comments == nil || len(comments) != 0 {
		t.Errorf("got %v, want empty non-nil slice", comments)
	}
}

func TestSearch(t *testing.T) {
	repo := testSetup(t)
	createComment(t, repo, CreateRequest{Text: "changeset note", Author: "alice", Revision: "r1"})
	createComment(t, repo, CreateRequest{Text: "file note", Author: "bob", Path: "src/a.go", Revision: "r1", Line: 3})
	createComment(t, repo, CreateRequest{Text: "later line", Author: "bob", Path: "src/a.go", Revision: "r1", Line: 30})
	createComment(t, repo, CreateRequest{Text: "other file", Author: "carol", Path: "docs/readme.md", Revision: "r2", Line: 1})

	tests := []struct {
		name  string
		args  url.Values
		texts []string
	}{
		{"no filters", url.Values{}, []string{"changeset note", "file note", "later line", "other file"}},
		{"unknown args ignored", url.Values{"codecomment": {"7"}, "_": {"123"}}, []string{"changeset note", "file note", "later line", "other file"}},
		{"path equality", url.Values{"path": {"src/a.go"}}, []string{"file note", "later line"}},
		{"changeset comments", url.Values{"path": {""}, "revision": {"r1"}}, []string{"changeset note"}},
		{"line greater than", url.Values{"path": {"src/a.go"}, "line__gt": {"10"}}, []string{"later line"}},
		{"line lte", url.Values{"line__lte": {"3"}, "line__gte": {"1"}}, []string{"file note", "other file"}},
		{"author in", url.Values{"author__in": {"alice,carol"}}, []string{"changeset note", "other file"}},
		{"author ne", url.Values{"author__ne": {"bob"}}, []string{"changeset note", "other file"}},
		{"path prefix", url.Values{"path__prefix": {"src/"}}, []string{"file note", "later line"}},
		{"unknown operator ignored", url.Values{"line__between": {"1"}}, []string{"changeset note", "file note", "later line", "other file"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comments, err := repo.Search(context.Background(), tt.args)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			var got []string
			for _, c := range comments {
				got = append(got, c.Text)
			}
			if diff := cmp.Diff(tt.texts, got); diff != "" {
				t.Errorf("texts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearchInvalidIntFilter(t *testing.T) {
	repo := testSetup(t)

	if _, err := repo.Search(context.Background(), url.Values{"line": {"ten"}}); err == nil {
		t.Fatal("expected error for non-numeric line filter")
	}
}

func TestDelete(t *testing.T) {
	repo := testSetup(t)
	ctx := context.Background()
	id := createComment(t, repo, CreateRequest{Text: "to delete", Author: "alice", Revision: "r1"})

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.ByID(ctx, strconv.FormatInt(id, 10)); !errors.Is(err, ErrNotFound) {
		t.Errorf("ByID after delete err = %v, want ErrNotFound", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	repo := testSetup(t)

	err := repo.Delete(context.Background(), 9999)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
	if !nf.NotFound() {
		t.Error("NotFound() = false, want true")
	}
}

func TestCreateNotifiesListeners(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	l := &recordingListener{}
	repo := NewRepository(d, l)
	id := createComment(t, repo, CreateRequest{Text: "notify me", Author: "alice", Revision: "r9"})

	if len(l.created) != 1 {
		t.Fatalf("listener called %d times, want 1", len(l.created))
	}
	if l.created[0].ID != id || l.created[0].Text != "notify me" {
		t.Errorf("listener got %+v", l.created[0])
	}
}

func testSetup(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	repo := NewRepository(d)
	repo.now = fixedClock(1700000000)
	return repo
}

func createComment(t *testing.T, repo *Repository, req CreateRequest) int64 {
	t.Helper()
	id, err := repo.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create %q: %v", req.Text, err)
	}
	return id
}

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}
