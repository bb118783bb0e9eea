package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/evcraddock/code-comments/internal/auth"
	"github.com/evcraddock/code-comments/internal/comment"
	"github.com/evcraddock/code-comments/internal/db"
)

// testDB creates a migrated database and returns its path and a handle.
func testDB(t *testing.T) (string, *sql.DB) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

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
	return path, d
}

func TestUserCommands(t *testing.T) {
	path, d := testDB(t)

	if _, err := executeCommand("user", "add", "alice", "--email", "Alice@Example.com", "--db", path); err != nil {
		t.Fatalf("user add: %v", err)
	}
	if _, err := executeCommand("user", "admin", "alice", "--db", path); err != nil {
		t.Fatalf("user admin: %v", err)
	}

	users := auth.NewUserStore(d, nil)
	if !users.IsAdmin("alice") {
		t.Error("alice should be an administrator")
	}

	if _, err := executeCommand("user", "admin", "alice", "--revoke", "--db", path); err != nil {
		t.Fatalf("user admin --revoke: %v", err)
	}
	if users.IsAdmin("alice") {
		t.Error("alice should no longer be an administrator")
	}

	list, err := users.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Email != "alice@example.com" {
		t.Fatalf("users = %+v", list)
	}

	if _, err := executeCommand("user", "remove", strconv.FormatInt(list[0].ID, 10), "--db", path); err != nil {
		t.Fatalf("user remove: %v", err)
	}
	if list, _ = users.List(); len(list) != 0 {
		t.Errorf("users after remove = %+v", list)
	}
}

func TestUserAddDuplicate(t *testing.T) {
	path, _ := testDB(t)

	if _, err := executeCommand("user", "add", "bob", "--db", path); err != nil {
		t.Fatalf("user add: %v", err)
	}
	if _, err := executeCommand("user", "add", "bob", "--db", path); err == nil {
		t.Error("expected error adding an existing user")
	}
}

func TestKeyCommands(t *testing.T) {
	path, d := testDB(t)

	if _, err := executeCommand("key", "create", "laptop", "--user", "alice", "--db", path); err != nil {
		t.Fatalf("key create: %v", err)
	}

	keys := auth.NewAPIKeyStore(d)
	list, err := keys.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "laptop" || list[0].Username != "alice" {
		t.Fatalf("keys = %+v", list)
	}

	if _, err := executeCommand("key", "list", "--db", path); err != nil {
		t.Fatalf("key list: %v", err)
	}

	if _, err := executeCommand("key", "revoke", strconv.FormatInt(list[0].ID, 10), "--db", path); err != nil {
		t.Fatalf("key revoke: %v", err)
	}
	if list, _ = keys.List(); len(list) != 0 {
		t.Errorf("keys after revoke = %+v", list)
	}
}

func TestDeleteCommand(t *testing.T) {
	path, d := testDB(t)
	repo := comment.NewRepository(d)
	ctx := context.Background()

	id, err := repo.Create(ctx, comment.CreateRequest{Text: "remove me", Author: "alice", Revision: "r1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := executeCommand("delete", strconv.FormatInt(id, 10), "--db", path); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.ByID(ctx, strconv.FormatInt(id, 10)); !errors.Is(err, comment.ErrNotFound) {
		t.Errorf("ByID after delete err = %v, want ErrNotFound", err)
	}

	if _, err := executeCommand("delete", strconv.FormatInt(id, 10), "--db", path); err == nil {
		t.Error("expected error deleting a missing comment")
	}
}

func TestListSendsFilters(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"text":"hi","path":"a.go","revision":"r1","line":4,"author":"alice"}]`))
	}))
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("CODECOMMENTS_SERVER_URL", srv.URL)

	if _, err := executeCommand("list", "revision=r1", "line__gt=3", "author__in=alice,bob"); err != nil {
		t.Fatalf("list: %v", err)
	}

	want := url.Values{"revision": {"r1"}, "line__gt": {"3"}, "author__in": {"alice,bob"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}
}

func TestAddPostsComment(t *testing.T) {
	var got comment.CreateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":9,"text":"nice work","path":"a.go","revision":"r1","line":3,"author":"alice"}`))
	}))
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("CODECOMMENTS_SERVER_URL", srv.URL)

	if _, err := executeCommand("add", "--revision", "r1", "--path", "a.go", "--line", "3", "nice", "work"); err != nil {
		t.Fatalf("add: %v", err)
	}

	want := comment.CreateRequest{Text: "nice work", Path: "a.go", Revision: "r1", Line: 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestBundleCommand(t *testing.T) {
	var ids string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = r.URL.Query().Get("ids")
		http.Redirect(w, r, "/newticket?description=x", http.StatusSeeOther)
	}))
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("CODECOMMENTS_SERVER_URL", srv.URL)

	if _, err := executeCommand("bundle", "4", "2"); err != nil {
		t.Fatalf("bundle: %v", err)
	}
	if ids != "4,2" {
		t.Errorf("ids = %q, want 4,2", ids)
	}
}

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    url.Values
		wantErr bool
	}{
		{"none", nil, url.Values{}, false},
		{"empty value", []string{"path="}, url.Values{"path": {""}}, false},
		{"value with equals", []string{"text=a=b"}, url.Values{"text": {"a=b"}}, false},
		{"repeated", []string{"id=1", "id=2"}, url.Values{"id": {"1", "2"}}, false},
		{"missing equals", []string{"path"}, nil, true},
		{"missing key", []string{"=x"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilters(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("filters mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
