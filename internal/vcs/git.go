package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Git reads a local git repository through the git CLI.
type Git struct {
	dir  string
	name string
}

// NewGit opens the repository in dir. An empty name defaults to the
// directory's base name.
func NewGit(dir, name string) *Git {
	if name == "" {
		if abs, err := filepath.Abs(dir); err == nil {
			name = filepath.Base(abs)
		}
	}
	return &Git{dir: dir, name: name}
}

// Name returns the repository's display name.
func (g *Git) Name() string {
	return g.name
}

// Resolve expands rev to a full commit hash.
func (g *Git) Resolve(ctx context.Context, rev string) (string, error) {
	if rev == "" {
		rev = "HEAD"
	}
	if strings.HasPrefix(rev, "-") {
		return "", fmt.Errorf("invalid revision %q: must not start with -", rev)
	}
	out, err := g.run(ctx, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil {
		return "", &NotFoundError{What: "revision " + rev}
	}
	return strings.TrimSpace(string(out)), nil
}

// Changeset returns the commit rev with its per-file diffs.
func (g *Git) Changeset(ctx context.Context, rev string) (*Changeset, error) {
	hash, err := g.Resolve(ctx, rev)
	if err != nil {
		return nil, err
	}

	out, err := g.run(ctx, "show", "-s", "--format=%an%x00%at%x00%B", hash)
	if err != nil {
		return nil, err
	}
	fields := strings.SplitN(string(out), "\x00", 3)
	if len(fields) != 3 {
		return nil, fmt.Errorf("unexpected git show output for %s", hash)
	}
	unix, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing commit time: %w", err)
	}

	patch, err := g.run(ctx, "show", "--format=", "--no-color", "--no-ext-diff", hash)
	if err != nil {
		return nil, err
	}

	return &Changeset{
		Rev:     hash,
		Author:  fields[0],
		Date:    time.Unix(unix, 0),
		Message: strings.TrimSpace(fields[2]),
		Files:   parsePatch(string(patch)),
	}, nil
}

// parsePatch splits unified diff output into one FileDiff per file.
func parsePatch(patch string) []FileDiff {
	var files []FileDiff
	for _, block := range strings.Split(patch, "diff --git ") {
		if strings.TrimSpace(block) == "" {
			continue
		}
		header, _, _ := strings.Cut(block, "\n")
		f := FileDiff{Status: "M", Diff: "diff --git " + strings.TrimRight(block, "\n")}
		if i := strings.LastIndex(header, " b/"); i >= 0 {
			f.Path = header[i+len(" b/"):]
		}
		switch {
		case strings.Contains(block, "\nnew file mode"):
			f.Status = "A"
		case strings.Contains(block, "\ndeleted file mode"):
			f.Status = "D"
		}
		files = append(files, f)
	}
	return files
}

// Node returns the file or directory at p in rev.
func (g *Git) Node(ctx context.Context, p, rev string) (*Node, error) {
	hash, err := g.Resolve(ctx, rev)
	if err != nil {
		return nil, err
	}

	p = strings.Trim(path.Clean("/"+p), "/")
	object := hash + ":" + p

	kind, err := g.run(ctx, "cat-file", "-t", object)
	if err != nil {
		return nil, &NotFoundError{What: "path " + p + " at " + rev}
	}

	node := &Node{Path: p, Rev: hash}
	switch strings.TrimSpace(string(kind)) {
	case "tree":
		node.Dir = true
		out, err := g.run(ctx, "ls-tree", object)
		if err != nil {
			return nil, err
		}
		node.Entries = parseTree(p, string(out))
	case "blob":
		out, err := g.run(ctx, "cat-file", "blob", object)
		if err != nil {
			return nil, err
		}
		text := strings.TrimSuffix(string(out), "\n")
		if text != "" {
			node.Lines = strings.Split(text, "\n")
		}
	default:
		return nil, &NotFoundError{What: "path " + p + " at " + rev}
	}
	return node, nil
}

// parseTree reads "<mode> <type> <object>\t<name>" lines from git ls-tree.
func parseTree(dir, out string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(out, "\n") {
		meta, name, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		parts := strings.Fields(meta)
		if len(parts) < 2 {
			continue
		}
		entries = append(entries, Entry{
			Name: name,
			Path: strings.TrimPrefix(path.Join(dir, name), "/"),
			Dir:  parts[1] == "tree",
		})
	}
	return entries
}

func (g *Git) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("git %s: %s", args[0], msg)
		}
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return out, nil
}
