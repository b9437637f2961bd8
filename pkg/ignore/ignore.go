// Package ignore filters course repository paths using gitignore semantics.
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the repo-level override file read alongside .gitignore.
const FileName = ".plimageignore"

var defaultPatterns = []string{".git", "node_modules", ".ipynb_checkpoints"}

// Matcher answers ignore queries for paths under a single repository root.
type Matcher struct {
	root    string
	matcher gitignore.Matcher
}

// NewMatcher builds a matcher for repoRoot from, in increasing priority:
// built-in defaults, .gitignore files (and .git/info/exclude), then the
// repo's .plimageignore.
func NewMatcher(repoRoot string) (*Matcher, error) {
	root, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, p := range defaultPatterns {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}

	if gitPatterns, err := gitignore.ReadPatterns(osfs.New(root), nil); err == nil {
		patterns = append(patterns, gitPatterns...)
	}

	if lines, err := readIgnoreFile(filepath.Join(root, FileName)); err == nil {
		for _, line := range lines {
			patterns = append(patterns, gitignore.ParsePattern(line, nil))
		}
	}

	return &Matcher{root: root, matcher: gitignore.NewMatcher(patterns)}, nil
}

func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- fixed name under the repo root
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, nil
}

// IsIgnored reports whether the file at path is ignored.
func (m *Matcher) IsIgnored(path string) bool {
	return m.match(path, false)
}

// IsIgnoredDir reports whether the directory at path is ignored.
func (m *Matcher) IsIgnoredDir(path string) bool {
	return m.match(path, true)
}

func (m *Matcher) match(path string, isDir bool) bool {
	parts := m.split(path)
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, isDir)
}

// split turns path into components relative to the matcher root. Paths
// outside the root yield nil.
func (m *Matcher) split(path string) []string {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(m.root, path)
	}
	rel, err := filepath.Rel(m.root, abs)
	if err != nil {
		return nil
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return nil
	}

	var parts []string
	for _, part := range strings.Split(rel, "/") {
		if part != "" && part != "." {
			parts = append(parts, part)
		}
	}
	return parts
}
