// Package discover locates question metadata files in a course repository.
package discover

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/plimage/pkg/ignore"
	"github.com/fulmenhq/plimage/pkg/ledger"
	"github.com/fulmenhq/plimage/pkg/logger"
	"github.com/fulmenhq/plimage/pkg/safeio"
)

// Options configures discovery.
type Options struct {
	Root         string
	QuestionsDir string
	MetadataFile string
	// Exclude holds doublestar patterns matched against slash paths
	// relative to Root, e.g. "questions/drafts/**".
	Exclude []string
	// RespectIgnore skips files matched by the repository's .gitignore or
	// .plimageignore. Off by default so every metadata file is visited.
	RespectIgnore bool
}

// Discoverer enumerates candidate metadata files. It never modifies anything
// on disk.
type Discoverer struct {
	opts    Options
	matcher *ignore.Matcher
}

// New validates the exclude patterns and prepares the ignore matcher.
func New(opts Options) (*Discoverer, error) {
	for _, pat := range opts.Exclude {
		if !doublestar.ValidatePattern(filepath.ToSlash(pat)) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pat)
		}
	}

	d := &Discoverer{opts: opts}
	if opts.RespectIgnore {
		m, err := ignore.NewMatcher(opts.Root)
		if err != nil {
			logger.Warn(fmt.Sprintf("Failed to initialize ignore matcher: %v", err))
		} else {
			d.matcher = m
		}
	}
	return d, nil
}

// QuestionsPath returns the directory holding all questions.
func (d *Discoverer) QuestionsPath() string {
	return filepath.Join(d.opts.Root, d.opts.QuestionsDir)
}

// Find returns the metadata files to process. With a question folder it
// resolves that single file, recording a FileNotFound message in l when it is
// missing. Otherwise it scans the whole questions tree.
func (d *Discoverer) Find(questionFolder string, l *ledger.Ledger) ([]string, error) {
	if questionFolder != "" {
		return d.scoped(questionFolder, l), nil
	}
	return d.all()
}

func (d *Discoverer) scoped(questionFolder string, l *ledger.Ledger) []string {
	folder := filepath.Join(d.QuestionsPath(), filepath.FromSlash(questionFolder))
	file := filepath.Join(folder, d.opts.MetadataFile)
	if !safeio.IsRegularFile(file) {
		l.Addf(ledger.FileNotFound, "No %s found in the specified question folder: %s", d.opts.MetadataFile, folder)
		return nil
	}
	return []string{file}
}

func (d *Discoverer) all() ([]string, error) {
	questions := d.QuestionsPath()
	if !safeio.IsDir(questions) {
		logger.Warn("Questions directory not found; nothing to scan", logger.String("path", questions))
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(questions), "**/"+d.opts.MetadataFile, doublestar.WithFilesOnly(), doublestar.WithNoFollow())
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", questions, err)
	}
	sort.Strings(matches)

	files := make([]string, 0, len(matches))
	for _, rel := range matches {
		repoRel := path.Join(filepath.ToSlash(d.opts.QuestionsDir), rel)
		full := filepath.Join(questions, filepath.FromSlash(rel))

		if d.excluded(repoRel) {
			logger.Debug("Skipping excluded metadata file", logger.String("path", repoRel))
			continue
		}
		if d.matcher != nil && d.matcher.IsIgnored(full) {
			logger.Debug("Skipping ignored metadata file", logger.String("path", repoRel))
			continue
		}
		files = append(files, full)
	}

	logger.Debug(fmt.Sprintf("Discovered %d metadata file(s)", len(files)), logger.String("root", questions))
	return files, nil
}

func (d *Discoverer) excluded(repoRel string) bool {
	for _, pat := range d.opts.Exclude {
		if ok, _ := doublestar.Match(filepath.ToSlash(pat), repoRel); ok {
			return true
		}
	}
	return false
}
