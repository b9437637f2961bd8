// Package report renders the outcome ledger to the console and, on request,
// to a plain-text log file.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/plimage/internal/invocation"
	"github.com/fulmenhq/plimage/pkg/ledger"
	"github.com/fulmenhq/plimage/pkg/logger"
	"github.com/fulmenhq/plimage/pkg/safeio"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultLogFile is written when file output is requested without a path.
const DefaultLogFile = "output_log.txt"

// Options configures a Reporter.
type Options struct {
	Destination invocation.LogDestination
	// Format is one of the invocation.Format* values and only
	// affects console output. The log file is always plain text.
	Format string
	// DefaultFile overrides DefaultLogFile.
	DefaultFile string
	// WorkDir receives the default log file, the fallback log file and
	// resolves relative log paths. Empty means the process working directory.
	WorkDir string
	Out     io.Writer
	// ErrOut receives the change summary and log file notices when Out
	// carries a structured document. Defaults to os.Stderr.
	ErrOut io.Writer
}

// Reporter prints the end-of-run report.
type Reporter struct {
	opts Options
}

// New returns a reporter. Out defaults to os.Stdout.
func New(opts Options) *Reporter {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}
	if opts.DefaultFile == "" {
		opts.DefaultFile = DefaultLogFile
	}
	if opts.Format == "" {
		opts.Format = invocation.FormatText
	}
	return &Reporter{opts: opts}
}

// Document is the structured form of a report.
type Document struct {
	Changed    int        `json:"changed" yaml:"changed" toml:"changed"`
	Categories []Category `json:"categories" yaml:"categories" toml:"categories"`
}

// Category groups the messages recorded under one label.
type Category struct {
	Name     string   `json:"name" yaml:"name" toml:"name"`
	Messages []string `json:"messages" yaml:"messages" toml:"messages"`
}

// Build converts the ledger into a Document with categories in lexicographic
// order.
func Build(l *ledger.Ledger) Document {
	doc := Document{Categories: []Category{}, Changed: l.Count(ledger.Success)}
	for _, name := range l.Categories() {
		doc.Categories = append(doc.Categories, Category{Name: name, Messages: l.Messages(name)})
	}
	return doc
}

// Report prints the ledger and the change summary, then writes the log file
// when the destination asks for one. It returns the log file path written,
// or "" when none was.
func (r *Reporter) Report(l *ledger.Ledger) (string, error) {
	lines := l.Lines()
	changed := l.Count(ledger.Success)

	if r.structured() {
		if err := r.printStructured(Build(l)); err != nil {
			return "", err
		}
		r.status("")
		r.status(fmt.Sprintf("Changed %d file(s)", changed))
	} else {
		if r.opts.Destination.Console {
			for _, line := range lines {
				r.println(line)
			}
		}
		r.println("")
		r.println(fmt.Sprintf("Changed %d file(s)", changed))
	}

	if !r.opts.Destination.File {
		return "", nil
	}
	if len(lines) == 0 {
		r.status("Skipping log file due to empty output")
		return "", nil
	}

	path := r.logPath()
	data := []byte(strings.Join(lines, "\n") + "\n")
	if err := safeio.WriteFilePreservePerms(path, data); err != nil {
		logger.Error("Failed to write log file", logger.String("path", path), logger.Err(err))
		return "", fmt.Errorf("write log file %s: %w", path, err)
	}
	r.status(fmt.Sprintf("Log saved to: '%s'", path))
	return path, nil
}

// logPath picks the log file location. A user path whose parent directory is
// missing falls back to its base name in the work directory.
func (r *Reporter) logPath() string {
	userPath := r.opts.Destination.Path
	if userPath == "" {
		return r.inWorkDir(r.opts.DefaultFile)
	}

	parent := filepath.Dir(userPath)
	if parent != "." && !safeio.IsDir(r.resolve(parent)) {
		base := filepath.Base(userPath)
		r.status(fmt.Sprintf("Log Error: Could not find the directory '%s'. Saving log as '%s' in the current directory.", parent, base))
		return r.inWorkDir(base)
	}
	return r.resolve(userPath)
}

func (r *Reporter) resolve(p string) string {
	if filepath.IsAbs(p) || r.opts.WorkDir == "" {
		return p
	}
	return filepath.Join(r.opts.WorkDir, p)
}

func (r *Reporter) inWorkDir(name string) string {
	if r.opts.WorkDir == "" {
		return name
	}
	return filepath.Join(r.opts.WorkDir, name)
}

func (r *Reporter) printStructured(doc Document) error {
	var (
		out []byte
		err error
	)
	switch r.opts.Format {
	case invocation.FormatJSON:
		out, err = json.MarshalIndent(doc, "", "  ")
		if err == nil {
			out = append(out, '\n')
		}
	case invocation.FormatYAML:
		out, err = yaml.Marshal(doc)
	case invocation.FormatTOML:
		out, err = toml.Marshal(doc)
	default:
		return fmt.Errorf("unsupported report format %q", r.opts.Format)
	}
	if err != nil {
		return fmt.Errorf("render %s report: %w", r.opts.Format, err)
	}
	_, err = r.opts.Out.Write(out)
	return err
}

func (r *Reporter) structured() bool {
	return r.opts.Destination.Console && r.opts.Format != invocation.FormatText
}

// status prints summary and log file notices. Structured console output must
// stay parseable, so there they go to ErrOut.
func (r *Reporter) status(s string) {
	if r.structured() {
		_, _ = fmt.Fprintln(r.opts.ErrOut, s)
		return
	}
	r.println(s)
}

func (r *Reporter) println(s string) {
	_, _ = fmt.Fprintln(r.opts.Out, s)
}
