// Package invocation turns raw command-line parameters into a validated,
// immutable description of one updater run.
package invocation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/plimage/pkg/metadata"
)

// Supported languages.
const (
	LanguageR      = "r"
	LanguagePython = "python"
)

// Supported image types.
const (
	ImageTypeWorkspace  = "workspace"
	ImageTypeAutograder = "autograder"
)

// Report formats for console output.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Log destinations accepted besides a log file path.
const (
	LogConsole = "console"
	LogFile    = "file"
	LogBoth    = "both"
)

// Params carries the raw flag values.
type Params struct {
	Repo           string
	QuestionFolder string
	Language       string
	Image          string
	ImageType      string
	Tag            string
	LogOutput      string
	ReportFormat   string
	DryRun         bool

	// Namespace is the required image name prefix, e.g. "ubcmds/".
	Namespace string
	// LogExtension is the suffix that marks LogOutput as a file path.
	LogExtension string
}

// Error is a configuration error: the run must not touch any file.
type Error struct {
	Flag   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid --%s: %s", e.Flag, e.Reason)
}

func invalid(flag, format string, args ...interface{}) *Error {
	return &Error{Flag: flag, Reason: fmt.Sprintf(format, args...)}
}

// LogDestination says where the report goes.
type LogDestination struct {
	Console bool
	File    bool
	// Path is the user-chosen log file, empty for the default name.
	Path string
}

// Invocation is the validated, read-only configuration of a run.
type Invocation struct {
	repo           string
	questionFolder string
	language       string
	image          string
	imageType      string
	tag            string
	log            LogDestination
	reportFormat   string
	dryRun         bool
}

// Resolve validates p and returns the run configuration. The first violated
// constraint is returned as *Error.
func Resolve(p Params) (*Invocation, error) {
	ext := p.LogExtension
	if ext == "" {
		ext = ".txt"
	}

	if strings.TrimSpace(p.Repo) == "" {
		return nil, invalid("pl-repo", "repository root is required")
	}
	if p.Language != LanguageR && p.Language != LanguagePython {
		return nil, invalid("language", "this tool does not support the language %q (use %q or %q)", p.Language, LanguageR, LanguagePython)
	}
	if strings.Contains(p.Image, ":") {
		return nil, invalid("image", "do not include the tag in the image; use --tag instead")
	}
	if !strings.HasSuffix(p.Image, "-"+p.Language) {
		return nil, invalid("image", "image %q does not match the language %q (expected suffix %q)", p.Image, p.Language, "-"+p.Language)
	}
	if p.Namespace != "" && !strings.HasPrefix(p.Image, p.Namespace) {
		return nil, invalid("image", "image %q must come from the %s repository (eg. %sbase-%s)", p.Image, strings.TrimSuffix(p.Namespace, "/"), p.Namespace, p.Language)
	}
	if p.Tag == "" {
		return nil, invalid("tag", "tag is required")
	}
	if strings.ContainsAny(p.Tag, ":/") {
		return nil, invalid("tag", "do not include the image in the tag; use --image instead")
	}
	if p.Tag == "latest" {
		return nil, invalid("tag", "the 'latest' tag is not allowed")
	}
	if p.ImageType != ImageTypeWorkspace && p.ImageType != ImageTypeAutograder {
		return nil, invalid("image-type", "this tool does not support the image type %q (use %q or %q)", p.ImageType, ImageTypeWorkspace, ImageTypeAutograder)
	}

	dest, err := parseLogOutput(p.LogOutput, ext)
	if err != nil {
		return nil, err
	}

	format := p.ReportFormat
	if format == "" {
		format = FormatText
	}
	switch format {
	case FormatText, FormatJSON, FormatYAML, FormatTOML:
	default:
		return nil, invalid("report-format", "unsupported format %q (use text, json, yaml or toml)", format)
	}

	if p.QuestionFolder != "" && (filepath.IsAbs(p.QuestionFolder) || containsDotDot(p.QuestionFolder)) {
		return nil, invalid("question-folder", "%q must be a folder name relative to the questions directory", p.QuestionFolder)
	}

	return &Invocation{
		repo:           p.Repo,
		questionFolder: strings.Trim(filepath.ToSlash(p.QuestionFolder), "/"),
		language:       p.Language,
		image:          p.Image,
		imageType:      p.ImageType,
		tag:            p.Tag,
		log:            dest,
		reportFormat:   format,
		dryRun:         p.DryRun,
	}, nil
}

func parseLogOutput(s, ext string) (LogDestination, error) {
	switch s {
	case "", LogConsole:
		return LogDestination{Console: true}, nil
	case LogFile:
		return LogDestination{File: true}, nil
	case LogBoth:
		return LogDestination{Console: true, File: true}, nil
	}
	if strings.HasSuffix(s, ext) && len(s) > len(ext) {
		return LogDestination{File: true, Path: s}, nil
	}
	return LogDestination{}, invalid("log-output", "must be 'console', 'both', 'file' or end in '%s', got %q", ext, s)
}

func containsDotDot(p string) bool {
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

// Repo returns the repository root.
func (i *Invocation) Repo() string { return i.repo }

// QuestionFolder returns the scoped question folder, or "" for a full scan.
func (i *Invocation) QuestionFolder() string { return i.questionFolder }

// Scoped reports whether the run targets a single question.
func (i *Invocation) Scoped() bool { return i.questionFolder != "" }

// Language returns the image language, "r" or "python".
func (i *Invocation) Language() string { return i.language }

// Image returns the image name without a tag.
func (i *Invocation) Image() string { return i.image }

// ImageType returns "workspace" or "autograder".
func (i *Invocation) ImageType() string { return i.imageType }

// Tag returns the requested image tag.
func (i *Invocation) Tag() string { return i.tag }

// Log returns the report destination.
func (i *Invocation) Log() LogDestination { return i.log }

// ReportFormat returns the console report format.
func (i *Invocation) ReportFormat() string { return i.reportFormat }

// DryRun reports whether files should be left untouched.
func (i *Invocation) DryRun() bool { return i.dryRun }

// Target returns the fully qualified image, "<image>:<tag>".
func (i *Invocation) Target() string { return i.image + ":" + i.tag }

// OptionKey returns the metadata key holding the image for the image type.
func (i *Invocation) OptionKey() string {
	if i.imageType == ImageTypeAutograder {
		return metadata.ExternalGradingOptionsKey
	}
	return metadata.WorkspaceOptionsKey
}
