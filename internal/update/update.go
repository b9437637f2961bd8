// Package update validates question metadata against a requested image and
// rewrites the image reference when the record is eligible.
package update

import (
	"context"
	"fmt"
	"strings"

	"github.com/fulmenhq/plimage/internal/invocation"
	"github.com/fulmenhq/plimage/pkg/ledger"
	"github.com/fulmenhq/plimage/pkg/logger"
	"github.com/fulmenhq/plimage/pkg/metadata"
)

// Options holds the settings the processor needs besides the invocation.
type Options struct {
	// Indent used when writing metadata files back.
	Indent string
	// LegacyImagePrefix marks images such as "prairielearn/grader-python"
	// that carry the language without a "-<language>:" tag separator.
	LegacyImagePrefix string
}

// Processor runs the validate-then-update sequence for each metadata file,
// recording every outcome in its ledger.
type Processor struct {
	inv    *invocation.Invocation
	opts   Options
	ledger *ledger.Ledger
}

// NewProcessor returns a processor writing outcomes to l.
func NewProcessor(inv *invocation.Invocation, opts Options, l *ledger.Ledger) *Processor {
	if opts.Indent == "" {
		opts.Indent = metadata.DefaultIndent
	}
	return &Processor{inv: inv, opts: opts, ledger: l}
}

// Run processes files in order. Per-file failures are recorded and never
// stop the run; only a cancelled context does, between files.
func (p *Processor) Run(ctx context.Context, files []string) error {
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.ProcessFile(file)
	}
	return nil
}

// ProcessFile loads, validates and, when eligible, updates one file.
func (p *Processor) ProcessFile(file string) {
	logger.Debug("Processing metadata file", logger.String("file", file))

	rec, err := metadata.Load(p.inv.Repo(), file)
	if err != nil {
		p.fail(file, err)
		return
	}
	if !p.Validate(file, rec) {
		return
	}
	p.Apply(file, rec)
}

// Validate reports whether rec may be updated. Every negative decision except
// a missing option in an unscoped run is recorded in the ledger.
func (p *Processor) Validate(file string, rec *metadata.Record) bool {
	key := p.inv.OptionKey()

	if !rec.Has(key) {
		if p.inv.Scoped() {
			p.recordMissingOption(file, key)
		}
		return false
	}

	image, err := rec.Image(key)
	if err != nil {
		p.fail(file, err)
		return false
	}

	lang := p.inv.Language()
	if !strings.Contains(image, "-"+lang+":") && image != p.opts.LegacyImagePrefix+lang {
		p.ledger.Addf(ledger.LanguageMismatch, "Language is '%s' but image was '%s' in file %s - skipping", lang, image, file)
		return false
	}

	if image == p.inv.Target() {
		p.ledger.Addf(ledger.ImageExists, "Image already matches '%s' in file %s - skipping", p.inv.Target(), file)
		return false
	}

	return true
}

// Apply writes the target image into rec and persists it to file. Failures
// are recorded, not returned.
func (p *Processor) Apply(file string, rec *metadata.Record) {
	key := p.inv.OptionKey()
	target := p.inv.Target()

	if err := rec.SetImage(key, target); err != nil {
		p.fail(file, err)
		return
	}

	if p.inv.DryRun() {
		p.ledger.Addf(ledger.DryRun, "Would write image '%s' to '%s'", target, file)
		return
	}

	if err := metadata.Save(file, rec, p.opts.Indent); err != nil {
		p.fail(file, err)
		return
	}
	p.ledger.Addf(ledger.Success, "Wrote image '%s' to '%s'", target, file)
}

func (p *Processor) recordMissingOption(file, key string) {
	switch key {
	case metadata.ExternalGradingOptionsKey:
		p.ledger.Addf(ledger.NotAutograder, "'%s' not found in file %s", key, file)
	default:
		p.ledger.Addf(ledger.NotWorkspace, "Not a workspace question in file %s", file)
	}
}

func (p *Processor) fail(file string, err error) {
	logger.Debug("Metadata file failed", logger.String("file", file), logger.Err(err))
	p.ledger.Add(ledger.Error, fmt.Sprintf("Error processing file %s: %v", file, err))
}
