// Package pipeline runs one statement document end to end: extract,
// reconstruct, verify, classify, post. Each document is a self-contained unit
// of work; everything before the posting step is pure in-memory computation,
// so a cancelled document leaves no trace.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clearline-dev/clearline/internal/classify"
	"github.com/clearline-dev/clearline/internal/exceptions"
	"github.com/clearline-dev/clearline/internal/extract"
	"github.com/clearline-dev/clearline/internal/id"
	"github.com/clearline-dev/clearline/internal/ledger"
	"github.com/clearline-dev/clearline/internal/model"
	"github.com/clearline-dev/clearline/internal/reconstruct"
	"github.com/clearline-dev/clearline/internal/verify"
)

// Document is one statement file handed to the pipeline.
type Document struct {
	Name  string // file name, kept for operator-facing context
	Bytes []byte
	Hints extract.Hints
	// Format forces a specific extractor by name; empty means auto-detect.
	Format string
}

// Outcome is what one document's run produced.
type Outcome struct {
	DocumentID string
	Name       string
	Result     model.ReconciliationResult
	EntryIDs   []string
	Posted     bool
	// AlreadyPosted marks a byte-identical re-ingestion, which is a no-op.
	AlreadyPosted bool
	// Err is set for fatal extraction failures; the document produced no
	// ReconciliationResult.
	Err error
}

// Pipeline wires the stages together for one ledger repo.
type Pipeline struct {
	registry *extract.Registry
	rules    *classify.RuleSet
	verifier *verify.Verifier
	poster   *ledger.Poster
	repoRoot string
	log      zerolog.Logger
}

// New creates a Pipeline.
func New(registry *extract.Registry, rules *classify.RuleSet, verifier *verify.Verifier, poster *ledger.Poster, repoRoot string, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		registry: registry,
		rules:    rules,
		verifier: verifier,
		poster:   poster,
		repoRoot: repoRoot,
		log:      log,
	}
}

// Process runs one document through every stage. The returned Outcome always
// carries the document ID; Outcome.Err is set when extraction failed and no
// verdict could be produced. Errors reading or writing the ledger repo are
// returned directly.
func (p *Pipeline) Process(ctx context.Context, doc Document) (Outcome, error) {
	out := Outcome{
		DocumentID: id.DocumentID(doc.Bytes),
		Name:       doc.Name,
	}
	log := p.log.With().Str("document", out.DocumentID).Str("file", doc.Name).Logger()

	if err := ctx.Err(); err != nil {
		return out, err
	}

	res, err := p.extract(doc)
	if err != nil {
		out.Err = fmt.Errorf("extracting %s: %w", doc.Name, err)
		log.Error().Err(err).Msg("extraction failed")
		if ferr := p.recordExceptions(out.DocumentID, []model.Discrepancy{{
			Kind:    model.ViolationExtractionFailure,
			Message: err.Error(),
		}}, doc.Name); ferr != nil {
			return out, ferr
		}
		return out, nil
	}
	res.Statement.DocumentID = out.DocumentID
	log.Debug().
		Str("bank", res.Statement.Bank).
		Int("rows", len(res.Rows)).
		Int("row_errors", len(res.RowErrors)).
		Msg("extracted")

	if err := ctx.Err(); err != nil {
		return out, err
	}

	rec := reconstruct.Run(res.Statement.OpeningBalance, res.Rows)
	rowErrors := append(res.RowErrors, rec.Ambiguous...)

	out.Result = p.verifier.Verify(verify.Input{
		Statement:    res.Statement,
		Transactions: rec.Transactions,
		RowErrors:    rowErrors,
	})
	log.Info().
		Str("verdict", string(out.Result.Verdict)).
		Int("discrepancies", len(out.Result.Discrepancies)).
		Msg("verified")

	if out.Result.Verdict == model.VerdictVerified {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		classified := make([]model.ClassifiedTransaction, len(out.Result.Transactions))
		for i, tx := range out.Result.Transactions {
			classified[i] = p.rules.Classify(tx)
		}

		entryIDs, err := p.poster.PostStatement(out.Result, classified)
		switch {
		case errors.Is(err, ledger.ErrAlreadyPosted):
			out.AlreadyPosted = true
			log.Info().Msg("already posted, skipping")
		case err != nil:
			var resErr ledger.AccountResolutionError
			if errors.As(err, &resErr) {
				out.Result.Discrepancies = append(out.Result.Discrepancies, resErr.Discrepancy())
				log.Warn().Err(err).Msg("posting held back")
			} else {
				return out, fmt.Errorf("posting %s: %w", doc.Name, err)
			}
		default:
			out.EntryIDs = entryIDs
			out.Posted = true
			log.Info().Int("entries", len(entryIDs)).Msg("posted")
		}
	}

	if len(out.Result.Discrepancies) > 0 {
		if err := p.recordExceptions(out.DocumentID, out.Result.Discrepancies, doc.Name); err != nil {
			return out, err
		}
	}

	return out, nil
}

// extract picks the CSV path or the bank-layout path and runs it.
func (p *Pipeline) extract(doc Document) (extract.Result, error) {
	if doc.Format != "" {
		e, ok := p.registry.Get(doc.Format)
		if !ok {
			return extract.Result{}, fmt.Errorf("%w: no extractor named %q", extract.ErrUnrecognizedFormat, doc.Format)
		}
		return e.Extract(splitLines(doc.Bytes), doc.Hints)
	}

	if isCSV(doc) {
		return extract.ParseCSV(bytes.NewReader(doc.Bytes), doc.Hints)
	}

	text := string(doc.Bytes)
	e, ok := p.registry.Detect(text)
	if !ok {
		return extract.Result{}, extract.ErrUnrecognizedFormat
	}
	return e.Extract(splitLines(doc.Bytes), doc.Hints)
}

// recordExceptions appends the document's discrepancies to the exception
// queue unless the document already has records there, which keeps
// re-ingestion of identical bytes from duplicating them.
func (p *Pipeline) recordExceptions(docID string, discrepancies []model.Discrepancy, fileName string) error {
	seen, err := exceptions.HasDocument(p.repoRoot, docID)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	now := time.Now().UTC()
	records := make([]exceptions.Record, len(discrepancies))
	for i, d := range discrepancies {
		rec := exceptions.FromDiscrepancy(docID, d, now)
		if rec.Context == "" {
			rec.Context = fileName
		}
		records[i] = rec
	}
	return exceptions.Append(p.repoRoot, records)
}

func isCSV(doc Document) bool {
	return strings.HasSuffix(strings.ToLower(doc.Name), ".csv")
}

func splitLines(data []byte) []string {
	return strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
}
