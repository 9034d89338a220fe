package exceptions

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/clearline-dev/clearline/internal/model"
)

// Record is one row in the exception queue. Every rejection or ambiguity in
// the pipeline lands here with enough context for an operator to find the
// original document and decide what to do.
type Record struct {
	Timestamp      time.Time
	SourceDocument string
	Ordinal        int // 1-based row, 0 = statement-level
	Kind           model.ViolationKind
	Message        string
	Context        string // free-form: raw line, computed vs expected, file path
}

// Header is the CSV header for exceptions.csv.
const Header = "timestamp,source_document,ordinal,violation_kind,message,context"

const (
	numFields    = 6
	queueDir     = "exceptions"
	queueFile    = "exceptions/exceptions.csv"
	colTimestamp = 0
	colSrcDoc    = 1
	colOrdinal   = 2
	colKind      = 3
	colMessage   = 4
	colContext   = 5
)

// FromDiscrepancy builds a Record from a verifier discrepancy.
func FromDiscrepancy(docID string, d model.Discrepancy, at time.Time) Record {
	ctx := ""
	if !d.Expected.IsZero() || !d.Actual.IsZero() {
		ctx = fmt.Sprintf("expected=%s actual=%s", d.Expected.StringFixed(2), d.Actual.StringFixed(2))
	}
	return Record{
		Timestamp:      at,
		SourceDocument: docID,
		Ordinal:        d.Ordinal,
		Kind:           d.Kind,
		Message:        d.Message,
		Context:        ctx,
	}
}

// MarshalRecord converts a Record to a CSV row.
func MarshalRecord(rec Record) []string {
	row := make([]string, numFields)
	row[colTimestamp] = rec.Timestamp.Format(time.RFC3339)
	row[colSrcDoc] = rec.SourceDocument
	if rec.Ordinal != 0 {
		row[colOrdinal] = strconv.Itoa(rec.Ordinal)
	}
	row[colKind] = string(rec.Kind)
	row[colMessage] = rec.Message
	row[colContext] = rec.Context
	return row
}

// UnmarshalRecord converts a CSV row to a Record.
func UnmarshalRecord(record []string) (Record, error) {
	if len(record) != numFields {
		return Record{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Record{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	var ordinal int
	if record[colOrdinal] != "" {
		ordinal, err = strconv.Atoi(record[colOrdinal])
		if err != nil {
			return Record{}, fmt.Errorf("parsing ordinal %q: %w", record[colOrdinal], err)
		}
	}

	return Record{
		Timestamp:      ts,
		SourceDocument: record[colSrcDoc],
		Ordinal:        ordinal,
		Kind:           model.ViolationKind(record[colKind]),
		Message:        record[colMessage],
		Context:        record[colContext],
	}, nil
}

// Append writes records to <repoRoot>/exceptions/exceptions.csv, creating the
// file and header if needed.
func Append(repoRoot string, records []Record) error {
	dir := filepath.Join(repoRoot, queueDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating exceptions dir: %w", err)
	}

	path := filepath.Join(repoRoot, queueFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening exception queue: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, rec := range records {
		if err := cw.Write(MarshalRecord(rec)); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all records from <repoRoot>/exceptions/exceptions.csv.
// Returns an empty slice if the file does not exist.
func Read(repoRoot string) ([]Record, error) {
	path := filepath.Join(repoRoot, queueFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening exception queue: %w", err)
	}
	defer f.Close()

	return readRecords(f)
}

// HasDocument reports whether the queue already holds records for a source
// document. Re-ingesting byte-identical input must not duplicate its records.
func HasDocument(repoRoot, docID string) (bool, error) {
	if docID == "" {
		return false, nil
	}
	records, err := Read(repoRoot)
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if rec.SourceDocument == docID {
			return true, nil
		}
	}
	return false, nil
}

func readRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading exception queue CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var out []Record
	for i, rec := range records[1:] {
		e, err := UnmarshalRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, e)
	}
	return out, nil
}
