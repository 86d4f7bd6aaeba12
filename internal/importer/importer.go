// Package importer orchestrates a statement import: parse the file per the
// portfolio's format, extract fields per row, apply the row outcome policy
// and duplicate filter, create lines, and auto-match the pending ones.
//
// Import is not atomic across rows: lines created before a failure remain;
// only the unprocessed remainder is lost.
package importer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"topglobal/statements/internal/audit"
	"topglobal/statements/internal/dupfilter"
	"topglobal/statements/internal/fieldextract"
	"topglobal/statements/internal/importerror"
	"topglobal/statements/internal/logging"
	"topglobal/statements/internal/matcher"
	"topglobal/statements/internal/models"
	"topglobal/statements/internal/statementparser"
)

// Result summarizes one import.
type Result struct {
	Created           int
	Pending           int
	Discarded         int
	SkippedDuplicates int
	AutoMatched       int
}

// Importer runs the import pipeline.
type Importer struct {
	matcher *matcher.Matcher
	trail   *audit.Trail
	log     logging.Logger

	nextLineID atomic.Int64
}

// New creates an importer. The matcher may be nil to import without
// auto-matching; the audit trail may be nil.
func New(m *matcher.Matcher, trail *audit.Trail, logger logging.Logger) *Importer {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Importer{matcher: m, trail: trail, log: logger}
}

// Import decodes data into stmt's lines. existingLines are the portfolio's
// lines from other statements, used for duplicate filtering and for the
// repeat-match strategy.
func (imp *Importer) Import(ctx context.Context, stmt *models.Statement, portfolio *models.Portfolio, data []byte, existingLines []*models.StatementLine) (*Result, error) {
	if len(data) == 0 {
		return nil, &importerror.MissingFileError{Statement: stmt.Ref}
	}
	if portfolio == nil || portfolio.Format == nil {
		name := ""
		if portfolio != nil {
			name = portfolio.Name
		}
		return nil, &importerror.MissingPortfolioConfigError{Portfolio: name}
	}
	format := portfolio.Format
	if err := format.Validate(); err != nil {
		return nil, err
	}

	parser, err := statementparser.ForKind(format.Kind)
	if err != nil {
		return nil, err
	}
	if stmt.Ref == "" {
		stmt.Ref = uuid.NewString()
	}
	rows, err := parser.Parse(data, format)
	if err != nil {
		return nil, &importerror.ImportError{Statement: stmt.Ref, Err: err}
	}
	imp.log.WithFields(
		logging.Field{Key: "statement", Value: stmt.Ref},
		logging.Field{Key: "rows", Value: len(rows)},
	).Info("Importing statement rows")

	filter := dupfilter.New()
	filter.Seed(portfolio.ID, existingLines)

	importDate := stmt.Date
	if importDate.IsZero() {
		importDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	extractor := fieldextract.New(format, importDate)

	result := &Result{}
	for _, row := range rows {
		amount, resolved := extractor.Amount(row)
		date := extractor.Date(row)
		concept := extractor.Concept(row)
		remarks := extractor.Remarks(row)

		line := models.NewStatementLine(stmt.ID, portfolio.ID, portfolio.LenderID)
		line.Date = date
		line.Concept = concept
		line.Remarks = remarks

		switch {
		case !resolved:
			line.State = models.LineDiscarded
			line.Amount = decimal.Zero
		case !amount.IsPositive():
			// Only positive inflows are payment candidates; negatives keep
			// their magnitude for review.
			line.State = models.LineDiscarded
			line.Amount = amount.Abs()
		default:
			if filter.IsDuplicate(portfolio.ID, concept, remarks, date, amount) {
				result.SkippedDuplicates++
				continue
			}
			line.State = models.LinePending
			line.Amount = amount
		}

		line.ID = imp.nextLineID.Add(1)
		line.Persisted = true
		stmt.Lines = append(stmt.Lines, line)
		result.Created++
		if line.State == models.LinePending {
			result.Pending++
		} else {
			result.Discarded++
		}
	}

	stmt.State = models.StatementImported

	if imp.matcher != nil {
		portfolioLines := append(append([]*models.StatementLine(nil), existingLines...), stmt.Lines...)
		assigned, err := imp.matcher.MatchStatement(ctx, stmt, portfolioLines)
		result.AutoMatched = assigned
		if err != nil {
			return result, err
		}
	}

	if imp.trail != nil {
		imp.trail.Append(audit.Event{
			Entity: "statement",
			Ref:    stmt.ID,
			Action: "imported",
			Detail: fmt.Sprintf("%d lines created, %d pending, %d discarded, %d duplicates skipped",
				result.Created, result.Pending, result.Discarded, result.SkippedDuplicates),
		})
	}
	return result, nil
}
