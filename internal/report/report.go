// Package report writes statement line dispositions to CSV for review.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"topglobal/statements/internal/logging"
	"topglobal/statements/internal/models"
)

// LineRecord is one exported row.
type LineRecord struct {
	Statement   string `csv:"Statement"`
	Date        string `csv:"Date"`
	Concept     string `csv:"Concept"`
	Remarks     string `csv:"Remarks"`
	Amount      string `csv:"Amount"`
	State       string `csv:"State"`
	Loan        int64  `csv:"Loan"`
	AutoMatched bool   `csv:"AutoMatched"`
	Reviewed    bool   `csv:"Reviewed"`
	Partial     bool   `csv:"PartialPayment"`
	Distributed string `csv:"Distributed"`
	PaymentRef  string `csv:"PaymentRef"`
}

// Records flattens a statement's lines into exportable rows.
func Records(stmt *models.Statement) []LineRecord {
	records := make([]LineRecord, 0, len(stmt.Lines))
	for _, line := range stmt.Lines {
		rec := LineRecord{
			Statement:   stmt.Ref,
			Concept:     line.Concept,
			Remarks:     line.Remarks,
			Amount:      line.Amount.StringFixed(2),
			State:       string(line.State),
			Loan:        line.MatchedLoanID,
			AutoMatched: line.AutoMatched,
			Reviewed:    line.Reviewed,
			Partial:     line.PartialPayment,
			Distributed: line.DistributedAmount.StringFixed(2),
			PaymentRef:  line.PostedPaymentRef,
		}
		if !line.Date.IsZero() {
			rec.Date = line.Date.Format("2006-01-02")
		}
		records = append(records, rec)
	}
	return records
}

// Write marshals records to w as CSV.
func Write(w io.Writer, records []LineRecord) error {
	if err := gocsv.Marshal(&records, w); err != nil {
		return fmt.Errorf("error writing CSV: %w", err)
	}
	return nil
}

// WriteFile writes a statement's lines to a CSV file, creating parent
// directories as needed.
func WriteFile(stmt *models.Statement, csvFile string, logger logging.Logger) error {
	if logger == nil {
		logger = logging.GetLogger()
	}
	records := Records(stmt)
	logger.WithFields(
		logging.Field{Key: "file", Value: csvFile},
		logging.Field{Key: "count", Value: len(records)},
	).Info("Writing statement lines to CSV file")

	if err := os.MkdirAll(filepath.Dir(csvFile), 0750); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	file, err := os.Create(csvFile)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()
	return Write(file, records)
}
