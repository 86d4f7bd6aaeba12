package store

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"topglobal/statements/internal/directory"
	"topglobal/statements/internal/ledger"
	"topglobal/statements/internal/logging"
)

// ledgerFileDoc is the top-level shape of the loans YAML file. It seeds the
// in-memory ledger and counterparty directory the CLI runs against.
type ledgerFileDoc struct {
	Counterparties []counterpartyDoc `yaml:"counterparties"`
	Loans          []loanDoc         `yaml:"loans"`
}

type counterpartyDoc struct {
	ID           int64    `yaml:"id"`
	Name         string   `yaml:"name"`
	IdentityCode string   `yaml:"identity_code"`
	Categories   []string `yaml:"categories"`
}

type loanDoc struct {
	ID           int64            `yaml:"id"`
	Name         string           `yaml:"name"`
	LenderID     int64            `yaml:"lender_id"`
	State        string           `yaml:"state"`
	Participants []int64          `yaml:"participants"`
	Schedule     []installmentDoc `yaml:"schedule"`
}

type installmentDoc struct {
	Number    int    `yaml:"number"`
	Ref       string `yaml:"ref"`
	DueDate   string `yaml:"due_date"`
	Amount    string `yaml:"amount"`
	Principal string `yaml:"principal"`
	Interest  string `yaml:"interest"`
	Settled   bool   `yaml:"settled"`
}

// LoadLedger reads a loans YAML file into an in-memory ledger and directory.
// Participants reference counterparties by ID.
func (s *ConfigStore) LoadLedger(filename string) (*ledger.Memory, *directory.Memory, error) {
	filePath, err := s.FindConfigFile(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("error resolving loans file %s: %w", filename, err)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading loans file: %w", err)
	}

	var doc ledgerFileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("error parsing loans file: %w", err)
	}

	dir := directory.NewMemory()
	byID := make(map[int64]*directory.Counterparty, len(doc.Counterparties))
	for _, c := range doc.Counterparties {
		cp := &directory.Counterparty{
			ID:           c.ID,
			Name:         c.Name,
			IdentityCode: c.IdentityCode,
			Categories:   c.Categories,
		}
		dir.Add(cp)
		byID[cp.ID] = cp
	}

	mem := ledger.NewMemory()
	for _, l := range doc.Loans {
		loan := &ledger.Loan{
			ID:       l.ID,
			Name:     l.Name,
			LenderID: l.LenderID,
			State:    ledger.LoanState(l.State),
		}
		for _, pid := range l.Participants {
			cp, ok := byID[pid]
			if !ok {
				return nil, nil, fmt.Errorf("loan %d: unknown counterparty %d", l.ID, pid)
			}
			loan.Participants = append(loan.Participants, ledger.Participant{
				CounterpartyID: cp.ID,
				Name:           cp.Name,
				IdentityCode:   cp.IdentityCode,
			})
		}

		schedule := make([]*ledger.Installment, 0, len(l.Schedule))
		for _, entry := range l.Schedule {
			inst, err := entry.toInstallment()
			if err != nil {
				return nil, nil, fmt.Errorf("loan %d installment %d: %w", l.ID, entry.Number, err)
			}
			schedule = append(schedule, inst)
		}
		mem.AddLoan(loan, schedule)
	}

	s.log.WithFields(
		logging.Field{Key: "loans", Value: len(doc.Loans)},
		logging.Field{Key: "counterparties", Value: len(doc.Counterparties)},
		logging.Field{Key: "file", Value: filePath},
	).Debug("Loaded ledger dataset")
	return mem, dir, nil
}

func (d installmentDoc) toInstallment() (*ledger.Installment, error) {
	due, err := time.Parse("2006-01-02", d.DueDate)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q: %w", d.DueDate, err)
	}
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", d.Amount, err)
	}
	principal, err := decimal.NewFromString(d.Principal)
	if err != nil {
		return nil, fmt.Errorf("invalid principal %q: %w", d.Principal, err)
	}
	interest := decimal.Zero
	if d.Interest != "" {
		interest, err = decimal.NewFromString(d.Interest)
		if err != nil {
			return nil, fmt.Errorf("invalid interest %q: %w", d.Interest, err)
		}
	}
	return &ledger.Installment{
		Number:    d.Number,
		Ref:       d.Ref,
		DueDate:   due,
		Amount:    amount,
		Principal: principal,
		Interest:  interest,
		Settled:   d.Settled,
	}, nil
}
