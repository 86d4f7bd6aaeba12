package matcher

import (
	"context"
	"regexp"
	"strings"

	"topglobal/statements/internal/directory"
	"topglobal/statements/internal/ledger"
)

var (
	referencePattern = regexp.MustCompile(`(?i)HIS\s*(\d+)`)
	identityPattern  = regexp.MustCompile(`\d{8}[A-Z]?`)
	namePattern      = regexp.MustCompile(`\b[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+\b`)
)

// repeatStrategy reuses the loan of the most recently created line in the
// same portfolio whose remarks contain this line's remarks and whose amount
// matches exactly.
type repeatStrategy struct{}

func (s *repeatStrategy) Name() string { return "repeat" }

func (s *repeatStrategy) Match(ctx context.Context, cand *Candidate) (int64, error) {
	line := cand.Line
	needle := strings.ToLower(line.Remarks)
	for i := len(cand.PortfolioLines) - 1; i >= 0; i-- {
		other := cand.PortfolioLines[i]
		if other == line || other.MatchedLoanID == 0 {
			continue
		}
		if strings.Contains(strings.ToLower(other.Remarks), needle) && other.Amount.Equal(line.Amount) {
			return other.MatchedLoanID, nil
		}
	}
	return 0, nil
}

// referenceStrategy extracts a loan reference token ("HIS 12345") from the
// remarks and looks it up under the line's lender.
type referenceStrategy struct {
	loans ledger.LoanLookup
}

func (s *referenceStrategy) Name() string { return "reference" }

func (s *referenceStrategy) Match(ctx context.Context, cand *Candidate) (int64, error) {
	m := referencePattern.FindStringSubmatch(cand.Line.Remarks)
	if m == nil {
		return 0, nil
	}
	loan, err := s.loans.FindByReference(ctx, cand.Line.LenderID, "HIS "+m[1])
	if err != nil {
		return 0, err
	}
	if loan == nil {
		return 0, nil
	}
	return loan.ID, nil
}

// identityStrategy extracts an 8-digit identity code (optional trailing
// letter) from the remarks, resolves the counterparty and looks for an
// active loan participation under the lender.
type identityStrategy struct {
	dir   directory.Directory
	loans ledger.LoanLookup
}

func (s *identityStrategy) Name() string { return "identity" }

func (s *identityStrategy) Match(ctx context.Context, cand *Candidate) (int64, error) {
	code := identityPattern.FindString(cand.Line.Remarks)
	if code == "" {
		return 0, nil
	}
	counterparty, err := s.dir.FindByIdentityCode(ctx, code)
	if err != nil {
		return 0, err
	}
	if counterparty == nil {
		return 0, nil
	}
	loan, err := s.loans.FindParticipation(ctx, counterparty.ID, cand.Line.LenderID, ledger.ActiveLoanStates)
	if err != nil {
		return 0, err
	}
	if loan == nil {
		return 0, nil
	}
	return loan.ID, nil
}

// fuzzyNameStrategy probes the first capitalized word tokens of the remarks
// against the customer directory and tries an active-loan participation for
// each hit.
type fuzzyNameStrategy struct {
	dir      directory.Directory
	loans    ledger.LoanLookup
	tokenCap int
	hitCap   int
}

func (s *fuzzyNameStrategy) Name() string { return "fuzzy-name" }

func (s *fuzzyNameStrategy) Match(ctx context.Context, cand *Candidate) (int64, error) {
	tokens := namePattern.FindAllString(cand.Line.Remarks, -1)
	probed := 0
	for _, token := range tokens {
		if probed >= s.tokenCap {
			break
		}
		probed++
		if len([]rune(token)) <= 3 {
			continue
		}
		hits, err := s.dir.FindByName(ctx, token, directory.CategoryCustomer, s.hitCap)
		if err != nil {
			return 0, err
		}
		for _, counterparty := range hits {
			loan, err := s.loans.FindParticipation(ctx, counterparty.ID, cand.Line.LenderID, ledger.ActiveLoanStates)
			if err != nil {
				return 0, err
			}
			if loan != nil {
				return loan.ID, nil
			}
		}
	}
	return 0, nil
}
