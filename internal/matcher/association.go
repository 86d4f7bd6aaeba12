package matcher

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"topglobal/statements/internal/audit"
	"topglobal/statements/internal/importerror"
	"topglobal/statements/internal/ledger"
	"topglobal/statements/internal/logging"
	"topglobal/statements/internal/models"
)

// MaxReportedAssociationErrors caps how many per-association error messages
// an AI association result surfaces.
const MaxReportedAssociationErrors = 5

// aiCandidateStates is the loan pool offered to the assistant. Unlike the
// heuristic strategies it includes draft loans.
var aiCandidateStates = []ledger.LoanState{ledger.LoanFormalized, ledger.LoanConfirmed, ledger.LoanDraft}

var (
	fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	bareJSONPattern   = regexp.MustCompile(`(?s)\{.*"asociaciones".*\}`)
)

// Associator runs AI-assisted loan association over a statement's pending
// unmatched lines.
type Associator struct {
	client  AIClient
	loans   ledger.LoanLookup
	engine  interface {
		Recompute(ctx context.Context, line *models.StatementLine) error
	}
	trail   *audit.Trail
	timeout time.Duration
	log     logging.Logger
}

// NewAssociator creates an associator. timeout bounds the out-of-process
// assistant call.
func NewAssociator(client AIClient, loans ledger.LoanLookup, matcher *Matcher, timeout time.Duration, logger logging.Logger) *Associator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Associator{
		client:  client,
		loans:   loans,
		engine:  matcher.engine,
		trail:   matcher.trail,
		timeout: timeout,
		log:     logger,
	}
}

// AssociationResult summarizes an AI association pass: how many lines were
// assigned plus a capped list of per-association errors. Invalid
// associations never fail the pass as a whole.
type AssociationResult struct {
	Assigned int
	Errors   []string
}

// Summary renders the result as a single user-facing message.
func (r AssociationResult) Summary() string {
	msg := fmt.Sprintf("assigned %d lines using AI", r.Assigned)
	if len(r.Errors) > 0 {
		capped := r.Errors
		if len(capped) > MaxReportedAssociationErrors {
			capped = capped[:MaxReportedAssociationErrors]
		}
		msg += "; errors: " + strings.Join(capped, "; ")
	}
	return msg
}

type operationPayload struct {
	ID             int64                `json:"id"`
	Nombre         string               `json:"nombre"`
	Intervinientes []participantPayload `json:"intervinientes"`
}

type participantPayload struct {
	Nombre string `json:"nombre"`
	NIF    string `json:"nif"`
}

type conceptPayload struct {
	ID            int64  `json:"id"`
	Concepto      string `json:"concepto"`
	Observaciones string `json:"observaciones"`
	Importe       string `json:"importe"`
	Fecha         string `json:"fecha"`
}

type associationResponse struct {
	Asociaciones []struct {
		ConceptoID  int64 `json:"concepto_id"`
		OperacionID int64 `json:"operacion_id"`
	} `json:"asociaciones"`
}

const systemPrompt = `Eres un asistente experto en asociar pagos bancarios con préstamos hipotecarios.
Tu tarea es analizar conceptos de pagos y asociarlos con operaciones basándote en los nombres de los intervinientes.
Los nombres pueden estar escritos de forma diferente (con o sin acentos, mayúsculas/minúsculas, abreviaciones, etc.).
Debes devolver SOLO un JSON válido con la siguiente estructura:
{
"asociaciones": [
    {"concepto_id": <id_del_concepto>, "operacion_id": <id_de_la_operacion>},
    ...
]
}
Si no puedes asociar un concepto con certeza, no lo incluyas en la respuesta.`

// Associate asks the assistant to pair the statement's pending unmatched
// lines with the lender's loans, re-validates every proposed association and
// applies the valid ones.
func (a *Associator) Associate(ctx context.Context, stmt *models.Statement, lenderID int64) (AssociationResult, error) {
	var result AssociationResult

	lines := stmt.PendingUnmatched()
	if len(lines) == 0 {
		return result, nil
	}
	if lenderID == 0 {
		return result, fmt.Errorf("statement has no lender")
	}

	loans, err := a.loans.LenderLoans(ctx, lenderID, aiCandidateStates)
	if err != nil {
		return result, err
	}
	if len(loans) == 0 {
		return result, fmt.Errorf("no candidate loans for lender %d", lenderID)
	}

	userPrompt, err := buildUserPrompt(lines, loans)
	if err != nil {
		return result, err
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	content, err := a.client.Complete(callCtx, systemPrompt, userPrompt)
	if err != nil {
		return result, fmt.Errorf("AI association request failed: %w", err)
	}

	response, err := extractAssociations(content)
	if err != nil {
		return result, err
	}

	lineByID := make(map[int64]*models.StatementLine, len(lines))
	for _, l := range lines {
		lineByID[l.ID] = l
	}
	loanByID := make(map[int64]*ledger.Loan, len(loans))
	for _, loan := range loans {
		loanByID[loan.ID] = loan
	}

	for _, assoc := range response.Asociaciones {
		if assoc.ConceptoID == 0 || assoc.OperacionID == 0 {
			continue
		}
		line, ok := lineByID[assoc.ConceptoID]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d not found", assoc.ConceptoID))
			continue
		}
		if _, ok := loanByID[assoc.OperacionID]; !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("loan %d not found", assoc.OperacionID))
			continue
		}
		// External-service output is never trusted blindly: the line must
		// still be pending and unmatched at apply time.
		if !line.EligibleForMatching() {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d no longer eligible", assoc.ConceptoID))
			continue
		}

		line.AssignLoan(assoc.OperacionID, true)
		if a.trail != nil {
			a.trail.Append(audit.Event{
				Entity: "line",
				Ref:    line.ID,
				Action: "matched",
				Detail: fmt.Sprintf("Loan %d assigned by AI association", assoc.OperacionID),
			})
		}
		if err := a.engine.Recompute(ctx, line); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", assoc.ConceptoID, err))
			continue
		}
		result.Assigned++
	}

	a.log.WithFields(
		logging.Field{Key: "statement", Value: stmt.ID},
		logging.Field{Key: "assigned", Value: result.Assigned},
		logging.Field{Key: "errors", Value: len(result.Errors)},
	).Info("AI association completed")
	return result, nil
}

func buildUserPrompt(lines []*models.StatementLine, loans []*ledger.Loan) (string, error) {
	operations := make([]operationPayload, 0, len(loans))
	for _, loan := range loans {
		op := operationPayload{ID: loan.ID, Nombre: loan.Name}
		for _, p := range loan.Participants {
			op.Intervinientes = append(op.Intervinientes, participantPayload{Nombre: p.Name, NIF: p.IdentityCode})
		}
		operations = append(operations, op)
	}
	concepts := make([]conceptPayload, 0, len(lines))
	for _, l := range lines {
		concepts = append(concepts, conceptPayload{
			ID:            l.ID,
			Concepto:      l.Concept,
			Observaciones: l.Remarks,
			Importe:       l.Amount.StringFixed(2),
			Fecha:         l.Date.Format("2006-01-02"),
		})
	}

	operationsJSON, err := json.MarshalIndent(operations, "", "  ")
	if err != nil {
		return "", err
	}
	conceptsJSON, err := json.MarshalIndent(concepts, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`Tengo %d conceptos de pago y %d operaciones.

OPERACIONES:
%s

CONCEPTOS:
%s

Por favor, asocia cada concepto con la operación correspondiente basándote en los nombres de los intervinientes.
Los nombres pueden estar escritos de forma diferente, así que busca similitudes y coincidencias.
Devuelve SOLO el JSON con las asociaciones, sin texto adicional.`,
		len(concepts), len(operations), operationsJSON, conceptsJSON), nil
}

// extractAssociations pulls the association JSON out of the assistant
// content, tolerating a fenced code block wrapper.
func extractAssociations(content string) (*associationResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &importerror.AIResponseError{Err: fmt.Errorf("empty assistant content")}
	}

	jsonContent := content
	if m := fencedJSONPattern.FindStringSubmatch(content); m != nil {
		jsonContent = m[1]
	} else if m := bareJSONPattern.FindString(content); m != "" {
		jsonContent = m
	}

	var response associationResponse
	if err := json.Unmarshal([]byte(jsonContent), &response); err != nil {
		return nil, &importerror.AIResponseError{Snippet: snippet(content, 200), Err: err}
	}
	return &response, nil
}

func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
