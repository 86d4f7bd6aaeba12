// Package root contains the root command for the application.
package root

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"topglobal/statements/internal/audit"
	"topglobal/statements/internal/config"
	"topglobal/statements/internal/distribution"
	"topglobal/statements/internal/importer"
	"topglobal/statements/internal/ledger"
	"topglobal/statements/internal/logging"
	"topglobal/statements/internal/matcher"
	"topglobal/statements/internal/models"
	"topglobal/statements/internal/poster"
	"topglobal/statements/internal/store"
)

// CommonFlags holds the flags shared by the statement commands.
type CommonFlags struct {
	Input     string
	Output    string
	Portfolio int64
	Loans     string
}

var (
	// Log is the shared logger instance for commands.
	Log = logging.GetLogger()

	// Cfg is the loaded application configuration.
	Cfg *config.Config

	// SharedFlags are the common flags accessible to all commands.
	SharedFlags = CommonFlags{}

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "statements",
		Short: "Import bank statement files and post matched payments to loans.",
		Long: `statements is a CLI tool that imports bank statement files (xls, xlsx,
csv, txt), matches payment lines to loans, distributes each payment across the
outstanding installment concepts, and posts the results to the loan ledger.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to statements!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				Log.WithError(err).Warn("Failed to load .env file")
			}
			cfg, err := config.InitializeConfig()
			if err != nil {
				return err
			}
			Cfg = cfg
			Log = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
			logging.SetDefaultLogger(Log)
			return nil
		},
	}
)

// Init initializes the root command and its persistent flags.
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input statement file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output CSV file")
	Cmd.PersistentFlags().Int64VarP(&SharedFlags.Portfolio, "portfolio", "p", 0, "Portfolio ID the statement belongs to")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Loans, "loans", "l", "loans.yaml", "Loans dataset YAML file")
}

// Runtime bundles the collaborators a statement command runs against.
type Runtime struct {
	Store     *store.ConfigStore
	Portfolio *models.Portfolio
	Ledger    *ledger.Memory
	Engine    *distribution.Engine
	Matcher   *matcher.Matcher
	Trail     *audit.Trail
	Importer  *importer.Importer
	Poster    *poster.Poster
}

// NewRuntime loads configuration data and wires the statement pipeline.
func NewRuntime() (*Runtime, error) {
	if SharedFlags.Portfolio == 0 {
		return nil, fmt.Errorf("portfolio ID is required")
	}

	s := store.NewConfigStore(Cfg.Store.PortfoliosFile, Cfg.Store.FormatsFile, Log)
	portfolio, err := s.FindPortfolio(SharedFlags.Portfolio)
	if err != nil {
		return nil, err
	}

	mem, dir, err := s.LoadLedger(SharedFlags.Loans)
	if err != nil {
		return nil, err
	}

	engine := distribution.NewEngine(mem, Cfg.Distribution.ObligationFetchCap, Log)
	m := matcher.New(mem, dir, engine, Cfg.Matching.FuzzyTokenCap, Cfg.Matching.CounterpartyHitCap, Log)
	trail := audit.NewTrail(Log)
	engine.SetTrail(trail)
	m.SetTrail(trail)

	return &Runtime{
		Store:     s,
		Portfolio: portfolio,
		Ledger:    mem,
		Engine:    engine,
		Matcher:   m,
		Trail:     trail,
		Importer:  importer.New(m, trail, Log),
		Poster:    poster.New(mem, trail, Log),
	}, nil
}

// ImportStatement reads the input file and runs the import pipeline,
// returning the populated statement and the import summary.
func (r *Runtime) ImportStatement() (*models.Statement, *importer.Result, error) {
	if SharedFlags.Input == "" {
		return nil, nil, fmt.Errorf("input file is required")
	}
	data, err := os.ReadFile(SharedFlags.Input)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading statement file: %w", err)
	}

	stmt := &models.Statement{
		ID:          1,
		Ref:         SharedFlags.Input,
		Date:        time.Now().UTC().Truncate(24 * time.Hour),
		PortfolioID: r.Portfolio.ID,
		State:       models.StatementDraft,
	}
	result, err := r.Importer.Import(Cmd.Context(), stmt, r.Portfolio, data, nil)
	if err != nil {
		return stmt, result, err
	}
	return stmt, result, nil
}

// NewAssociator builds the AI associator from configuration. The returned
// close function releases the underlying client.
func (r *Runtime) NewAssociator() (*matcher.Associator, func(), error) {
	if Cfg.AI.APIKey == "" {
		return nil, nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	client, err := matcher.NewGeminiClient(Cmd.Context(), Cfg.AI.APIKey, Cfg.AI.Model, Log)
	if err != nil {
		return nil, nil, err
	}
	associator := matcher.NewAssociator(client, r.Ledger, r.Matcher, Cfg.AITimeout(), Log)
	return associator, func() {
		if err := client.Close(); err != nil {
			Log.WithError(err).Warn("Failed to close AI client")
		}
	}, nil
}

// LogSummary reports an import result at info level.
func LogSummary(stmt *models.Statement, result *importer.Result) {
	Log.WithFields(
		logging.Field{Key: "statement", Value: stmt.Ref},
		logging.Field{Key: "created", Value: result.Created},
		logging.Field{Key: "pending", Value: result.Pending},
		logging.Field{Key: "discarded", Value: result.Discarded},
		logging.Field{Key: "duplicates", Value: result.SkippedDuplicates},
		logging.Field{Key: "matched", Value: result.AutoMatched},
	).Info("Statement imported")
}

// Execute runs the root command.
func Execute() error {
	return Cmd.Execute()
}
