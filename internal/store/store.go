// Package store loads and saves portfolio and statement-format
// configuration from YAML files.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"topglobal/statements/internal/logging"
	"topglobal/statements/internal/models"
)

// ConfigStore manages loading and saving of portfolio configuration data.
type ConfigStore struct {
	PortfoliosFile string
	FormatsFile    string

	log logging.Logger
}

// NewConfigStore creates a store for portfolio-related configuration.
func NewConfigStore(portfoliosFile, formatsFile string, logger logging.Logger) *ConfigStore {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &ConfigStore{
		PortfoliosFile: portfoliosFile,
		FormatsFile:    formatsFile,
		log:            logger,
	}
}

// formatsFileDoc is the top-level shape of the formats YAML file.
type formatsFileDoc struct {
	Formats []*models.StatementFormat `yaml:"formats"`
}

// portfoliosFileDoc is the top-level shape of the portfolios YAML file.
type portfoliosFileDoc struct {
	Portfolios []*models.Portfolio `yaml:"portfolios"`
}

// FindConfigFile looks for a configuration file in standard locations.
func (s *ConfigStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".statements", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}

// LoadFormats loads statement formats from the YAML file. A missing file
// yields an empty slice, not an error.
func (s *ConfigStore) LoadFormats() ([]*models.StatementFormat, error) {
	filename := s.FormatsFile
	if filename == "" {
		filename = "formats.yaml"
	}

	filePath, err := s.FindConfigFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.WithField("file", filename).Warn("Formats file not found")
			return []*models.StatementFormat{}, nil
		}
		return nil, fmt.Errorf("error resolving formats file: %w", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading formats file: %w", err)
	}

	var doc formatsFileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing formats file: %w", err)
	}
	if len(doc.Formats) == 0 {
		// Also accept a bare top-level list.
		var formats []*models.StatementFormat
		if err := yaml.Unmarshal(data, &formats); err == nil && len(formats) > 0 {
			doc.Formats = formats
		}
	}

	for _, f := range doc.Formats {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("format %q: %w", f.Name, err)
		}
	}
	s.log.WithFields(
		logging.Field{Key: "count", Value: len(doc.Formats)},
		logging.Field{Key: "file", Value: filePath},
	).Debug("Loaded statement formats")
	return doc.Formats, nil
}

// LoadPortfolios loads portfolios from the YAML file and resolves each
// portfolio's format by name against the formats file. A missing file
// yields an empty slice, not an error.
func (s *ConfigStore) LoadPortfolios() ([]*models.Portfolio, error) {
	filename := s.PortfoliosFile
	if filename == "" {
		filename = "portfolios.yaml"
	}

	filePath, err := s.FindConfigFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.WithField("file", filename).Warn("Portfolios file not found")
			return []*models.Portfolio{}, nil
		}
		return nil, fmt.Errorf("error resolving portfolios file: %w", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading portfolios file: %w", err)
	}

	var doc portfoliosFileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing portfolios file: %w", err)
	}

	formats, err := s.LoadFormats()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*models.StatementFormat, len(formats))
	for _, f := range formats {
		byName[f.Name] = f
	}
	for _, p := range doc.Portfolios {
		if p.Format != nil && p.Format.Name != "" && p.Format.Kind == "" {
			if resolved, ok := byName[p.Format.Name]; ok {
				p.Format = resolved
			}
		}
		p.DeriveName()
	}

	s.log.WithFields(
		logging.Field{Key: "count", Value: len(doc.Portfolios)},
		logging.Field{Key: "file", Value: filePath},
	).Debug("Loaded portfolios")
	return doc.Portfolios, nil
}

// FindPortfolio returns the portfolio with the given ID.
func (s *ConfigStore) FindPortfolio(id int64) (*models.Portfolio, error) {
	portfolios, err := s.LoadPortfolios()
	if err != nil {
		return nil, err
	}
	for _, p := range portfolios {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("portfolio %d not found", id)
}

// SaveFormats writes statement formats to the YAML file.
func (s *ConfigStore) SaveFormats(formats []*models.StatementFormat) error {
	filename := s.FormatsFile
	if filename == "" {
		filename = "formats.yaml"
	}
	return s.saveYAML(filename, formatsFileDoc{Formats: formats})
}

// SavePortfolios writes portfolios to the YAML file.
func (s *ConfigStore) SavePortfolios(portfolios []*models.Portfolio) error {
	filename := s.PortfoliosFile
	if filename == "" {
		filename = "portfolios.yaml"
	}
	return s.saveYAML(filename, portfoliosFileDoc{Portfolios: portfolios})
}

func (s *ConfigStore) saveYAML(filename string, doc interface{}) error {
	filePath, err := s.FindConfigFile(filename)
	if err != nil && err != os.ErrNotExist {
		return fmt.Errorf("error resolving %s: %w", filename, err)
	}
	if err == os.ErrNotExist {
		if filepath.IsAbs(filename) {
			filePath = filename
		} else {
			filePath = filepath.Join("config", filename)
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error marshaling %s: %w", filename, err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("error writing %s: %w", filename, err)
	}
	s.log.WithField("file", filePath).Debug("Saved configuration")
	return nil
}
