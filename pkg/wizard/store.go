package wizard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/formrunner/pkg/logging"
)

// Directory layout written by the discovery agent. Structures and their
// paired user-data schema contracts live side by side under the wizards
// root:
//
//	<root>/wizard-structures/<wizard-id>.json
//	<root>/data-schemas/<wizard-id>-schema.json
const (
	structuresDir = "wizard-structures"
	schemasDir    = "data-schemas"
)

// Store is a read-only view over the wizard directory layout. It never
// writes; the discovery agent owns the files.
type Store struct {
	root   string
	logger *logging.Logger
}

// Summary is the listing entry for one stored wizard.
type Summary struct {
	WizardID     string    `json:"wizard_id"`
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	TotalPages   int       `json:"total_pages"`
	DiscoveredAt time.Time `json:"discovered_at,omitempty"`
}

// NewStore creates a store rooted at the wizards directory.
func NewStore(root string) *Store {
	logger, _ := logging.NewLogger("wizard-store")
	return &Store{root: root, logger: logger}
}

// StructurePath returns the path of a wizard's structure file.
func (s *Store) StructurePath(wizardID string) string {
	return filepath.Join(s.root, structuresDir, wizardID+".json")
}

// SchemaPath returns the path of a wizard's user-data schema contract.
func (s *Store) SchemaPath(wizardID string) string {
	return filepath.Join(s.root, schemasDir, wizardID+"-schema.json")
}

// List returns summaries for every loadable wizard structure. Files that
// fail to decode are skipped with a warning so one corrupt structure does
// not hide the rest.
func (s *Store) List() ([]Summary, error) {
	dir := filepath.Join(s.root, structuresDir)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("wizards directory not found: %s", dir)
		}
		return nil, fmt.Errorf("failed to read wizards directory: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list wizard structures: %w", err)
	}

	summaries := make([]Summary, 0, len(matches))
	for _, path := range matches {
		w, err := LoadFile(path)
		if err != nil {
			s.logger.Warnf("Skipping unreadable wizard structure %s: %v", filepath.Base(path), err)
			continue
		}
		summaries = append(summaries, Summary{
			WizardID:     w.WizardID,
			Name:         w.Name,
			URL:          w.URL,
			TotalPages:   w.TotalPages,
			DiscoveredAt: w.DiscoveredAt,
		})
	}

	return summaries, nil
}

// Load reads and validates the structure for one wizard.
func (s *Store) Load(wizardID string) (*Wizard, error) {
	path := s.StructurePath(wizardID)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("wizard not found: %s", wizardID)
	}
	return LoadFile(path)
}

// SchemaJSON reads the raw user-data schema contract for one wizard.
func (s *Store) SchemaJSON(wizardID string) ([]byte, error) {
	path := s.SchemaPath(wizardID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("schema not found for wizard %q (expected at %s)", wizardID, path)
		}
		return nil, fmt.Errorf("failed to read schema for wizard %q: %w", wizardID, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("schema for wizard %q is empty", wizardID)
	}
	return data, nil
}
