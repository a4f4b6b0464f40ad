package signatures

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
	"gopkg.in/yaml.v3"
)

// Loader loads signatures from YAML files
type Loader struct {
	signaturesPath string
}

// NewLoader creates a new signature loader
func NewLoader(signaturesPath string) *Loader {
	return &Loader{
		signaturesPath: signaturesPath,
	}
}

// SignatureFile represents a YAML signature file
type SignatureFile struct {
	Hashes []models.HashSignature `yaml:"hashes"`
	Names  models.NameRules       `yaml:"names"`
}

// Set is everything loaded from the signatures directory merged with the built-in hashes
type Set struct {
	Hashes *HashDatabase
	Names  models.NameRules
	Files  []string
}

// Load loads the built-in hash database and merges every signature file found
// under the signatures directory. A missing or empty path yields the built-ins only.
func (l *Loader) Load() (*Set, error) {
	set := &Set{Hashes: NewBuiltinDatabase()}

	if l.signaturesPath == "" {
		set.Hashes.Seal()
		return set, nil
	}

	// Check if signatures path exists
	if _, err := os.Stat(l.signaturesPath); os.IsNotExist(err) {
		set.Hashes.Seal()
		return set, nil
	}

	err := filepath.Walk(l.signaturesPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories and non-YAML files
		if info.IsDir() || (filepath.Ext(path) != ".yaml" && filepath.Ext(path) != ".yml") {
			return nil
		}

		if err := l.loadFile(path, set); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		set.Files = append(set.Files, path)

		return nil
	})
	if err != nil {
		return nil, err
	}

	set.Hashes.Seal()
	return set, nil
}

// loadFile loads signatures from a single YAML file
func (l *Loader) loadFile(path string, set *Set) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var sigFile SignatureFile
	if err := yaml.Unmarshal(data, &sigFile); err != nil {
		return err
	}

	for _, sig := range sigFile.Hashes {
		if err := set.Hashes.Add(sig); err != nil {
			return fmt.Errorf("failed to add hash %q: %w", sig.Digest, err)
		}
	}
	set.Names.Merge(sigFile.Names)

	return nil
}
