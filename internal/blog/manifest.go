package blog

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/sha1n/relic-posts/internal/artifact"
)

const (
	// ManifestVersion is the current schema version
	ManifestVersion = 1

	// ManifestFilename is the manifest file name under the output dir
	ManifestFilename = "manifest.json"
)

// Manifest records the outcome of the last build of each language.
type Manifest struct {
	Version   int                  `json:"version"`
	LastBuild time.Time            `json:"last_build"`
	Langs     map[string]LangState `json:"langs"`
	mu        sync.RWMutex         `json:"-"`
}

// LangState is the build state of one language.
type LangState struct {
	BuiltAt      time.Time `json:"built_at"`
	PostCount    int       `json:"post_count"`
	TermCount    int       `json:"term_count"`
	RelatedBytes int       `json:"related_bytes"`
	SearchBytes  int       `json:"search_bytes"`
	Error        string    `json:"error,omitempty"`
}

// NewManifest creates a new empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		Version: ManifestVersion,
		Langs:   make(map[string]LangState),
	}
}

// LoadManifest reads a manifest from disk, or creates a new one if it doesn't exist.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewManifest(), nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if manifest.Langs == nil {
		manifest.Langs = make(map[string]LangState)
	}
	return &manifest, nil
}

// Save writes the manifest under the output root atomically.
func (m *Manifest) Save(root string) error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := artifact.WriteFile(root, "/"+ManifestFilename, data); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

// LangState returns the state of a language and whether it was ever built.
func (m *Manifest) LangState(lang string) (LangState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.Langs[lang]
	return state, ok
}

// SetLangState records a successful build of a language.
func (m *Manifest) SetLangState(lang string, state LangState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state.Error = ""
	m.Langs[lang] = state
}

// SetLangError records a failed build, keeping the previous counts.
func (m *Manifest) SetLangError(lang string, err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.Langs[lang]
	state.Error = err
	m.Langs[lang] = state
}

// RemoveStaleLangs drops languages that are no longer configured and
// returns their codes.
func (m *Manifest) RemoveStaleLangs(codes []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []string
	for lang := range m.Langs {
		if !slices.Contains(codes, lang) {
			removed = append(removed, lang)
		}
	}
	for _, lang := range removed {
		delete(m.Langs, lang)
	}
	slices.Sort(removed)
	return removed
}

// UpdateLastBuild sets the last build timestamp.
func (m *Manifest) UpdateLastBuild(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastBuild = t
}

// LangsWithErrors returns the error of every language whose last build failed.
func (m *Manifest) LangsWithErrors() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]string)
	for lang, state := range m.Langs {
		if state.Error != "" {
			result[lang] = state.Error
		}
	}
	return result
}
