// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-discovery/pkg/types"
)

// SessionFile is the on-disk form of an exported search session. A
// researcher can share or archive a session and load it again without
// re-running the search.
type SessionFile struct {
	Session types.SearchSession `yaml:"session"`
	Summary SessionSummary      `yaml:"summary"`
}

// SessionSummary stores counts and the export timestamp.
type SessionSummary struct {
	Strategies int       `yaml:"strategies"`
	Candidates int       `yaml:"candidates"`
	Ranked     int       `yaml:"ranked"`
	Degraded   bool      `yaml:"degraded"`
	ExportedAt time.Time `yaml:"exported_at"`
}

// WriteSessionFile saves session to path as YAML.
func WriteSessionFile(path string, session types.SearchSession) error {
	sf := SessionFile{
		Session: session,
		Summary: SessionSummary{
			Strategies: len(session.QueryStrategies),
			Candidates: session.TotalCandidates,
			Ranked:     len(session.Ranked),
			Degraded:   session.Insights.Degraded,
			ExportedAt: time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&sf)
	if err != nil {
		return fmt.Errorf("marshaling session file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSessionFile loads a session previously written by WriteSessionFile.
func ReadSessionFile(path string) (*SessionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	var sf SessionFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing session file: %w", err)
	}
	if sf.Session.ID == "" {
		return nil, fmt.Errorf("session file %s has no session id", path)
	}
	return &sf, nil
}
