package procedure

import (
	"context"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlDocument is the on-disk shape of a procedures fixture: a flat list
// of SOPs, each tagged with the keywords that should match it.
type yamlDocument struct {
	Procedures []yamlProcedure `yaml:"procedures"`
}

type yamlProcedure struct {
	Title    string   `yaml:"title"`
	Body     string   `yaml:"body"`
	Keywords []string `yaml:"keywords"`
}

// YAMLStore is a Store backed by a small YAML-encoded table of internal
// SOPs, matched against the conversation subject/query by keyword
// overlap. It is intentionally simple — a real deployment's procedure
// store is a RAG index over a much larger knowledge base — but it gives
// this orchestrator a genuine, testable Store beyond NoopStore.
type YAMLStore struct {
	procedures []yamlProcedure
}

// ParseYAMLStore decodes a procedures fixture from raw YAML bytes.
func ParseYAMLStore(data []byte) (*YAMLStore, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &YAMLStore{procedures: doc.Procedures}, nil
}

// LoadYAMLStore reads and parses a procedures fixture from disk.
func LoadYAMLStore(path string) (*YAMLStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAMLStore(data)
}

// Lookup scores every procedure by the number of its keywords that
// appear (case-insensitively) in query, and returns the best match.
// ok is false when nothing scores above zero, matching NoopStore's
// "no procedure store configured" contract for the no-match case.
func (s *YAMLStore) Lookup(_ context.Context, query string) (Procedure, bool, error) {
	if s == nil || len(s.procedures) == 0 {
		return Procedure{}, false, nil
	}

	lowerQuery := strings.ToLower(query)

	var best yamlProcedure
	bestScore := 0
	for _, p := range s.procedures {
		score := 0
		for _, kw := range p.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lowerQuery, strings.ToLower(kw)) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = p
		}
	}

	if bestScore == 0 {
		return Procedure{}, false, nil
	}

	total := len(best.Keywords)
	if total == 0 {
		total = 1
	}
	return Procedure{
		Title: best.Title,
		Body:  best.Body,
		Score: float64(bestScore) / float64(total),
	}, true, nil
}
