package procedure_test

import (
	"context"
	"testing"

	"github.com/pocketomega/support-agent/internal/procedure"
)

const sampleProceduresYAML = `
procedures:
  - title: Background Check Escalation
    keywords: ["background check", "background-check", "compliance hold"]
    body: |
      Confirm the candidate's background-check status with the
      compliance tool before responding. If still pending, route to
      the compliance team rather than guessing at a timeline.
  - title: Duplicate Application Merge
    keywords: ["duplicate application", "two applications", "merge"]
    body: |
      Look up both applications by email and merge the older one into
      the newer before replying.
`

func TestYAMLStore_LookupMatchesByKeyword(t *testing.T) {
	store, err := procedure.ParseYAMLStore([]byte(sampleProceduresYAML))
	if err != nil {
		t.Fatalf("ParseYAMLStore: %v", err)
	}

	proc, ok, err := store.Lookup(context.Background(), "What's the status of my background check?")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatal("expected a match for a background-check query")
	}
	if proc.Title != "Background Check Escalation" {
		t.Errorf("expected Background Check Escalation, got %q", proc.Title)
	}
}

func TestYAMLStore_LookupNoMatch(t *testing.T) {
	store, err := procedure.ParseYAMLStore([]byte(sampleProceduresYAML))
	if err != nil {
		t.Fatalf("ParseYAMLStore: %v", err)
	}

	_, ok, err := store.Lookup(context.Background(), "Hi, just saying hello")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Error("expected no match for an unrelated greeting")
	}
}

func TestYAMLStore_EmptyDocumentNeverMatches(t *testing.T) {
	store, err := procedure.ParseYAMLStore([]byte(`procedures: []`))
	if err != nil {
		t.Fatalf("ParseYAMLStore: %v", err)
	}

	_, ok, err := store.Lookup(context.Background(), "background check status")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Error("expected no match when the fixture has no procedures")
	}
}
