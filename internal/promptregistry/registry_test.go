package promptregistry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pocketomega/support-agent/internal/promptregistry"
)

func TestRegistry_PullsEmbeddedDefault(t *testing.T) {
	r := promptregistry.New("", false)
	content := r.Pull("plan_system.md")
	if content == "" {
		t.Fatal("expected embedded plan_system.md to be non-empty")
	}
}

func TestRegistry_UnknownTemplateReturnsEmpty(t *testing.T) {
	r := promptregistry.New("", false)
	if got := r.Pull("does_not_exist.md"); got != "" {
		t.Errorf("expected empty string for unknown template, got %q", got)
	}
}

func TestRegistry_LocalOverrideTakesPriority(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "plan_system.md"), []byte("local override content"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := promptregistry.New(dir, true)
	if got := r.Pull("plan_system.md"); got != "local override content" {
		t.Errorf("expected local override, got %q", got)
	}
}

func TestRegistry_LocalOverrideDisabledUsesEmbedded(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "plan_system.md"), []byte("local override content"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := promptregistry.New(dir, false)
	if got := r.Pull("plan_system.md"); got == "local override content" {
		t.Error("expected embedded default when useLocal is false")
	}
}

func TestFormat_SubstitutesPlaceholders(t *testing.T) {
	out := promptregistry.Format("hello {{name}}, you have {{count}} items", map[string]string{
		"name":  "Alice",
		"count": "3",
	})
	want := "hello Alice, you have 3 items"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestFormat_LeavesUnknownPlaceholdersUntouched(t *testing.T) {
	out := promptregistry.Format("hello {{name}}", map[string]string{})
	if out != "hello {{name}}" {
		t.Errorf("expected unchanged template, got %q", out)
	}
}
