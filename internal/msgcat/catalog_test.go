package msgcat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalogRendersGameOver(t *testing.T) {
	c := Default()
	got, err := c.Render("gameover.win", map[string]any{"Reason": "checkmate", "HasCredits": false, "Credits": ""})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "You won by checkmate!" {
		t.Fatalf("unexpected text: %q", got)
	}
	if !c.Has("reason.timeout") {
		t.Fatalf("expected reason.timeout in embedded catalog")
	}
}

func TestRenderMissingKey(t *testing.T) {
	if _, err := Default().Render("gameover.nope", nil); err == nil {
		t.Fatalf("expected error for missing template")
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("gameover:\n  win: \"GG {{.Reason}}\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("gameover.win", map[string]any{"Reason": "timeout"})
	if err != nil || got != "GG timeout" {
		t.Fatalf("override not applied: %q err=%v", got, err)
	}
	// untouched keys still come from the embedded file
	if v, ok := c.Lookup("reason.checkmate"); !ok || v != "checkmate" {
		t.Fatalf("embedded key lost: %q ok=%v", v, ok)
	}
}

func TestOverrideDirDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	body := []byte("gameover:\n  win: \"x\"\n")
	_ = os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0o644)
	_ = os.WriteFile(filepath.Join(dir, "b.yml"), body, 0o644)
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestOverrideDirRejectsBrokenTemplate(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("gameover:\n  win: \"{{.Reason\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected template parse error")
	}
}

func TestRejectsNonStringLeaf(t *testing.T) {
	if _, err := flatten([]byte("gameover:\n  win: [1, 2]\n")); err == nil {
		t.Fatalf("expected error for list value")
	}
}
