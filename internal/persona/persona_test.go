package persona

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestInlinePrompt(t *testing.T) {
	loader, err := New("  You speak plainly.  ", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	if loader.Prompt() != "You speak plainly." {
		t.Fatalf("unexpected prompt: %q", loader.Prompt())
	}
}

func TestFilePromptWinsOverInline(t *testing.T) {
	promptFile := filepath.Join(t.TempDir(), "persona.md")
	if err := os.WriteFile(promptFile, []byte("You are terse.\n"), 0o644); err != nil {
		t.Fatalf("write prompt file: %v", err)
	}

	loader, err := New("inline prompt", promptFile, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	if loader.Prompt() != "You are terse." {
		t.Fatalf("unexpected prompt: %q", loader.Prompt())
	}
}

func TestMissingPromptFileFails(t *testing.T) {
	if _, err := New("", filepath.Join(t.TempDir(), "absent.md"), slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatal("expected error for missing prompt file")
	}
}

func TestEmptyPromptFileFails(t *testing.T) {
	promptFile := filepath.Join(t.TempDir(), "persona.md")
	if err := os.WriteFile(promptFile, []byte("   \n"), 0o644); err != nil {
		t.Fatalf("write prompt file: %v", err)
	}
	if _, err := New("", promptFile, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatal("expected error for empty prompt file")
	}
}

func TestReloadPicksUpNewContent(t *testing.T) {
	promptFile := filepath.Join(t.TempDir(), "persona.md")
	if err := os.WriteFile(promptFile, []byte("first"), 0o644); err != nil {
		t.Fatalf("write prompt file: %v", err)
	}
	loader, err := New("", promptFile, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}

	if err := os.WriteFile(promptFile, []byte("second"), 0o644); err != nil {
		t.Fatalf("rewrite prompt file: %v", err)
	}
	if err := loader.reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loader.Prompt() != "second" {
		t.Fatalf("unexpected prompt after reload: %q", loader.Prompt())
	}
}
