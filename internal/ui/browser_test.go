package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestBrowserSelectionReturnsMessage(t *testing.T) {
	dir := tempDir(t, "fjell.png", "notes.txt", "kick.wav")

	m := NewBrowser(dir)
	if got := len(m.list.Items()); got != 2 {
		t.Fatalf("expected 2 sketches, got %d", got)
	}

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = model.(BrowserModel)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected selection command")
	}

	msg := cmd()
	selected, ok := msg.(BrowserSelectedMsg)
	if !ok {
		t.Fatalf("expected BrowserSelectedMsg, got %T", msg)
	}
	if want := filepath.Join(dir, "kick.wav"); selected.Path != want {
		t.Fatalf("expected %s, got %q", want, selected.Path)
	}
}

func TestBrowserCancelReturnsMessage(t *testing.T) {
	m := NewBrowser(tempDir(t))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected cancel command")
	}
	if _, ok := cmd().(BrowserCancelledMsg); !ok {
		t.Fatalf("expected BrowserCancelledMsg, got %T", cmd())
	}
}

func TestBrowserDescribesItems(t *testing.T) {
	m := NewBrowser(tempDir(t, "b.webp", "A.mp3"))

	items := m.list.Items()
	first, ok := items[0].(sketchItem)
	if !ok || first.name != "A" {
		t.Fatalf("expected case-insensitive order starting with A, got %+v", items[0])
	}
	if !strings.Contains(first.Description(), "audio clip") {
		t.Fatalf("expected clip description, got %q", first.Description())
	}
	if !strings.Contains(items[1].(sketchItem).Description(), "image") {
		t.Fatalf("expected image description, got %q", items[1].(sketchItem).Description())
	}
}

func TestBrowserEmptyDirectory(t *testing.T) {
	dir := tempDir(t, "readme.md")
	m := NewBrowser(dir)
	if !m.Empty() {
		t.Fatal("expected empty browser")
	}
	if view := m.View(); !strings.Contains(view, "No images or audio clips") {
		t.Fatalf("expected empty notice, got %q", view)
	}
}

func TestBrowserMissingDirectory(t *testing.T) {
	m := NewBrowser(filepath.Join(t.TempDir(), "gone"))
	if !m.HasError() {
		t.Fatal("expected error for missing directory")
	}
}

func tempDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}
