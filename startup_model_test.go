package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/wavesketch/internal/logging"
	"github.com/olivier-w/wavesketch/internal/media"
	"github.com/olivier-w/wavesketch/internal/protocol"
	"github.com/olivier-w/wavesketch/internal/session"
	"github.com/olivier-w/wavesketch/internal/ui"
)

func testOptions(t *testing.T) options {
	t.Helper()
	return options{
		session: session.Config{
			SampleRate: 1000,
			Duration:   9,
			Loop:       true,
			Output:     session.OutputNone,
		},
		clip:      media.DefaultClipOptions(),
		exportDir: t.TempDir(),
		log:       logging.Discard(),
	}
}

// writeSketch writes a 16×32 PNG with a flat white line at row 8.
func writeSketch(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.Black)
		}
	}
	for x := 0; x < 16; x++ {
		img.Set(x, 8, color.White)
	}
	path := filepath.Join(dir, "line.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestStartupModelSelectionEntersOpeningPhase(t *testing.T) {
	m := newStartupModel(t.TempDir(), testOptions(t))
	model, cmd := m.Update(ui.BrowserSelectedMsg{Path: "line.png"})
	if cmd == nil {
		t.Fatal("expected opening command")
	}

	startup, ok := model.(startupModel)
	if !ok {
		t.Fatalf("expected startupModel, got %T", model)
	}
	if startup.phase != phaseOpening {
		t.Fatalf("expected phaseOpening, got %v", startup.phase)
	}
	if !strings.Contains(startup.View(), "Opening line.png") {
		t.Fatalf("expected opening notice, got %q", startup.View())
	}
}

func TestStartupModelErrorReturnsToBrowsePhase(t *testing.T) {
	m := newStartupModel(t.TempDir(), testOptions(t))
	m.phase = phaseOpening

	model, cmd := m.Update(startupResolvedMsg{err: errBoom{}})
	if cmd != nil {
		t.Fatal("expected no command on error return")
	}

	startup := model.(startupModel)
	if startup.phase != phaseBrowse {
		t.Fatalf("expected phaseBrowse, got %v", startup.phase)
	}
	if startup.errMsg == "" {
		t.Fatal("expected error message")
	}
}

func TestStartupModelQuitWhileOpening(t *testing.T) {
	m := newStartupModel(t.TempDir(), testOptions(t))
	m.phase = phaseOpening

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestOpenSelectionBuildsEditor(t *testing.T) {
	opts := testOptions(t)
	path := writeSketch(t, t.TempDir())

	msg, ok := openSelectionCmd(path, opts)().(startupResolvedMsg)
	if !ok {
		t.Fatal("expected startupResolvedMsg")
	}
	if msg.err != nil {
		t.Fatalf("open error = %v", msg.err)
	}
	s := msg.model.Session()
	defer s.Close()

	select {
	case n := <-s.Notifications():
		if _, ok := n.(protocol.ImageLoaded); !ok {
			t.Fatalf("expected ImageLoaded, got %T", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification")
	}
}

func TestOpenSelectionRejectsUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	msg := openSelectionCmd(path, testOptions(t))().(startupResolvedMsg)
	if msg.err == nil || !strings.Contains(msg.err.Error(), "unsupported") {
		t.Fatalf("expected unsupported format error, got %v", msg.err)
	}
}

func TestExportSketchWritesWAV(t *testing.T) {
	dir := t.TempDir()
	path := writeSketch(t, dir)
	dest := filepath.Join(dir, "out.wav")

	if err := exportSketch(path, dest, time.Second, testOptions(t)); err != nil {
		t.Fatalf("exportSketch() error = %v", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	// About 1000 stereo 16-bit frames after the 44 byte header.
	if info.Size() < 44+3800 {
		t.Fatalf("expected about one second of audio, got %d bytes", info.Size())
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
