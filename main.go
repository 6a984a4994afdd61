package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/wavesketch/internal/logging"
	"github.com/olivier-w/wavesketch/internal/media"
	"github.com/olivier-w/wavesketch/internal/pointer"
	"github.com/olivier-w/wavesketch/internal/session"
	"github.com/olivier-w/wavesketch/internal/ui"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: wavesketch [flags] [image or clip]\n\n")
	fmt.Fprintf(os.Stderr, "Draw a waveform and hear it loop. Supported: %s\n\n", media.SupportedExtsList())
	flag.PrintDefaults()
}

func main() {
	var (
		duration   = flag.Duration("duration", 20*time.Millisecond, "loop length, one of the presets from 1ms to 1s")
		discrete   = flag.Bool("discrete", false, "start in point mode instead of line mode")
		noLoop     = flag.Bool("once", false, "play the loop once instead of repeating")
		noAudio    = flag.Bool("no-audio", false, "run the audio graph without an output device")
		clipLength = flag.Duration("clip", media.DefaultClipOptions().MaxDuration, "how much of an audio clip to trace")
		export     = flag.String("export", "", "write the loop to this WAV file and exit")
		exportLen  = flag.Duration("export-length", session.DefaultExportLength, "least audio written by -export")
	)
	flag.Usage = usage
	flag.Parse()

	log, closeLog, err := logging.New(logging.FromEnv())
	if err != nil {
		fail(err)
	}
	defer closeLog()

	cfg := session.DefaultConfig()
	idx, err := session.DurationIndex(*duration)
	if err != nil {
		fail(err)
	}
	cfg.Duration = idx
	cfg.Loop = !*noLoop
	if *discrete {
		cfg.Mode = pointer.Discrete
	}
	if *noAudio {
		cfg.Output = session.OutputClock
	}

	clip := media.DefaultClipOptions()
	clip.MaxDuration = *clipLength

	cwd, err := os.Getwd()
	if err != nil {
		fail(err)
	}
	opts := options{session: cfg, clip: clip, exportDir: cwd, log: log}

	if *export != "" {
		if flag.NArg() < 1 {
			fail(fmt.Errorf("-export needs an image or clip to render"))
		}
		if err := exportSketch(flag.Arg(0), *export, *exportLen, opts); err != nil {
			fail(err)
		}
		fmt.Printf("Saved to %s\n", *export)
		return
	}

	var model tea.Model
	if flag.NArg() < 1 {
		model = newStartupModel(cwd, opts)
	} else {
		path := flag.Arg(0)
		if abs, err := filepath.Abs(path); err == nil {
			opts.exportDir = filepath.Dir(abs)
		}
		editor, err := buildEditorModel(path, opts)
		if err != nil {
			fail(err)
		}
		model = editor
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := program.Run()
	closeFinal(final)
	if err != nil {
		fail(err)
	}
}

// closeFinal releases the session held by whichever screen the program
// ended on.
func closeFinal(m tea.Model) {
	editor, ok := m.(ui.Model)
	if !ok || editor.Session() == nil {
		return
	}
	editor.Session().Close()
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
