package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/olivier-w/wavesketch/internal/media"
	"github.com/olivier-w/wavesketch/internal/protocol"
	"github.com/olivier-w/wavesketch/internal/session"
	"github.com/olivier-w/wavesketch/internal/ui"
)

// options is everything the command line decides.
type options struct {
	session session.Config
	clip    media.ClipOptions
	// exportDir receives files written with the export key.
	exportDir string
	log       logrus.FieldLogger
}

const loadTimeout = 10 * time.Second

func checkPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if !media.IsSupportedPath(path) {
		return fmt.Errorf("unsupported format %s (supported: %s)", filepath.Ext(path), media.SupportedExtsList())
	}
	return nil
}

// openSession decodes path and starts a session with it loaded.
func openSession(path string, opts options) (*session.Session, media.Sketch, error) {
	if err := checkPath(path); err != nil {
		return nil, media.Sketch{}, err
	}
	sk, err := media.Open(path, opts.clip)
	if err != nil {
		return nil, media.Sketch{}, err
	}
	s, err := session.New(opts.session, opts.log)
	if err != nil {
		return nil, media.Sketch{}, fmt.Errorf("error creating session: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	if err := s.Load(ctx, sk.Image); err != nil {
		s.Close()
		return nil, media.Sketch{}, fmt.Errorf("loading %s: %w", filepath.Base(path), err)
	}
	return s, sk, nil
}

// buildEditorModel opens path for interactive editing. The drawing screen
// applies the pending ImageLoaded itself.
func buildEditorModel(path string, opts options) (ui.Model, error) {
	s, sk, err := openSession(path, opts)
	if err != nil {
		return ui.Model{}, err
	}
	return ui.New(s, sk, opts.exportDir), nil
}

// exportSketch renders path to a WAV file without a terminal UI.
func exportSketch(path, dest string, least time.Duration, opts options) error {
	opts.session.Output = session.OutputNone
	s, _, err := openSession(path, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := awaitLoaded(s); err != nil {
		return err
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if err := s.Export(f, least); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func awaitLoaded(s *session.Session) error {
	timeout := time.After(loadTimeout)
	for {
		select {
		case n, ok := <-s.Notifications():
			if !ok {
				return protocol.ErrStopped
			}
			if err := s.Apply(n); err != nil {
				return err
			}
			if _, loaded := n.(protocol.ImageLoaded); loaded {
				return nil
			}
		case <-timeout:
			return fmt.Errorf("no series after %v", loadTimeout)
		}
	}
}
