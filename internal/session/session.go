// Package session ties the render worker, the pointer controller and the
// playback unit into one editable, audible drawing.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/olivier-w/wavesketch/internal/logging"
	"github.com/olivier-w/wavesketch/internal/player"
	"github.com/olivier-w/wavesketch/internal/pointer"
	"github.com/olivier-w/wavesketch/internal/protocol"
	"github.com/olivier-w/wavesketch/internal/render"
	"github.com/olivier-w/wavesketch/internal/series"
)

// ErrEmpty is returned by operations that need a loaded drawing.
var ErrEmpty = errors.New("session: nothing loaded")

// Session owns one drawing. Edits go to the render worker; its
// notifications are applied back through Apply, which keeps a mirror of
// the samples and feeds the playback unit.
type Session struct {
	id  string
	cfg Config
	log logrus.FieldLogger

	worker *protocol.Worker
	ctl    *pointer.Controller
	cancel context.CancelFunc
	wg     sync.WaitGroup

	audio   *player.Context
	monitor *player.Monitor
	unit    *player.Unit
	device  *player.Device

	mu       sync.Mutex
	values   []float64
	height   int
	stats    series.Stats
	duration int
	closed   bool
}

// New starts a session. The render worker is running and initialised when
// New returns.
func New(cfg Config, log logrus.FieldLogger) (*Session, error) {
	cfg = cfg.withDefaults()
	id := xid.New().String()
	log = logging.OrDiscard(log).WithField("session", id)

	runCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       id,
		cfg:      cfg,
		log:      log,
		cancel:   cancel,
		duration: cfg.Duration,
	}

	s.worker = protocol.NewWorker(protocol.WithLogger(log))
	s.ctl = pointer.NewController(s.worker, cfg.Mode)
	s.monitor = player.NewMonitor(cfg.MonitorFrames, player.DefaultChannels)
	s.audio = player.NewContext(cfg.SampleRate, player.DefaultChannels,
		player.WithMonitor(s.monitor),
		player.WithContextLogger(log),
	)
	s.unit = player.NewUnit(s.audio, log)
	s.unit.SetLoop(cfg.Loop)
	s.unit.Connect(s.audio.Destination())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker.Run(runCtx)
	}()

	switch cfg.Output {
	case OutputDevice:
		d, err := player.OpenDevice(s.audio)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.device = d
	case OutputClock:
		clock := player.NewClock(s.audio, 0)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			clock.Run(runCtx)
		}()
	}

	if err := s.worker.Send(runCtx, protocol.InitSurfaces{Surfaces: render.NewSurfaces(0, 0)}); err != nil {
		s.Close()
		return nil, fmt.Errorf("init surfaces: %w", err)
	}
	log.WithFields(logrus.Fields{
		"rate":   cfg.SampleRate,
		"output": cfg.Output,
	}).Debug("session started")
	return s, nil
}

// ID returns the unique session id used in log lines.
func (s *Session) ID() string { return s.id }

// Notifications delivers the worker's notifications in order. Pass each
// one to Apply.
func (s *Session) Notifications() <-chan protocol.Notification {
	return s.worker.Notifications()
}

// Load sends a bitmap to the worker. The series arrives as ImageLoaded.
func (s *Session) Load(ctx context.Context, img image.Image) error {
	return s.worker.Send(ctx, protocol.LoadImage{Image: img})
}

// Pointer feeds one pointer event through the edit controller.
func (s *Session) Pointer(ctx context.Context, ev pointer.Event) error {
	return s.ctl.Handle(ctx, ev)
}

// Mode returns the pointer edit mode.
func (s *Session) Mode() pointer.Mode { return s.ctl.Mode() }

// ToggleMode flips between continuous and discrete editing.
func (s *Session) ToggleMode() pointer.Mode {
	m := s.ctl.Mode().Toggle()
	s.ctl.SetMode(m)
	return m
}

// View asks the worker for a braille frame of the surfaces.
func (s *Session) View(ctx context.Context, cols, rows int) ([]string, error) {
	return s.worker.View(ctx, cols, rows)
}

// Apply folds a worker notification into the session. A freshly loaded
// drawing replaces the sound at once; an edit takes over when the current
// loop iteration ends.
func (s *Session) Apply(n protocol.Notification) error {
	switch n := n.(type) {
	case protocol.ImageLoaded:
		s.mu.Lock()
		s.values = append(s.values[:0:0], n.Values...)
		s.height = n.Height
		s.stats = n.Stats
		buf := s.bufferLocked()
		rate := s.rateLocked()
		s.mu.Unlock()

		s.unit.Replace(buf, rate)
		s.log.WithField("frames", buf.Frames()).Debug("switched to new drawing")
		return nil

	case protocol.ValueRangeChanged:
		s.mu.Lock()
		if n.Start < 0 || n.Start+len(n.Values) > len(s.values) {
			s.mu.Unlock()
			return fmt.Errorf("edit [%d, %d) outside series of %d", n.Start, n.Start+len(n.Values), len(s.values))
		}
		copy(s.values[n.Start:], n.Values)
		s.stats = n.Stats
		buf := s.bufferLocked()
		s.mu.Unlock()

		s.unit.SetBuffer(buf)
		return nil

	case protocol.Failed:
		return fmt.Errorf("%T: %w", n.Message, n.Err)

	default:
		return fmt.Errorf("unknown notification %T", n)
	}
}

func (s *Session) bufferLocked() *player.Buffer {
	return player.BufferFromSeries(s.values, s.height, s.cfg.SampleRate)
}

func (s *Session) rateLocked() float64 {
	return player.RateForDuration(len(s.values), player.Durations[s.duration], s.cfg.SampleRate)
}

// Values returns a copy of the mirrored samples.
func (s *Session) Values() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.values...)
}

// Size returns the series length and the drawing height.
func (s *Session) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values), s.height
}

// Stats returns the statistics reported with the latest change.
func (s *Session) Stats() series.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Play starts the loop.
func (s *Session) Play() error {
	return s.unit.Start()
}

// Stop silences the loop.
func (s *Session) Stop() error {
	return s.unit.Stop()
}

// TogglePlay starts a stopped loop and stops a playing one.
func (s *Session) TogglePlay() error {
	if s.unit.Playing() {
		return s.unit.Stop()
	}
	return s.unit.Start()
}

// Playing reports whether the loop is audible.
func (s *Session) Playing() bool { return s.unit.Playing() }

// State returns the playback unit state.
func (s *Session) State() player.State { return s.unit.State() }

// Duration returns the selected loop length preset.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Preset(s.duration)
}

// SetDuration selects loop length preset i.
func (s *Session) SetDuration(i int) error {
	if i < 0 || i >= len(player.Durations) {
		return fmt.Errorf("duration preset %d out of range [0, %d)", i, len(player.Durations))
	}
	s.mu.Lock()
	s.duration = i
	rate := s.rateLocked()
	s.mu.Unlock()

	s.unit.SetPlaybackRate(rate)
	s.log.WithField("duration", Preset(i)).Debug("loop duration changed")
	return nil
}

// PlaybackRate is the rate the loop plays at to last Duration.
func (s *Session) PlaybackRate() float64 { return s.unit.PlaybackRate() }

// Detune returns the detune in cents.
func (s *Session) Detune() float64 { return s.unit.Detune() }

// AdjustDetune shifts the detune by delta cents.
func (s *Session) AdjustDetune(delta float64) float64 {
	d := s.unit.Detune() + delta
	s.unit.SetDetune(d)
	return s.unit.Detune()
}

// ResetDetune returns to concert pitch.
func (s *Session) ResetDetune() { s.unit.SetDetune(0) }

// Loop reports whether the drawing repeats.
func (s *Session) Loop() bool { return s.unit.Loop() }

// ToggleLoop switches between looping and one-shot playback.
func (s *Session) ToggleLoop() bool {
	loop := !s.unit.Loop()
	s.unit.SetLoop(loop)
	return loop
}

// Playhead is the position inside the loop in [0, 1).
func (s *Session) Playhead() float64 {
	return s.unit.Position()
}

// Level is the RMS level of the waveform channel over the last frames
// rendered.
func (s *Session) Level(frames int) float64 {
	return s.monitor.Level(0, frames)
}

// Volume returns the output volume, or 0 without a sound card.
func (s *Session) Volume() float64 {
	if s.device == nil {
		return 0
	}
	return s.device.Volume()
}

// AdjustVolume changes the output volume by delta.
func (s *Session) AdjustVolume(delta float64) float64 {
	if s.device == nil {
		return 0
	}
	s.device.AdjustVolume(delta)
	return s.device.Volume()
}

// Context is the render graph the unit plays through.
func (s *Session) Context() *player.Context { return s.audio }

// Export writes at least least of the loop, as it currently sounds, to w
// as a WAV file. The length is rounded up to whole loops.
func (s *Session) Export(w io.WriteSeeker, least time.Duration) error {
	buf := s.unit.Buffer()
	if buf.Frames() == 0 {
		return ErrEmpty
	}
	settings := player.Settings{Rate: s.unit.PlaybackRate(), Detune: s.unit.Detune()}
	loop := player.LoopDuration(buf, settings.Rate, settings.Detune)
	d := player.ExportLength(loop, least)
	if err := player.ExportWAV(w, buf, settings, d, s.cfg.SampleRate); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"length": d,
		"loops":  int(math.Round(float64(d) / float64(max(loop, 1)))),
	}).Info("loop exported")
	return nil
}

// Close stops the worker and releases the audio device.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.unit.Close()

	var err error
	if s.device != nil {
		err = s.device.Close()
	}
	s.log.Debug("session closed")
	return err
}
