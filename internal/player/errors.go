package player

import "errors"

var (
	// ErrAlreadyPlaying is returned by Start while the unit plays.
	ErrAlreadyPlaying = errors.New("already playing")
	// ErrNotPlaying is returned by Stop while the unit is idle.
	ErrNotPlaying = errors.New("not playing")
	// ErrNoBuffer is returned by Start before any buffer was set.
	ErrNoBuffer = errors.New("no buffer")
	// ErrSourceStarted is returned when a one-shot source is started twice.
	ErrSourceStarted = errors.New("source already started")
)
