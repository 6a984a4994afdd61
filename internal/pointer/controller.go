// Package pointer turns raw pointer events into edit requests.
package pointer

import (
	"context"
	"fmt"

	"github.com/olivier-w/wavesketch/internal/protocol"
)

// State is the pointer lifecycle state.
type State int

const (
	Idle State = iota
	Pressed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Mode selects what a drag sends.
type Mode int

const (
	// Continuous sends line edits so fast drags leave no gaps.
	Continuous Mode = iota
	// Discrete sends a point edit per reported position.
	Discrete
)

func (m Mode) String() string {
	if m == Discrete {
		return "discrete"
	}
	return "continuous"
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == Discrete {
		return Continuous
	}
	return Discrete
}

// Kind is the pointer event type.
type Kind int

const (
	Press Kind = iota
	Move
	Release
	Out
)

// Event is a pointer event in surface coordinates.
type Event struct {
	Kind Kind
	X, Y int
}

// Position is the last captured pointer position.
type Position struct {
	X, Y int
}

// Step is the transition function of the pointer state machine. It holds no
// state of its own.
func Step(state State, anchor Position, mode Mode, ev Event) (State, Position, []protocol.Message) {
	switch ev.Kind {
	case Press:
		pos := Position{X: ev.X, Y: ev.Y}
		return Pressed, pos, []protocol.Message{protocol.PointEdit{X: ev.X, Y: ev.Y}}
	case Move:
		if state != Pressed {
			return state, anchor, nil
		}
		pos := Position{X: ev.X, Y: ev.Y}
		if mode == Discrete {
			return Pressed, pos, []protocol.Message{protocol.PointEdit{X: ev.X, Y: ev.Y}}
		}
		return Pressed, pos, []protocol.Message{protocol.LineEdit{X: ev.X, Y: ev.Y}}
	case Release, Out:
		return Idle, anchor, nil
	default:
		return state, anchor, nil
	}
}

// Sender delivers edit requests, typically a *protocol.Worker.
type Sender interface {
	Send(ctx context.Context, m protocol.Message) error
}

// Controller feeds events through Step and forwards the resulting requests.
// It must be driven from a single goroutine.
type Controller struct {
	sender Sender
	mode   Mode
	state  State
	anchor Position
}

// NewController returns an idle controller.
func NewController(sender Sender, mode Mode) *Controller {
	return &Controller{sender: sender, mode: mode}
}

// Handle applies ev and sends whatever it produced, in order.
func (c *Controller) Handle(ctx context.Context, ev Event) error {
	var msgs []protocol.Message
	c.state, c.anchor, msgs = Step(c.state, c.anchor, c.mode, ev)
	for _, m := range msgs {
		if err := c.sender.Send(ctx, m); err != nil {
			return fmt.Errorf("send %T: %w", m, err)
		}
	}
	return nil
}

func (c *Controller) State() State   { return c.state }
func (c *Controller) Mode() Mode     { return c.mode }
func (c *Controller) SetMode(m Mode) { c.mode = m }
