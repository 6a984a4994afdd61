package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/wavesketch/internal/protocol"
	"github.com/olivier-w/wavesketch/internal/session"
)

type tickMsg time.Time

type notificationMsg struct {
	note protocol.Notification
}

type workerStoppedMsg struct{}

type frameMsg struct {
	lines []string
	err   error
}

type exportedMsg struct {
	path string
	err  error
}

const (
	tickInterval = 50 * time.Millisecond
	viewTimeout  = time.Second
)

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForNotification(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-s.Notifications()
		if !ok {
			return workerStoppedMsg{}
		}
		return notificationMsg{note: n}
	}
}

func frameCmd(s *session.Session, cols, rows int) tea.Cmd {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), viewTimeout)
		defer cancel()
		lines, err := s.View(ctx, cols, rows)
		return frameMsg{lines: lines, err: err}
	}
}
