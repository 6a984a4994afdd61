package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Play       key.Binding
	Preset     key.Binding
	Shorter    key.Binding
	Longer     key.Binding
	DetuneDown key.Binding
	DetuneUp   key.Binding
	Reset      key.Binding
	Mode       key.Binding
	Loop       key.Binding
	Export     key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Play: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "play/stop"),
		),
		Preset: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9", "0"),
			key.WithHelp("1-0", "loop length"),
		),
		Shorter: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "shorter"),
		),
		Longer: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "longer"),
		),
		DetuneDown: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "detune -"),
		),
		DetuneUp: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "detune +"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset detune"),
		),
		Mode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "line/point"),
		),
		Loop: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "loop"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export wav"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("up", "k", "+"),
			key.WithHelp("↑", "vol +"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("down", "j", "-"),
			key.WithHelp("↓", "vol -"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Preset, k.DetuneDown, k.DetuneUp, k.Mode, k.Export, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Loop, k.Mode, k.Export},
		{k.Preset, k.Shorter, k.Longer},
		{k.DetuneDown, k.DetuneUp, k.Reset},
		{k.VolumeUp, k.VolumeDown, k.Help, k.Quit},
	}
}

// presetKey maps a number key to a loop length preset: 1 is the shortest,
// 0 the tenth.
func presetKey(msg tea.KeyMsg) (int, bool) {
	s := msg.String()
	if len(s) != 1 || s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	if s[0] == '0' {
		return 9, true
	}
	return int(s[0] - '1'), true
}
