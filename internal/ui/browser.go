package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/wavesketch/internal/media"
)

// BrowserSelectedMsg reports the file picked in the browser.
type BrowserSelectedMsg struct {
	Path string
}

// BrowserCancelledMsg reports that the browser was left without a pick.
type BrowserCancelledMsg struct{}

type sketchItem struct {
	name string
	ext  string
}

func (i sketchItem) Title() string { return i.name }
func (i sketchItem) Description() string {
	if media.IsClipExt(i.ext) {
		return i.ext + "  audio clip"
	}
	return i.ext + "  image"
}
func (i sketchItem) FilterValue() string { return i.name }

// BrowserModel lists the images and audio clips in a directory.
type BrowserModel struct {
	dir  string
	list list.Model
	err  error
}

// NewBrowser scans dir for files wavesketch can open.
func NewBrowser(dir string) BrowserModel {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return BrowserModel{dir: dir, err: fmt.Errorf("cannot read directory: %w", err)}
	}

	var items []list.Item
	for _, e := range entries {
		if e.IsDir() || !media.IsSupportedPath(e.Name()) {
			continue
		}
		ext := filepath.Ext(e.Name())
		items = append(items, sketchItem{
			name: strings.TrimSuffix(e.Name(), ext),
			ext:  ext,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].(sketchItem).name) < strings.ToLower(items[j].(sketchItem).name)
	})

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	l := list.New(items, delegate, 80, 20)
	l.Title = "wavesketch"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("sketch", "sketches")
	l.Styles.Title = headerStyle

	return BrowserModel{dir: dir, list: l}
}

// HasError returns true if the browser could not be initialized.
func (m BrowserModel) HasError() bool {
	return m.err != nil
}

// Error returns the initialization error, if any.
func (m BrowserModel) Error() error {
	return m.err
}

// Empty reports whether there is nothing to pick.
func (m BrowserModel) Empty() bool {
	return len(m.list.Items()) == 0
}

func (m BrowserModel) Init() tea.Cmd {
	return tea.SetWindowTitle("wavesketch")
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Don't intercept keys when filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			item, ok := m.list.SelectedItem().(sketchItem)
			if !ok {
				return m, nil
			}
			path := filepath.Join(m.dir, item.name+item.ext)
			return m, func() tea.Msg { return BrowserSelectedMsg{Path: path} }
		case "q", "esc", "ctrl+c":
			return m, func() tea.Msg { return BrowserCancelledMsg{} }
		}

	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m BrowserModel) View() string {
	if m.Empty() {
		return fmt.Sprintf("\n  %s\n\n  %s\n\n  %s\n",
			headerStyle.Render("wavesketch"),
			statusStyle.Render("No images or audio clips in "+m.dir),
			helpStyle.Render("supported: "+media.SupportedExtsList()+"  ·  q quit"),
		)
	}
	return m.list.View()
}
