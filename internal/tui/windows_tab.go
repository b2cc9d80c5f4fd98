package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/casement-dev/casement/internal/bridge"
)

// windowItem is a list item representing one managed window.
type windowItem struct {
	info bridge.WindowInfo
}

func (i windowItem) Title() string {
	title := i.info.Title
	if title == "" {
		title = "(untitled)"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●") + " " + title
}

func (i windowItem) Description() string {
	parts := []string{}
	if i.info.AppID != "" {
		parts = append(parts, i.info.AppID)
	}
	if i.info.PID != 0 {
		parts = append(parts, fmt.Sprintf("pid %d", i.info.PID))
	}
	parts = append(parts, i.info.Bounds.String())
	return strings.Join(parts, "  ")
}

func (i windowItem) FilterValue() string { return i.info.Title }

// WindowsTab is the sub-model for the managed-windows tab.
type WindowsTab struct {
	client *bridge.Client
	list   list.Model
	width  int
	height int
}

// NewWindowsTab creates a WindowsTab backed by the daemon client.
func NewWindowsTab(client *bridge.Client) WindowsTab {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("15")).
		BorderForeground(lipgloss.Color("62"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("250")).
		BorderForeground(lipgloss.Color("62"))

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Windows"
	l.Styles.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)

	return WindowsTab{
		client: client,
		list:   l,
	}
}

// setWindows replaces the window snapshot after a poll. The list keeps
// the cursor position, clamped to the new length.
func (w *WindowsTab) setWindows(windows []bridge.WindowInfo) {
	items := make([]list.Item, 0, len(windows))
	for _, info := range windows {
		items = append(items, windowItem{info: info})
	}
	w.list.SetItems(items)
}

// Init implements tea.Model.
func (w WindowsTab) Init() tea.Cmd { return nil }

// Update handles messages for the windows tab.
func (w WindowsTab) Update(msg tea.Msg) (WindowsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		w.list.SetSize(w.listWidth(), w.height)
		return w, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if item, ok := w.list.SelectedItem().(windowItem); ok {
				return w, w.raiseCmd(item.info.Handle)
			}
			return w, nil
		case "x", "delete":
			if item, ok := w.list.SelectedItem().(windowItem); ok {
				return w, w.closeCmd(item.info.Handle)
			}
			return w, nil
		}
	}

	var cmd tea.Cmd
	w.list, cmd = w.list.Update(msg)
	return w, cmd
}

func (w WindowsTab) raiseCmd(handle string) tea.Cmd {
	client := w.client
	return func() tea.Msg {
		return actionMsg{err: client.Raise(handle)}
	}
}

// closeCmd asks the application to exit. The row stays until the daemon
// observes the window gone, so a stubborn window simply remains listed.
func (w WindowsTab) closeCmd(handle string) tea.Cmd {
	client := w.client
	return func() tea.Msg {
		return actionMsg{err: client.CloseWindow(handle)}
	}
}

func (w WindowsTab) listWidth() int {
	lw := w.width * 2 / 5
	if lw < 20 {
		lw = 20
	}
	return lw
}

// View implements tea.Model.
func (w WindowsTab) View() string {
	if w.width == 0 || w.height == 0 {
		return ""
	}

	leftWidth := w.listWidth()
	rightWidth := w.width - leftWidth
	if rightWidth < 10 {
		rightWidth = 10
	}

	left := lipgloss.NewStyle().
		Width(leftWidth).
		Height(w.height).
		Render(w.list.View())

	var right string
	if item, ok := w.list.SelectedItem().(windowItem); ok {
		right = renderWindowDetail(item.info, rightWidth, w.height)
	} else {
		right = lipgloss.NewStyle().
			Width(rightWidth).
			Height(w.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No managed windows\nUse 'casement open' to launch one")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// renderWindowDetail renders the right-side detail pane for the selected window.
func renderWindowDetail(info bridge.WindowInfo, width, height int) string {
	var b strings.Builder

	title := info.Title
	if title == "" {
		title = "(untitled)"
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("248")).Width(12)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	field("handle:", info.Handle)
	field("app:", info.AppID)
	if info.PID != 0 {
		field("pid:", fmt.Sprintf("%d", info.PID))
	}
	field("window:", fmt.Sprintf("0x%x", info.ID))
	field("bounds:", info.Bounds.String())

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	b.WriteString(helpStyle.Render("enter: raise  x: close"))

	style := lipgloss.NewStyle().
		Width(width).
		Height(height).
		Padding(1, 2).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(lipgloss.Color("236"))

	return style.Render(b.String())
}
