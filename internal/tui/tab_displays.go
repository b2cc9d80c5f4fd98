package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/casement-dev/casement/internal/bridge"
)

// displayItem is a list item representing one connected output.
type displayItem struct {
	info bridge.DisplayInfo
}

func (i displayItem) Title() string {
	if i.info.Primary {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render("★") + " " + i.info.ID
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●") + " " + i.info.ID
}

func (i displayItem) Description() string {
	return i.info.Work.String()
}

func (i displayItem) FilterValue() string { return i.info.ID }

// DisplaysTab is the read-only sub-model for the connected-displays tab.
type DisplaysTab struct {
	list   list.Model
	width  int
	height int
}

// NewDisplaysTab creates an empty DisplaysTab; setDisplays fills it.
func NewDisplaysTab() DisplaysTab {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("15")).
		BorderForeground(lipgloss.Color("62"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("250")).
		BorderForeground(lipgloss.Color("62"))

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Displays"
	l.Styles.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)

	return DisplaysTab{list: l}
}

func (d *DisplaysTab) setDisplays(displays []bridge.DisplayInfo) {
	items := make([]list.Item, 0, len(displays))
	for _, info := range displays {
		items = append(items, displayItem{info: info})
	}
	d.list.SetItems(items)
}

// Init implements tea.Model.
func (d DisplaysTab) Init() tea.Cmd { return nil }

// Update handles messages for the displays tab.
func (d DisplaysTab) Update(msg tea.Msg) (DisplaysTab, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		d.width = msg.Width
		d.height = msg.Height
		d.list.SetSize(d.listWidth(), d.height)
		return d, nil
	}

	var cmd tea.Cmd
	d.list, cmd = d.list.Update(msg)
	return d, cmd
}

func (d DisplaysTab) listWidth() int {
	lw := d.width * 2 / 5
	if lw < 20 {
		lw = 20
	}
	return lw
}

// View implements tea.Model.
func (d DisplaysTab) View() string {
	if d.width == 0 || d.height == 0 {
		return ""
	}

	leftWidth := d.listWidth()
	rightWidth := d.width - leftWidth
	if rightWidth < 10 {
		rightWidth = 10
	}

	if len(d.list.Items()) == 0 {
		return renderEmpty("No displays reported", d.width, d.height)
	}

	left := lipgloss.NewStyle().
		Width(leftWidth).
		Height(d.height).
		Render(d.list.View())

	var right string
	if item, ok := d.list.SelectedItem().(displayItem); ok {
		right = renderDisplayDetail(item.info, rightWidth, d.height)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// renderDisplayDetail renders the right-side detail pane for the selected display.
func renderDisplayDetail(info bridge.DisplayInfo, width, height int) string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	b.WriteString(titleStyle.Render(info.ID))
	b.WriteString("\n\n")

	if info.Primary {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render("★ primary display"))
		b.WriteString("\n\n")
	}

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

	field("label:", info.Label)
	field("work area:", info.Work.String())
	field("size:", fmt.Sprintf("%d x %d", info.Work.Width, info.Work.Height))
	field("origin:", fmt.Sprintf("%d, %d", info.Work.X, info.Work.Y))

	style := lipgloss.NewStyle().
		Width(width).
		Height(height).
		Padding(1, 2).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(lipgloss.Color("236"))

	return style.Render(b.String())
}
