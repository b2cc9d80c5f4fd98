package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/casement-dev/casement/internal/bridge"
)

// Tab identifies a dashboard tab.
type Tab int

const (
	TabWindows Tab = iota
	TabDisplays
	TabSettings
	tabCount // sentinel for iteration
)

func (t Tab) String() string {
	switch t {
	case TabWindows:
		return "Windows"
	case TabDisplays:
		return "Displays"
	case TabSettings:
		return "Settings"
	default:
		return "?"
	}
}

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Background(lipgloss.Color("236")).
				Padding(0, 2)

	tabBarStyle = lipgloss.NewStyle().
			MarginBottom(1)

	tabGap = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		SetString(" ")

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// renderTabBar renders the tab bar with the given active tab and width.
func renderTabBar(active Tab, width int) string {
	var tabs []string
	for i := Tab(0); i < tabCount; i++ {
		label := fmt.Sprintf("%d:%s", int(i)+1, i.String())
		if i == active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, intersperse(tabs, tabGap.Render())...)
	return tabBarStyle.Width(width).Render(row)
}

// intersperse inserts sep between each element of items.
func intersperse(items []string, sep string) []string {
	if len(items) <= 1 {
		return items
	}
	result := make([]string, 0, len(items)*2-1)
	for i, item := range items {
		if i > 0 {
			result = append(result, sep)
		}
		result = append(result, item)
	}
	return result
}

// renderStatusBar renders the daemon connection status bar.
func renderStatusBar(connected bool, status *bridge.StatusInfo, lastError string, width int) string {
	var line string
	switch {
	case connected && status != nil:
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		parts := []string{dot + " daemon connected"}
		if status.Version != "" {
			parts = append(parts, "v"+status.Version)
		}
		parts = append(parts,
			fmt.Sprintf("windows:%d", status.WindowCount),
			fmt.Sprintf("displays:%d", status.DisplayCount))
		if status.Draining {
			warn := lipgloss.NewStyle().Foreground(lipgloss.Color("178")).Render("draining")
			parts = append(parts, warn)
		}
		line = strings.Join(parts, "  ")
	case lastError != "":
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("●")
		line = dot + " " + lastError
	default:
		dot := dimStyle.Render("●")
		line = dot + " daemon not running"
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(line)
}

// renderHelpBar renders the bottom help/keybinding bar.
func renderHelpBar(width int) string {
	help := "tab/shift-tab: switch tabs  1-3: jump to tab  r: refresh  q/ctrl-c: quit"
	style := lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	return style.Render(help)
}

// renderEmpty renders centered placeholder content for an empty tab.
func renderEmpty(msg string, width, height int) string {
	style := lipgloss.NewStyle().
		Width(width).
		Height(height).
		Foreground(lipgloss.Color("241")).
		Align(lipgloss.Center, lipgloss.Center)
	return style.Render(msg)
}
