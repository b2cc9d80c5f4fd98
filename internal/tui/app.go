package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/casement-dev/casement/internal/bridge"
)

const refreshInterval = 2 * time.Second

// tickMsg schedules the next poll.
type tickMsg struct{}

// refreshMsg carries one poll's worth of daemon state.
type refreshMsg struct {
	status   *bridge.StatusInfo
	windows  []bridge.WindowInfo
	displays []bridge.DisplayInfo
	settings map[string]any
	err      error
}

// actionMsg reports a completed window or settings action.
type actionMsg struct {
	err error
}

// model is the root bubbletea model for the dashboard.
type model struct {
	client *bridge.Client

	activeTab Tab

	windowsTab  WindowsTab
	displaysTab DisplaysTab
	settingsTab SettingsTab

	connected bool
	status    *bridge.StatusInfo
	lastError string

	width  int
	height int
}

func newModel(client *bridge.Client) model {
	return model{
		client:      client,
		activeTab:   TabWindows,
		windowsTab:  NewWindowsTab(client),
		displaysTab: NewDisplaysTab(),
		settingsTab: NewSettingsTab(client),
	}
}

// Run starts the dashboard, blocking until the user quits.
func Run(client *bridge.Client) error {
	p := tea.NewProgram(newModel(client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// refreshCmd polls the daemon off the update loop. Partial failures keep
// the data that did arrive; only the status probe decides connectedness.
func refreshCmd(client *bridge.Client) tea.Cmd {
	return func() tea.Msg {
		status, err := client.Status()
		if err != nil {
			return refreshMsg{err: err}
		}
		msg := refreshMsg{status: status}
		if windows, err := client.Windows(); err == nil {
			msg.windows = windows
		}
		if displays, err := client.Displays(); err == nil {
			msg.displays = displays
		}
		if settings, err := client.Settings(); err == nil {
			msg.settings = settings
		}
		return msg
	}
}

// contentHeight returns the height available for tab content.
func (m model) contentHeight() int {
	// Status bar (1) + tab bar (2 with margin) + help bar (1).
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(refreshCmd(m.client), tick())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// An open settings form captures all input; only ctrl+c escapes.
	if m.activeTab == TabSettings && m.settingsTab.editing {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		case tea.WindowSizeMsg:
			m.setSize(msg.Width, msg.Height)
			return m, nil
		case tickMsg:
			// Keep polling in the background, but do not touch the
			// settings snapshot while it is being edited.
			return m, tea.Batch(refreshCmd(m.client), tick())
		case refreshMsg:
			m.applyRefresh(msg, false)
			return m, nil
		}
		var cmd tea.Cmd
		m.settingsTab, cmd = m.settingsTab.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil

		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil

		case "1":
			m.activeTab = TabWindows
			return m, nil
		case "2":
			m.activeTab = TabDisplays
			return m, nil
		case "3":
			m.activeTab = TabSettings
			return m, nil

		case "r":
			return m, refreshCmd(m.client)
		}

	case tickMsg:
		return m, tea.Batch(refreshCmd(m.client), tick())

	case refreshMsg:
		m.applyRefresh(msg, true)
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
		} else {
			m.lastError = ""
		}
		// Repaint from fresh daemon state right away.
		return m, refreshCmd(m.client)

	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil
	}

	// Delegate to the active tab's sub-model.
	switch m.activeTab {
	case TabWindows:
		var cmd tea.Cmd
		m.windowsTab, cmd = m.windowsTab.Update(msg)
		return m, cmd
	case TabDisplays:
		var cmd tea.Cmd
		m.displaysTab, cmd = m.displaysTab.Update(msg)
		return m, cmd
	case TabSettings:
		var cmd tea.Cmd
		m.settingsTab, cmd = m.settingsTab.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *model) applyRefresh(msg refreshMsg, includeSettings bool) {
	if msg.err != nil {
		m.connected = false
		m.status = nil
		m.lastError = msg.err.Error()
		return
	}
	m.connected = true
	m.status = msg.status
	m.lastError = ""
	// A nil slice means that call failed; keep the last good snapshot.
	if msg.windows != nil {
		m.windowsTab.setWindows(msg.windows)
	}
	if msg.displays != nil {
		m.displaysTab.setDisplays(msg.displays)
	}
	if includeSettings && msg.settings != nil {
		m.settingsTab.setSettings(msg.settings)
	}
}

func (m *model) setSize(width, height int) {
	m.width = width
	m.height = height
	contentHeight := m.contentHeight()
	subMsg := tea.WindowSizeMsg{Width: width, Height: contentHeight}
	m.windowsTab, _ = m.windowsTab.Update(subMsg)
	m.displaysTab, _ = m.displaysTab.Update(subMsg)
	m.settingsTab, _ = m.settingsTab.Update(subMsg)
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.connected, m.status, m.lastError, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width)

	var content string
	switch m.activeTab {
	case TabWindows:
		content = m.windowsTab.View()
	case TabDisplays:
		content = m.displaysTab.View()
	case TabSettings:
		content = m.settingsTab.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
