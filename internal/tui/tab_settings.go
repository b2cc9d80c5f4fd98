package tui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/casement-dev/casement/internal/bridge"
)

// settingItem is a list item representing one settings key.
type settingItem struct {
	key   string
	value any
}

func (i settingItem) Title() string       { return i.key }
func (i settingItem) Description() string { return settingText(i.value) }
func (i settingItem) FilterValue() string { return i.key }

// SettingsTab is the sub-model for the settings-store tab.
type SettingsTab struct {
	client *bridge.Client
	list   list.Model
	width  int
	height int

	// Edit mode
	editing bool
	adding  bool
	form    *huh.Form
	fKey    string
	fValue  string
}

// NewSettingsTab creates a SettingsTab backed by the daemon client.
func NewSettingsTab(client *bridge.Client) SettingsTab {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("15")).
		BorderForeground(lipgloss.Color("62"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("250")).
		BorderForeground(lipgloss.Color("62"))

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Settings"
	l.Styles.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)

	return SettingsTab{
		client: client,
		list:   l,
	}
}

// setSettings replaces the settings snapshot after a poll. The root model
// holds polls off while a form is open, so this never races an edit.
func (s *SettingsTab) setSettings(settings map[string]any) {
	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	items := make([]list.Item, 0, len(keys))
	for _, key := range keys {
		items = append(items, settingItem{key: key, value: settings[key]})
	}
	s.list.SetItems(items)
}

// Init implements tea.Model.
func (s SettingsTab) Init() tea.Cmd { return nil }

// Update handles messages for the settings tab.
func (s SettingsTab) Update(msg tea.Msg) (SettingsTab, tea.Cmd) {
	if s.editing {
		return s.updateEditing(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.list.SetSize(s.width, s.height)
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "e", "enter":
			if item, ok := s.list.SelectedItem().(settingItem); ok {
				s.startEditing(item.key, item.value)
				return s, s.form.Init()
			}
			return s, nil
		case "n":
			s.startAdding()
			return s, s.form.Init()
		case "x", "delete":
			if item, ok := s.list.SelectedItem().(settingItem); ok {
				return s, s.deleteCmd(item.key)
			}
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s SettingsTab) updateEditing(msg tea.Msg) (SettingsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			s.editing = false
			s.adding = false
			s.form = nil
			return s, nil
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		// Read typed text back through the form keys; the bound strings
		// on this copy of the model only hold the seed values.
		key := strings.TrimSpace(s.fKey)
		if s.adding {
			key = strings.TrimSpace(s.form.GetString("key"))
		}
		value := s.form.GetString("value")
		s.editing = false
		s.adding = false
		s.form = nil
		if key == "" {
			return s, nil
		}
		return s, s.saveCmd(key, value)
	}

	return s, cmd
}

func (s *SettingsTab) startEditing(key string, value any) {
	s.fKey = key
	s.fValue = settingText(value)

	w := s.formWidth()
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("value").
				Title(fmt.Sprintf("Value for %q", key)).
				Description("JSON or bare text; empty deletes the key").
				Value(&s.fValue),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	s.editing = true
	s.adding = false
}

func (s *SettingsTab) startAdding() {
	s.fKey = ""
	s.fValue = ""

	w := s.formWidth()
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("key").
				Title("Key").
				Description("Dotted paths nest, e.g. editor.font").
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("key is required")
					}
					return nil
				}).
				Value(&s.fKey),

			huh.NewInput().
				Key("value").
				Title("Value").
				Description("JSON or bare text").
				Value(&s.fValue),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	s.editing = true
	s.adding = true
}

func (s SettingsTab) formWidth() int {
	w := s.width - 4
	if w < 40 {
		w = 40
	}
	return w
}

// saveCmd writes the key through the daemon. An empty or null value
// deletes instead, matching the daemon's own settings route.
func (s SettingsTab) saveCmd(key, value string) tea.Cmd {
	client := s.client
	return func() tea.Msg {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" || trimmed == "null" {
			return actionMsg{err: client.DeleteSetting(key)}
		}
		return actionMsg{err: client.SetSetting(key, parseSettingValue(trimmed))}
	}
}

func (s SettingsTab) deleteCmd(key string) tea.Cmd {
	client := s.client
	return func() tea.Msg {
		return actionMsg{err: client.DeleteSetting(key)}
	}
}

// View implements tea.Model.
func (s SettingsTab) View() string {
	if s.width == 0 || s.height == 0 {
		return ""
	}
	if s.editing && s.form != nil {
		return s.viewEditing()
	}
	if len(s.list.Items()) == 0 {
		return renderEmpty("No settings stored\nPress 'n' to add one", s.width, s.height)
	}
	return s.list.View()
}

func (s SettingsTab) viewEditing() string {
	title := "Editing Setting"
	if s.adding {
		title = "New Setting"
	}
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Render(title) +
		lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("  (esc to cancel)")

	content := header + "\n\n" + s.form.View()

	style := lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		Padding(1, 2)

	return style.Render(content)
}

// settingText renders a stored value for listing and editing. Strings
// come out bare so users are not forced through JSON quoting.
func settingText(value any) string {
	if str, ok := value.(string); ok {
		return str
	}
	b, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(b)
}

// parseSettingValue interprets form input as JSON when it parses, and as
// a plain string otherwise, so both 42 and dark work without quoting.
func parseSettingValue(text string) any {
	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err == nil {
		return decoded
	}
	return text
}
