package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rgowan/tunerbridge/internal/client"
	"github.com/rgowan/tunerbridge/internal/devices"
	"github.com/rgowan/tunerbridge/internal/registry"
	"github.com/rgowan/tunerbridge/internal/ui"
)

const (
	pollInterval    = 2 * time.Second
	maxRecentEvents = 8
)

// Messages for async operations
type pollTickMsg time.Time

type snapshotMsg struct {
	devices []devices.Device
	sources []registry.Source
	err     error
}

type eventsConnectedMsg struct {
	events <-chan registry.Intent
}

type intentMsg struct {
	intent registry.Intent
	ok     bool
}

type triggerResultMsg struct {
	action    string
	triggered bool
	err       error
}

// watchKeyMap defines key bindings for the watch view
type watchKeyMap struct {
	Refresh  key.Binding
	Discover key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Discover, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Refresh, k.Discover, k.Quit},
	}
}

// WatchModel is the live dashboard: the daemon's device table and source
// registry, refreshed by polling, plus a tail of registry intents from the
// event stream.
type WatchModel struct {
	addr   string
	client *client.Client

	// Snapshot state
	devices  []devices.Device
	sources  []registry.Source
	recent   []registry.Intent
	lastPoll time.Time
	err      error

	// Event stream
	ctx    context.Context
	cancel context.CancelFunc
	events <-chan registry.Intent
	status string

	// UI state
	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    watchKeyMap
}

// NewWatchModel creates the watch view for the daemon at addr.
func NewWatchModel(addr string) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ui.SpinnerStyle

	keys := watchKeyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Discover: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "discover"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	ctx, cancel := context.WithCancel(context.Background())
	width, height := ui.GetTerminalSize()

	return WatchModel{
		addr:    addr,
		client:  client.New(addr),
		ctx:     ctx,
		cancel:  cancel,
		Width:   width,
		Height:  height,
		Spinner: s,
		Help:    help.New(),
		Keys:    keys,
	}
}

// Init implements tea.Model.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		m.fetchSnapshot(),
		m.subscribeEvents(),
	)
}

func (m WatchModel) fetchSnapshot() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pollInterval)
		defer cancel()

		devs, err := c.Devices(ctx)
		if err != nil {
			return snapshotMsg{err: err}
		}
		srcs, err := c.Sources(ctx)
		if err != nil {
			return snapshotMsg{err: err}
		}
		return snapshotMsg{devices: devs, sources: srcs}
	}
}

func (m WatchModel) subscribeEvents() tea.Cmd {
	c := m.client
	ctx := m.ctx
	return func() tea.Msg {
		events, err := c.Events(ctx)
		if err != nil {
			// Snapshot polling still works without the stream.
			return intentMsg{ok: false}
		}
		return eventsConnectedMsg{events: events}
	}
}

// waitForIntent blocks on the event stream and resubscribes per message.
func waitForIntent(events <-chan registry.Intent) tea.Cmd {
	return func() tea.Msg {
		intent, ok := <-events
		return intentMsg{intent: intent, ok: ok}
	}
}

func pollTick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

func (m WatchModel) trigger(action string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pollInterval)
		defer cancel()

		var triggered bool
		var err error
		switch action {
		case "refresh":
			triggered, err = c.Refresh(ctx)
		case "discover":
			triggered, err = c.Discover(ctx)
		}
		return triggerResultMsg{action: action, triggered: triggered, err: err}
	}
}

// Update implements tea.Model.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Refresh):
			m.status = "refresh requested"
			return m, m.trigger("refresh")
		case key.Matches(msg, m.Keys.Discover):
			m.status = "discovery requested"
			return m, m.trigger("discover")
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		if m.Width > ui.MaxContentWidth {
			m.Width = ui.MaxContentWidth
		}

	case snapshotMsg:
		m.err = msg.err
		if msg.err == nil {
			m.devices = msg.devices
			m.sources = msg.sources
			m.lastPoll = time.Now()
		}
		return m, pollTick()

	case pollTickMsg:
		return m, m.fetchSnapshot()

	case eventsConnectedMsg:
		m.events = msg.events
		return m, waitForIntent(m.events)

	case intentMsg:
		if !msg.ok {
			return m, nil
		}
		m.recent = append(m.recent, msg.intent)
		if len(m.recent) > maxRecentEvents {
			m.recent = m.recent[len(m.recent)-maxRecentEvents:]
		}
		return m, tea.Batch(waitForIntent(m.events), m.fetchSnapshot())

	case triggerResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		} else if msg.triggered {
			m.status = msg.action + " queued"
		} else {
			m.status = msg.action + " already pending"
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m WatchModel) View() string {
	var b strings.Builder

	header := ui.NewHeader("Tuner Watch", "tunerbridge watch", map[string]string{
		"Daemon": m.addr,
	})
	header.Width = m.Width
	b.WriteString(header.Render())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(ui.ErrorMessageStyle.Render("  " + ui.FailureMarker + " " + m.err.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderDevices())
	b.WriteString("\n")
	b.WriteString(m.renderSources())
	b.WriteString("\n")
	b.WriteString(m.renderEvents())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return b.String()
}

func (m WatchModel) renderDevices() string {
	var b strings.Builder
	b.WriteString(ui.TitleStyle.Render("Devices"))
	b.WriteString("\n")
	b.WriteString("  " + ui.TableHeaderStyle.Render(fmt.Sprintf("%-2s %-10s %-18s %-20s %s", "", "ID", "ADDRESS", "NAME", "LAST SYNC")))
	b.WriteString("\n")

	if len(m.devices) == 0 {
		b.WriteString(ui.SubtitleStyle.Render(m.Spinner.View() + " waiting for devices"))
		b.WriteString("\n")
		return b.String()
	}

	for _, dev := range m.devices {
		marker := ui.PresentStyle.Render(ui.PresentMarker)
		if !dev.Present {
			marker = ui.LostStyle.Render(ui.LostMarker)
		}
		sync := "never"
		if !dev.LastSynced.IsZero() {
			sync = dev.LastSynced.Format("15:04:05")
		}
		row := fmt.Sprintf("%-10s %-18s %-20s %s", dev.ID, dev.Address, dev.FriendlyName, sync)
		b.WriteString("  " + marker + " " + ui.ValueStyle.Render(row))
		b.WriteString("\n")
	}
	return b.String()
}

func (m WatchModel) renderSources() string {
	var b strings.Builder
	title := fmt.Sprintf("Sources (%d)", len(m.sources))
	b.WriteString(ui.TitleStyle.Render(title))
	b.WriteString("\n")

	for _, src := range m.sources {
		row := fmt.Sprintf("%-22s %s", src.Origin.String(), src.DisplayName)
		b.WriteString("    " + ui.ValueStyle.Render(row))
		b.WriteString("\n")
	}
	if len(m.sources) == 0 {
		b.WriteString(ui.SubtitleStyle.Render("none registered"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m WatchModel) renderEvents() string {
	var b strings.Builder
	b.WriteString(ui.TitleStyle.Render("Recent Events"))
	b.WriteString("\n")

	if len(m.recent) == 0 {
		b.WriteString(ui.SubtitleStyle.Render("no registry activity yet"))
		b.WriteString("\n")
		return b.String()
	}

	for _, intent := range m.recent {
		var style lipgloss.Style
		switch intent.Type {
		case registry.IntentCreate:
			style = ui.CreateStyle
		case registry.IntentUpdate:
			style = ui.UpdateStyle
		default:
			style = ui.DeleteStyle
		}
		line := fmt.Sprintf("%-7s %s", string(intent.Type), intent.Source.Origin.String())
		b.WriteString("    " + style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m WatchModel) renderStatusBar() string {
	parts := []string{}
	if !m.lastPoll.IsZero() {
		parts = append(parts, "updated "+m.lastPoll.Format("15:04:05"))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	bar := ui.StatusBarStyle.Render(strings.Join(parts, "  |  "))
	return bar + "\n" + "  " + m.Help.View(m.Keys)
}

// Run starts the watch view against the daemon at addr and blocks until
// the user quits.
func Run(addr string) error {
	model := NewWatchModel(addr)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	model.cancel()
	return err
}
