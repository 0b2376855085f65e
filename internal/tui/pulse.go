// internal/tui/pulse.go
//
// A small bubbletea dashboard that polls a running server and shows where the
// current ritual stands: frame status and semaphore, Balance/Drive stamps and
// the last decision kept in short memory.
//
// The flow is: tick -> fetch -> snapshotMsg -> Update -> View -> tick again.

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

	"github.com/kingrea/strad-mind/internal/client"
	"github.com/kingrea/strad-mind/internal/ritual"
)

// DefaultRefreshInterval is how often the dashboard polls /v1/pulse.
const DefaultRefreshInterval = 3 * time.Second

// Fetcher reads the status endpoints. *client.Client satisfies it.
type Fetcher interface {
	Pulse(ctx context.Context) (client.Pulse, error)
	Health(ctx context.Context) (client.Health, error)
	State(ctx context.Context) (client.State, error)
}

type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

type snapshotMsg struct {
	pulse  client.Pulse
	health client.Health
	state  client.State
	err    error
	at     time.Time
}

type refreshTickMsg struct{}

// Dashboard is the bubbletea model for `stradmind pulse`.
type Dashboard struct {
	fetcher  Fetcher
	target   string
	interval time.Duration
	spinner  spinner.Model
	help     help.Model

	pulse     *client.Pulse
	health    *client.Health
	state     *client.State
	err       error
	loading   bool
	fetchedAt time.Time
	width     int
}

// NewDashboard builds a dashboard polling fetcher every interval.
func NewDashboard(fetcher Fetcher, target string, interval time.Duration) *Dashboard {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	return &Dashboard{
		fetcher:  fetcher,
		target:   target,
		interval: interval,
		spinner:  sp,
		help:     help.New(),
		loading:  true,
		width:    60,
	}
}

// Init starts the spinner and the first fetch.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(d.spinner.Tick, d.fetch())
}

// Update handles key presses, fetch results and refresh ticks.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return d, tea.Quit
		case key.Matches(msg, keys.Refresh):
			d.loading = true
			return d, d.fetch()
		}
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.help.Width = msg.Width
	case snapshotMsg:
		d.loading = false
		d.fetchedAt = msg.at
		d.err = msg.err
		if msg.err == nil {
			pulse, health, state := msg.pulse, msg.health, msg.state
			d.pulse = &pulse
			d.health = &health
			d.state = &state
		}
		return d, d.scheduleRefresh()
	case refreshTickMsg:
		d.loading = true
		return d, d.fetch()
	case spinner.TickMsg:
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return d, cmd
	}
	return d, nil
}

func (d *Dashboard) fetch() tea.Cmd {
	fetcher := d.fetcher
	timeout := d.interval
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		msg := snapshotMsg{at: time.Now()}
		pulse, err := fetcher.Pulse(ctx)
		if err != nil {
			msg.err = err
			return msg
		}
		health, err := fetcher.Health(ctx)
		if err != nil {
			msg.err = err
			return msg
		}
		state, err := fetcher.State(ctx)
		if err != nil {
			msg.err = err
			return msg
		}
		msg.pulse = pulse
		msg.health = health
		msg.state = state
		return msg
	}
}

func (d *Dashboard) scheduleRefresh() tea.Cmd {
	return tea.Tick(d.interval, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

var statusColors = map[ritual.Status]lipgloss.Color{
	ritual.StatusIdle:       lipgloss.Color("#888888"),
	ritual.StatusOpen:       lipgloss.Color("#5B8DEF"),
	ritual.StatusInFriction: lipgloss.Color("#F2C94C"),
	ritual.StatusInFlow:     lipgloss.Color("#6FCF97"),
	ritual.StatusInFact:     lipgloss.Color("#6FCF97"),
	ritual.StatusClosed:     lipgloss.Color("#AAAAAA"),
}

// View renders the dashboard.
func (d *Dashboard) View() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		Render("Strad Mind · pulse")
	sub := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render(d.target)

	var lines []string
	switch {
	case d.pulse == nil && d.err == nil:
		lines = append(lines, d.spinner.View()+" connecting...")
	case d.err != nil && d.pulse == nil:
		lines = append(lines, errorStyle.Render("unreachable: "+d.err.Error()))
	default:
		lines = append(lines, d.pulseLines()...)
		if d.err != nil {
			lines = append(lines, "", errorStyle.Render("last refresh failed: "+d.err.Error()))
		}
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(40, d.width-4)).
		Render(strings.Join(lines, "\n"))

	footer := d.help.View(keys)
	if d.loading && d.pulse != nil {
		footer = d.spinner.View() + " refreshing  " + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, sub, box, footer)
}

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Width(15)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

func (d *Dashboard) pulseLines() []string {
	p := d.pulse
	color, ok := statusColors[ritual.Status(p.FrameStatus)]
	if !ok {
		color = lipgloss.Color("#FFFFFF")
	}
	stage := lipgloss.NewStyle().Bold(true).Foreground(color).Render(p.FrameStatus)
	lines := []string{
		row("frame", stage),
	}
	if st := d.state; st != nil {
		theme := st.Frame.Theme
		if theme == "" {
			theme = "—"
		}
		sem := st.Semaphore()
		lines = append(lines,
			row("theme", theme),
			row("semaphore", sem.Glyph()+" "+string(sem)),
		)
		if st.MastersGate.FrictionGate != "" {
			lines = append(lines, row("friction gate", string(st.MastersGate.FrictionGate)))
		}
	}
	lines = append(lines,
		row("drive", stamp(p.DriveLaunch)),
		row("balance", stamp(p.BalanceGate)),
		row("last decision", deref(p.LastDecision)),
		row("last number", deref(p.LastNumber)),
	)
	if h := d.health; h != nil {
		eco := "off"
		if h.Eco {
			eco = "on"
		}
		lines = append(lines, row("server", fmt.Sprintf("%s v%s · eco %s", h.Name, h.Version, eco)))
	}
	if !d.fetchedAt.IsZero() {
		lines = append(lines, row("updated", d.fetchedAt.Format("15:04:05")))
	}
	return lines
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func stamp(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.UTC().Format(time.RFC3339)
}

func deref(v *string) string {
	if v == nil || *v == "" {
		return "—"
	}
	return *v
}
