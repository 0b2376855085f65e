package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/strad-mind/internal/client"
	"github.com/kingrea/strad-mind/internal/ritual"
)

type fakeFetcher struct {
	pulse  client.Pulse
	health client.Health
	state  client.State
	err    error
	calls  int
}

func (f *fakeFetcher) Pulse(context.Context) (client.Pulse, error) {
	f.calls++
	if f.err != nil {
		return client.Pulse{}, f.err
	}
	return f.pulse, nil
}

func (f *fakeFetcher) Health(context.Context) (client.Health, error) {
	if f.err != nil {
		return client.Health{}, f.err
	}
	return f.health, nil
}

func (f *fakeFetcher) State(context.Context) (client.State, error) {
	if f.err != nil {
		return client.State{}, f.err
	}
	return f.state, nil
}

func strPtr(s string) *string { return &s }

func TestDashboardShowsConnectingBeforeFirstFetch(t *testing.T) {
	d := NewDashboard(&fakeFetcher{}, "http://127.0.0.1:8000", time.Second)
	assert.Contains(t, d.View(), "connecting")
	assert.Contains(t, d.View(), "http://127.0.0.1:8000")
}

func TestDashboardRendersPulse(t *testing.T) {
	drive := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	f := &fakeFetcher{
		pulse: client.Pulse{
			OK:           true,
			FrameStatus:  "closed",
			DriveLaunch:  &drive,
			LastDecision: strPtr("Validar ciclo"),
			LastNumber:   strPtr("metric>0"),
		},
		health: client.Health{OK: true, Name: "Strad Mind", Version: "1.0.7", Eco: true},
		state: client.State{
			Frame: ritual.Frame{Theme: "Pricing", Status: ritual.StatusClosed},
			D6:    &ritual.D6{Semaphore: ritual.SemaphoreGreen},
		},
	}
	d := NewDashboard(f, "local", time.Second)

	msg := d.fetch()()
	_, cmd := d.Update(msg)
	require.NotNil(t, cmd, "a refresh tick is scheduled after each fetch")
	assert.Equal(t, 1, f.calls)

	view := d.View()
	for _, want := range []string{"closed", "Pricing", "🟢 green", "2025-03-14T09:26:53Z", "Validar ciclo", "metric>0", "v1.0.7", "eco on"} {
		assert.Contains(t, view, want)
	}
	assert.NotContains(t, view, "connecting")
	assert.Contains(t, view, "refresh")
}

func TestDashboardShowsProvisionalSemaphore(t *testing.T) {
	f := &fakeFetcher{
		pulse: client.Pulse{FrameStatus: "in_friction"},
		state: client.State{
			Frame:       ritual.Frame{Theme: "X", Status: ritual.StatusInFriction},
			Friction:    ritual.Friction{ProvisionalStatus: ritual.SemaphoreYellow},
			MastersGate: ritual.MastersGate{FrictionGate: "failed"},
		},
	}
	d := NewDashboard(f, "local", time.Second)
	d.Update(d.fetch()())
	view := d.View()
	assert.Contains(t, view, "🟡 yellow")
	assert.Contains(t, view, "failed")
}

func TestDashboardKeepsLastPulseOnError(t *testing.T) {
	f := &fakeFetcher{pulse: client.Pulse{FrameStatus: "open"}}
	d := NewDashboard(f, "local", time.Second)
	d.Update(d.fetch()())

	f.err = errors.New("connection refused")
	d.Update(d.fetch()())

	view := d.View()
	assert.Contains(t, view, "open")
	assert.Contains(t, view, "last refresh failed")
	assert.Contains(t, view, "connection refused")
}

func TestDashboardUnreachable(t *testing.T) {
	d := NewDashboard(&fakeFetcher{err: errors.New("dial tcp")}, "local", time.Second)
	d.Update(d.fetch()())
	assert.Contains(t, d.View(), "unreachable: dial tcp")
}

func TestDashboardKeys(t *testing.T) {
	d := NewDashboard(&fakeFetcher{}, "local", time.Second)

	_, cmd := d.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	d.loading = false
	_, cmd = d.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.True(t, d.loading)
	_, ok := cmd().(snapshotMsg)
	assert.True(t, ok, "refresh key triggers a fetch")
}

func TestDashboardTickTriggersFetch(t *testing.T) {
	f := &fakeFetcher{}
	d := NewDashboard(f, "local", time.Second)
	_, cmd := d.Update(refreshTickMsg{})
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, f.calls)
}

func TestDashboardWindowWidth(t *testing.T) {
	d := NewDashboard(&fakeFetcher{}, "local", time.Second)
	d.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Equal(t, 100, d.width)
	lines := strings.Split(d.View(), "\n")
	assert.GreaterOrEqual(t, len(lines), 4)
}

func TestDefaultInterval(t *testing.T) {
	d := NewDashboard(&fakeFetcher{}, "local", 0)
	assert.Equal(t, DefaultRefreshInterval, d.interval)
}
