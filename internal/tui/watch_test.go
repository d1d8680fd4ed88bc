package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/arena/internal/config"
	"github.com/san-kum/arena/internal/experiment"
	"github.com/san-kum/arena/internal/sim"
)

func newPairModel(t *testing.T) Model {
	t.Helper()
	cfg := config.GetPreset("pair")
	exp, err := experiment.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return *New("pair", func() (*sim.Simulator, error) { return exp.Build(cfg.Seed) }, 0.02, 0.1)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestTickAdvances(t *testing.T) {
	m := newPairModel(t)
	m = update(t, m, tickMsg(time.Now()))

	if got := m.sim.Arena().Steps(); got != 1 {
		t.Errorf("steps = %d, want 1", got)
	}
	if len(m.energy) != 2 {
		t.Errorf("energy history = %d, want 2", len(m.energy))
	}
}

func TestPauseAndSpeed(t *testing.T) {
	m := newPairModel(t)

	m = update(t, m, key('p'))
	m = update(t, m, tickMsg(time.Now()))
	if got := m.sim.Arena().Steps(); got != 0 {
		t.Fatalf("paused model stepped %d times", got)
	}

	m = update(t, m, key('p'))
	m = update(t, m, key('+'))
	m = update(t, m, tickMsg(time.Now()))
	if got := m.sim.Arena().Steps(); got != 2 {
		t.Errorf("steps at x2 = %d, want 2", got)
	}

	m = update(t, m, key('-'))
	m = update(t, m, key('-'))
	m = update(t, m, tickMsg(time.Now()))
	m = update(t, m, tickMsg(time.Now()))
	if got := m.sim.Arena().Steps(); got != 3 {
		t.Errorf("steps after two ticks at x0.5 = %d, want 3", got)
	}
}

func TestFinishAndReset(t *testing.T) {
	m := newPairModel(t)
	for i := 0; i < 10; i++ {
		m = update(t, m, tickMsg(time.Now()))
	}
	if !m.done {
		t.Fatal("expected run to finish")
	}
	if got := m.sim.Arena().Steps(); got != 5 {
		t.Errorf("steps = %d, want 5", got)
	}
	if !strings.Contains(m.View(), "finished") {
		t.Error("view should report finished")
	}

	m = update(t, m, key('r'))
	if m.done || m.sim.Arena().Steps() != 0 {
		t.Errorf("reset: done=%v steps=%d", m.done, m.sim.Arena().Steps())
	}
}

func TestView(t *testing.T) {
	m := newPairModel(t)
	m = update(t, m, tickMsg(time.Now()))

	view := m.View()
	for _, want := range []string{"pair", "2 bodies", "kinetic energy", "contacts", "checksum"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestBuildError(t *testing.T) {
	m := *New("broken", func() (*sim.Simulator, error) { return nil, errors.New("no field") }, 0.02, 1)
	m = update(t, m, tickMsg(time.Now()))

	if !strings.Contains(m.View(), "no field") {
		t.Error("view should show the build error")
	}
}

func TestQuit(t *testing.T) {
	m := newPairModel(t)
	_, cmd := m.Update(key('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
