package main

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bearcove/hotmeal/internal/audit"
)

func TestUpdateQuitsOnQ(t *testing.T) {
	m := newModel(nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected a tea.Cmd from pressing q")
	}
	msg := cmd()
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Fatalf("pressing q should yield tea.Quit, got %T", msg)
	}
}

func TestUpdatePopulatesTableFromEntriesMsg(t *testing.T) {
	m := newModel(nil)
	entries := entriesMsg{
		{ID: 2, Route: "/about", PushedAt: time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC), PatchCount: 3},
		{ID: 1, Route: "/home", PushedAt: time.Date(2026, 1, 1, 10, 29, 0, 0, time.UTC), PatchCount: 1},
	}
	updated, cmd := m.Update(entries)
	if cmd != nil {
		t.Fatalf("handling entriesMsg should not schedule another command")
	}
	view := updated.(model).View()
	if !strings.Contains(view, "/about") || !strings.Contains(view, "/home") {
		t.Fatalf("rendered view should contain both routes, got:\n%s", view)
	}
}

func TestUpdateOnTickReloadsAndReschedules(t *testing.T) {
	m := newModel(&audit.Log{})
	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatalf("a tick should always schedule follow-up work")
	}
}
