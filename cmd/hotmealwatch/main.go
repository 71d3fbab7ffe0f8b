// Command hotmealwatch is a terminal dashboard over a running hotmealsrv's
// audit log: a live-refreshing table of recently pushed diffs, grounded on
// the pack's bubbletea/bubbles/lipgloss stack (declared but unexercised in
// the teacher's own tree) wired here into an actual table component. It
// polls hotmealsrv's own `/debug/history` HTTP endpoint rather than opening
// the sqlite file directly, so it works against a server running on another
// host and never races the server's own writes to that file.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bearcove/hotmeal/internal/audit"
)

var serverAddr string

func main() {
	root := &cobra.Command{
		Use:   "hotmealwatch",
		Short: "Watch hotmealsrv's diff history live",
		RunE:  run,
	}
	root.Flags().StringVar(&serverAddr, "addr", "http://127.0.0.1:8787", "hotmealsrv base URL")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	p := tea.NewProgram(newModel(&historyClient{base: serverAddr}))
	_, err := p.Run()
	return err
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type entriesMsg []audit.Entry

// historySource is whatever can answer "the n most recent diff_log rows" —
// satisfied by historyClient here and fakeable in tests.
type historySource interface {
	Recent(n int) ([]audit.Entry, error)
}

// historyClient polls hotmealsrv's /debug/history endpoint over HTTP.
type historyClient struct {
	base string
	http.Client
}

func (c *historyClient) Recent(n int) ([]audit.Entry, error) {
	resp, err := c.Get(c.base + "/debug/history?n=" + strconv.Itoa(n))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hotmealwatch: /debug/history: unexpected status %d", resp.StatusCode)
	}
	var entries []audit.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("hotmealwatch: /debug/history: decode: %w", err)
	}
	return entries, nil
}

func loadEntries(src historySource) tea.Cmd {
	return func() tea.Msg {
		entries, err := src.Recent(50)
		if err != nil {
			return entriesMsg(nil)
		}
		return entriesMsg(entries)
	}
}
