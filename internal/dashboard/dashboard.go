// Package dashboard is a bubbletea status screen for a running agentgate
// gateway: health status and version, the cached model count, and
// per-server MCP status, polled over HTTP on a ticker. Adapted from the
// teacher's internal/dirstral/settings TUI shape (bubbletea model with a
// ticker rather than a form), trimmed to a single read-only live view.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/compose-market/agentgate/internal/dashboard/prefs"
	"github.com/compose-market/agentgate/internal/dirstral/ui"
)

// Run launches the dashboard TUI against the gateway at p.GatewayAddr.
func Run(p prefs.Prefs) error {
	program := tea.NewProgram(initialModel(p), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

type snapshot struct {
	health   map[string]interface{}
	registry map[string]interface{}
	mcp      map[string]interface{}
	err      error
	fetchedAt time.Time
}

type tickMsg time.Time

type snapshotMsg snapshot

type model struct {
	prefs        prefs.Prefs
	client       *http.Client
	last         snapshot
	width        int
	height       int
	quitting     bool
	serverList   viewport.Model
	listReady    bool
}

func initialModel(p prefs.Prefs) model {
	return model{
		prefs:  p,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.tickCmd())
}

func (m model) tickCmd() tea.Cmd {
	interval := time.Duration(m.prefs.RefreshSeconds) * time.Second
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) fetchCmd() tea.Cmd {
	addr := m.prefs.GatewayAddr
	client := m.client
	token := prefs.DashboardToken()
	return func() tea.Msg {
		return snapshotMsg(fetchSnapshot(client, addr, token))
	}
}

func fetchSnapshot(client *http.Client, addr, token string) snapshot {
	health, err := fetchJSON(client, addr+"/health", token)
	if err != nil {
		return snapshot{err: err, fetchedAt: time.Now()}
	}
	registry, regErr := fetchJSON(client, addr+"/api/registry/models", token)
	mcp, mcpErr := fetchJSON(client, addr+"/api/mcp/status", token)
	err = firstNonNil(regErr, mcpErr)
	return snapshot{health: health, registry: registry, mcp: mcp, err: err, fetchedAt: time.Now()}
}

func firstNonNil(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func fetchJSON(client *http.Client, url, token string) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s returned %d", url, resp.StatusCode)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := m.height - 10
		if listHeight < 3 {
			listHeight = 3
		}
		if !m.listReady {
			m.serverList = viewport.New(m.width, listHeight)
			m.listReady = true
		} else {
			m.serverList.Width = m.width
			m.serverList.Height = listHeight
		}
		m.serverList.SetContent(renderMCPServers(m.last.mcp))
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, m.fetchCmd()
		}
		var cmd tea.Cmd
		m.serverList, cmd = m.serverList.Update(msg)
		return m, cmd
	case tickMsg:
		return m, tea.Batch(m.fetchCmd(), m.tickCmd())
	case snapshotMsg:
		m.last = snapshot(msg)
		if m.listReady {
			m.serverList.SetContent(renderMCPServers(m.last.mcp))
		}
		return m, nil
	}
	return m, nil
}

// renderMCPServers builds the scrollable MCP-server-status panel content,
// grounded on the teacher's log-viewport sizing in dirstral/app/server_logs.go.
func renderMCPServers(mcp map[string]interface{}) string {
	servers, ok := mcp["status"].(map[string]interface{})
	if !ok || len(servers) == 0 {
		return ui.Subtle.Render("  (none configured)")
	}
	var lines []string
	for id, state := range servers {
		color := ui.Muted
		if state == "ready" {
			color = ui.Green
		} else if state == "error" {
			color = ui.Red
		}
		lines = append(lines, color.Render(fmt.Sprintf("  %s: %v", id, state)))
	}
	return strings.Join(lines, "\n")
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	title := ui.Brand.Render("agentgate dashboard") + "  " + ui.Subtle.Render(m.prefs.GatewayAddr)
	lines := []string{title, ""}

	if m.last.err != nil {
		lines = append(lines, ui.Red.Render("unreachable: "+m.last.err.Error()))
	} else if m.last.health != nil {
		lines = append(lines, ui.Green.Render("status: "+fmt.Sprint(m.last.health["status"])))
		lines = append(lines, ui.Muted.Render("version: "+fmt.Sprint(m.last.health["version"])))
	} else {
		lines = append(lines, ui.Subtle.Render("waiting for first poll..."))
	}

	lines = append(lines, "", ui.Bold.Render("registry"))
	if models, ok := m.last.registry["models"].([]interface{}); ok {
		lines = append(lines, ui.Muted.Render(fmt.Sprintf("  models cached: %d", len(models))))
	} else {
		lines = append(lines, ui.Subtle.Render("  (no data yet)"))
	}

	lines = append(lines, "", ui.Bold.Render("mcp servers"))
	if m.listReady {
		lines = append(lines, m.serverList.View())
	} else {
		lines = append(lines, renderMCPServers(m.last.mcp))
	}

	if !m.last.fetchedAt.IsZero() {
		lines = append(lines, "", ui.Subtle.Render("last poll: "+m.last.fetchedAt.Format(time.Kitchen)))
	}
	lines = append(lines, "", ui.Subtle.Render("q quit · r refresh now · ↑/↓ scroll servers"))

	body := strings.Join(lines, "\n")
	if m.width <= 0 {
		return body
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(body)
}
