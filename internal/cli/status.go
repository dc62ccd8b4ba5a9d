package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/allobrice/claude-telegram-bridge/internal/config"
)

// statusResponse mirrors hookapi's /status payload.
type statusResponse struct {
	Status           string         `json:"status"`
	InstanceID       string         `json:"instance_id"`
	Paused           bool           `json:"paused"`
	PendingApprovals []pendingEntry `json:"pending_approvals"`
	ActiveSessions   []sessionEntry `json:"active_sessions"`
	MessageQueues    map[string]int `json:"message_queues"`
	Uptime           float64        `json:"uptime"`
}

type pendingEntry struct {
	RequestID  string  `json:"RequestID"`
	AgentID    string  `json:"AgentID"`
	ToolName   string  `json:"ToolName"`
	AgeSeconds float64 `json:"AgeSeconds"`
}

type sessionEntry struct {
	AgentID      string    `json:"agent_id"`
	AgentName    string    `json:"agent_name"`
	RegisteredAt time.Time `json:"registered_at"`
	AutoApprove  bool      `json:"auto_approve"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a point-in-time snapshot of the running bridge",
	RunE: func(cmd *cobra.Command, args []string) error {
		printHeader("📊 bridgectl status")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("status: loading config: %w", err)
		}

		snap, err := fetchStatus(cfg)
		if err != nil {
			fmt.Printf("Bridge:   ✗ unreachable at %s (%v)\n", cfg.Addr(), err)
			return nil
		}

		state := "▶️  running"
		if snap.Paused {
			state = "⏸️  paused"
		}
		fmt.Printf("Bridge:   ✓ %s (instance %s)\n", state, snap.InstanceID)
		fmt.Printf("Uptime:   %s\n", time.Duration(snap.Uptime*float64(time.Second)).Round(time.Second))
		fmt.Printf("Sessions: %d\n", len(snap.ActiveSessions))

		ids := make([]string, 0, len(snap.ActiveSessions))
		for _, sess := range snap.ActiveSessions {
			ids = append(ids, fmt.Sprintf("  - %s (%s) auto_approve=%v", sess.AgentName, sess.AgentID, sess.AutoApprove))
		}
		sort.Strings(ids)
		for _, line := range ids {
			fmt.Println(line)
		}

		fmt.Printf("Pending:  %d\n", len(snap.PendingApprovals))
		for _, p := range snap.PendingApprovals {
			fmt.Printf("  - %s agent=%s tool=%s age=%.0fs\n", p.RequestID, p.AgentID, p.ToolName, p.AgeSeconds)
		}

		fmt.Println("Queues:")
		for agentID, depth := range snap.MessageQueues {
			fmt.Printf("  - %s: %d\n", agentID, depth)
		}
		return nil
	},
}

func fetchStatus(cfg *config.Config) (*statusResponse, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + cfg.Addr() + "/status")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var snap statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding /status response: %w", err)
	}
	return &snap, nil
}
