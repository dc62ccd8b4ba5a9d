package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/allobrice/claude-telegram-bridge/internal/config"
)

func TestFetchStatusDecodesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"paused": true,
			"pending_approvals": []map[string]any{
				{"RequestID": "abc123", "AgentID": "main", "ToolName": "bash", "AgeSeconds": 4.5},
			},
			"active_sessions": []map[string]any{
				{"agent_id": "main", "agent_name": "CC", "auto_approve": false},
			},
			"message_queues": map[string]int{"main": 2},
			"uptime":         12.0,
		})
	}))
	defer srv.Close()

	host, portStr, _ := strings.Cut(strings.TrimPrefix(srv.URL, "http://"), ":")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parsing test server port: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Bridge.Host = host
	cfg.Bridge.Port = port

	snap, err := fetchStatus(cfg)
	if err != nil {
		t.Fatalf("fetchStatus: %v", err)
	}
	if !snap.Paused {
		t.Fatalf("expected paused=true, got %+v", snap)
	}
	if len(snap.PendingApprovals) != 1 || snap.PendingApprovals[0].RequestID != "abc123" {
		t.Fatalf("unexpected pending approvals: %+v", snap.PendingApprovals)
	}
	if len(snap.ActiveSessions) != 1 || snap.ActiveSessions[0].AgentID != "main" {
		t.Fatalf("unexpected active sessions: %+v", snap.ActiveSessions)
	}
	if snap.MessageQueues["main"] != 2 {
		t.Fatalf("expected queue depth 2, got %+v", snap.MessageQueues)
	}
}
