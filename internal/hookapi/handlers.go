package hookapi

import (
	"context"
	"net/http"
	"time"

	"github.com/allobrice/claude-telegram-bridge/internal/approval"
	"github.com/allobrice/claude-telegram-bridge/internal/config"
	"github.com/allobrice/claude-telegram-bridge/internal/policy"
)

type notifyRequest struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	Message   string `json:"message"`
	Level     string `json:"level"`
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req notifyRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusUnprocessableEntity)
		return
	}
	if req.AgentID == "" {
		req.AgentID = "main"
	}
	s.store.EnsureAgent(req.AgentID, req.AgentName)

	if err := s.adapter.Notify(r.Context(), req.AgentID, req.AgentName, req.Message, req.Level); err != nil {
		s.logger.Warn("hookapi: notify delivery failed", "agent_id", req.AgentID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "delivery_failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type approveRequest struct {
	AgentID     string `json:"agent_id"`
	AgentName   string `json:"agent_name"`
	ToolName    string `json:"tool_name"`
	ToolInput   string `json:"tool_input"`
	Description string `json:"description"`
	Timeout     int    `json:"timeout"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req approveRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusUnprocessableEntity)
		return
	}
	if req.AgentID == "" {
		req.AgentID = "main"
	}
	s.store.EnsureAgent(req.AgentID, req.AgentName)

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = int(s.cfg.ApprovalTimeout() / time.Second)
	}
	if max := int(s.cfg.ApprovalTimeout() / time.Second); timeout > max {
		// /approve's deadline is caller-supplied but still bounded; a caller
		// asking for more than the configured ceiling gets clamped so the
		// wait always finishes inside the server's write deadline.
		timeout = max
	}

	resp := s.coordinator.RequestApproval(r.Context(), approval.RequestInput{
		AgentID:     req.AgentID,
		AgentName:   req.AgentName,
		ToolName:    req.ToolName,
		ToolInput:   req.ToolInput,
		Description: req.Description,
		TimeoutS:    timeout,
	})
	writeJSON(w, http.StatusOK, resp)
}

type checkAutoApproveRequest struct {
	AgentID  string `json:"agent_id"`
	ToolName string `json:"tool_name,omitempty"`
}

// handleCheckAutoApprove answers {auto_approve: bool}. When the hook names
// the tool it is about to run, the shared policy tiering applies on top of
// the session flag (safe tools always pass, critical tools never do); with
// no tool named, the answer is the bare session flag.
func (s *Server) handleCheckAutoApprove(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req checkAutoApproveRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusUnprocessableEntity)
		return
	}
	sessionFlag := s.store.CheckAutoApprove(req.AgentID)
	if req.ToolName == "" {
		writeJSON(w, http.StatusOK, map[string]bool{"auto_approve": sessionFlag})
		return
	}
	d := policy.Evaluate(req.ToolName, sessionFlag)
	writeJSON(w, http.StatusOK, map[string]any{"auto_approve": d.AutoApprove, "reason": d.Reason})
}

type registerAgentRequest struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
}

func (s *Server) handleRegisterAgent(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req registerAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusUnprocessableEntity)
		return
	}
	if req.AgentID == "" {
		req.AgentID = "main"
	}
	s.store.RegisterAgent(req.AgentID, req.AgentName)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type unregisterAgentRequest struct {
	AgentID string `json:"agent_id"`
}

func (s *Server) handleUnregisterAgent(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req unregisterAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusUnprocessableEntity)
		return
	}
	s.store.UnregisterAgent(req.AgentID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sendMessageRequest struct {
	AgentID string `json:"agent_id"`
	Timeout int    `json:"timeout"`
}

const sendMessagePollInterval = time.Second

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusUnprocessableEntity)
		return
	}
	if req.AgentID == "" {
		req.AgentID = "main"
	}

	timeout := time.Duration(req.Timeout) * time.Second
	if req.Timeout <= 0 || timeout > config.MaxSendMessageTimeout {
		timeout = config.MaxSendMessageTimeout
	}

	msgs := s.pollMessages(r.Context(), req.AgentID, timeout)
	writeJSON(w, http.StatusOK, map[string][]string{"messages": msgs})
}

// pollMessages returns immediately if a message is already queued, otherwise
// polls at ~1s granularity until timeout.
func (s *Server) pollMessages(ctx context.Context, agentID string, timeout time.Duration) []string {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(sendMessagePollInterval)
	defer ticker.Stop()

	if msgs := s.store.DrainMessages(agentID); len(msgs) > 0 {
		return msgs
	}
	for {
		select {
		case <-ctx.Done():
			return []string{}
		case <-deadline.C:
			return []string{}
		case <-ticker.C:
			if msgs := s.store.DrainMessages(agentID); len(msgs) > 0 {
				return msgs
			}
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"instance_id":       snap.InstanceID,
		"paused":            snap.Paused,
		"pending_approvals": snap.PendingApprovals,
		"active_sessions":   snap.ActiveSessions,
		"message_queues":    snap.MessageQueues,
		"uptime":            snap.Uptime.Seconds(),
	})
}
