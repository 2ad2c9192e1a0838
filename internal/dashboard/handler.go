// Package dashboard: event handling and message formatting.
package dashboard

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/lunarnova/nova/internal/project"
	"github.com/lunarnova/nova/internal/syncer"
)

// Handler bridges orchestrator activity to the WebSocket server. It
// subscribes to orchestrator events and rebroadcasts them as dashboard
// messages along with refreshed statistics.
type Handler struct {
	server *Server
	orch   *syncer.Orchestrator
	logger *log.Logger
}

// NewHandler creates a handler and subscribes it to the orchestrator.
func NewHandler(server *Server, orch *syncer.Orchestrator, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	h := &Handler{
		server: server,
		orch:   orch,
		logger: logger,
	}
	orch.SetEventFunc(h.onEvent)
	return h
}

// Greeting returns the initial messages for a newly connected client:
// current sync state followed by current statistics.
func (h *Handler) Greeting() []Message {
	return []Message{
		h.syncStateMessage(),
		h.statsMessage(),
	}
}

func (h *Handler) onEvent(ev syncer.Event) {
	switch ev.Kind {
	case "mutation":
		h.broadcastProjectUpdate(ev.ProjectID, ev.Timestamp)
	case "pull", "push_ok", "push_failed":
		h.server.Broadcast(h.syncStateMessage())
	default:
		h.logger.Printf("Unknown event kind %q", ev.Kind)
		return
	}
	h.server.Broadcast(h.statsMessage())
}

func (h *Handler) broadcastProjectUpdate(projectID string, at time.Time) {
	data := ProjectUpdateData{
		ProjectID: projectID,
		Action:    "mutated",
	}

	p, err := h.orch.Find(projectID)
	switch {
	case err == nil:
		data.Title = p.Title
		data.Status = string(p.Status)
	case errors.Is(err, project.ErrNotFound):
		data.Action = "removed"
	default:
		h.logger.Printf("Failed to look up project %s: %v", projectID, err)
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal project update: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeProjectUpdate,
		Timestamp: at,
		Data:      dataJSON,
	})
}

func (h *Handler) syncStateMessage() Message {
	st := h.orch.Status()

	data := SyncStateData{
		State:       string(st.State),
		SyncEnabled: st.SyncEnabled,
		LastPullErr: st.LastPullErr,
		LastPushErr: st.LastPushErr,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal sync state: %v", err)
	}
	return Message{
		Type:      MessageTypeSyncState,
		Timestamp: time.Now(),
		Data:      dataJSON,
	}
}

func (h *Handler) statsMessage() Message {
	stats := Stats(h.orch.Snapshot())

	dataJSON, err := json.Marshal(stats)
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
	}
	return Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      dataJSON,
	}
}

// Stats computes collection statistics for display.
func Stats(c project.Collection) StatsData {
	stats := StatsData{
		Total:    len(c),
		ByStatus: make(map[string]int),
	}
	for _, p := range c {
		stats.ByStatus[string(p.Status)]++
		if p.Archived() {
			stats.Archived++
		}
	}
	return stats
}
