package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/francescaartes/task-management-system/internal/store"
)

// Handler bridges store mutations to dashboard broadcasts. Callers notify it
// after each committed task mutation; it formats a task_update message and
// follows up with a fresh analytics snapshot for the owning user.
type Handler struct {
	server *Server
	store  *store.Store
	logger *log.Logger
}

// NewHandler creates a handler connected to a dashboard server and backed by
// the store it snapshots analytics from.
func NewHandler(server *Server, st *store.Store, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, store: st, logger: logger}
}

// OnTaskCreated broadcasts a creation event for the given task.
func (h *Handler) OnTaskCreated(ctx context.Context, userID, taskID int64, title, status string) {
	h.logger.Printf("Task created: %d (%s)", taskID, title)
	h.broadcastTaskUpdate(TaskUpdateData{
		TaskID: taskID, UserID: userID, Action: "created", Title: title, Status: status,
	})
	h.broadcastAnalytics(ctx, userID)
}

// OnTaskUpdated broadcasts a full-row update event.
func (h *Handler) OnTaskUpdated(ctx context.Context, userID, taskID int64, title, status string) {
	h.logger.Printf("Task updated: %d (%s)", taskID, title)
	h.broadcastTaskUpdate(TaskUpdateData{
		TaskID: taskID, UserID: userID, Action: "updated", Title: title, Status: status,
	})
	h.broadcastAnalytics(ctx, userID)
}

// OnTaskDeleted broadcasts a deletion event.
func (h *Handler) OnTaskDeleted(ctx context.Context, userID, taskID int64) {
	h.logger.Printf("Task deleted: %d", taskID)
	h.broadcastTaskUpdate(TaskUpdateData{
		TaskID: taskID, UserID: userID, Action: "deleted",
	})
	h.broadcastAnalytics(ctx, userID)
}

// OnStatusChanged broadcasts a single-column status change.
func (h *Handler) OnStatusChanged(ctx context.Context, userID, taskID int64, status string) {
	h.logger.Printf("Task %d status: %s", taskID, status)

	data := TaskUpdateData{TaskID: taskID, UserID: userID, Action: "updated", Status: status}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal status data: %v", err)
		return
	}
	h.server.Broadcast(Message{
		Type:      MessageTypeStatusChange,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
	h.broadcastAnalytics(ctx, userID)
}

// PublishAnalytics broadcasts a fresh analytics snapshot for a user without
// an accompanying mutation event. The dashboard command uses this for its
// periodic refresh.
func (h *Handler) PublishAnalytics(ctx context.Context, userID int64) {
	h.broadcastAnalytics(ctx, userID)
}

func (h *Handler) broadcastTaskUpdate(data TaskUpdateData) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal task data: %v", err)
		return
	}
	h.server.Broadcast(Message{
		Type:      MessageTypeTaskUpdate,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// broadcastAnalytics snapshots the user's analytics and broadcasts it.
// Failures are logged, not propagated: the mutation already committed and a
// stale dashboard beats a failed write path.
func (h *Handler) broadcastAnalytics(ctx context.Context, userID int64) {
	a, err := h.store.GetAnalyticsContext(ctx, userID)
	if err != nil {
		h.logger.Printf("Failed to compute analytics for user %d: %v", userID, err)
		return
	}

	dataJSON, err := json.Marshal(a)
	if err != nil {
		h.logger.Printf("Failed to marshal analytics: %v", err)
		return
	}
	h.server.Broadcast(Message{
		Type:      MessageTypeAnalytics,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}
