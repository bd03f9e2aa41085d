package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	id "medboard/pkg/domain"
	"medboard/pkg/requestcontext"
)

// Store is the persistence surface for activity entries. Keep it
// transport-agnostic so stores and sinks can fan out.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

// Filter narrows activity listings.
type Filter struct {
	Action Action
	Limit  int
}

// Recorder captures structured activity entries. It is append-only and uses
// the storage layer for persistence so tests can swap sinks easily. Request
// metadata (actor, IP, user agent, time) is pulled from context, which the
// middleware chain populates.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record appends one entry for the given action. The entry inherits the
// request-scoped actor, client IP, summarized user agent and timestamp.
func (r *Recorder) Record(ctx context.Context, action Action, details string) error {
	entry := Entry{
		ID:        id.ActivityID(uuid.New()),
		AdminID:   requestcontext.ActorID(ctx),
		Action:    action,
		Details:   details,
		IPAddress: requestcontext.ClientIP(ctx),
		UserAgent: SummarizeUserAgent(requestcontext.UserAgent(ctx)),
		Timestamp: requestcontext.Now(ctx),
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if err := r.store.Append(ctx, entry); err != nil {
		return err
	}
	if r.logger != nil {
		r.logger.InfoContext(ctx, string(action),
			"log_type", "audit",
			"admin_id", entry.AdminID.String(),
			"details", details,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return nil
}

// List returns entries matching the filter, newest first.
func (r *Recorder) List(ctx context.Context, filter Filter) ([]Entry, error) {
	return r.store.List(ctx, filter)
}
