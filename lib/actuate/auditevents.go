package actuate

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	convCtx "github.com/sofmon/actuator/lib/ctx"
	convDB "github.com/sofmon/actuator/lib/db"
	"github.com/sofmon/actuator/lib/endpoint"
)

type AuditEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Principal string         `json:"principal"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

func (e AuditEvent) JournalKey() convDB.JournalKey {
	return convDB.JournalKey{ID: e.ID, Principal: e.Principal, Kind: e.Type, At: e.Timestamp}
}

// NewAuditEvent stamps an event with a fresh id and the context time.
func NewAuditEvent(ctx convCtx.Context, principal, eventType string, data map[string]any) AuditEvent {
	return AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: ctx.Now().UTC(),
		Principal: principal,
		Type:      eventType,
		Data:      data,
	}
}

type AuditEventRepository interface {
	Add(ctx convCtx.Context, event AuditEvent) error
	// Find returns events matching every non-zero field of f, oldest first.
	// Kind matches the event type.
	Find(ctx convCtx.Context, f convDB.Filter) ([]AuditEvent, error)
}

const DefaultAuditCapacity = 1000

// InMemoryAuditEventRepository keeps the most recent events up to its
// capacity.
type InMemoryAuditEventRepository struct {
	mu       sync.RWMutex
	events   []AuditEvent
	capacity int
}

func NewInMemoryAuditEventRepository(capacity int) *InMemoryAuditEventRepository {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}
	return &InMemoryAuditEventRepository{capacity: capacity}
}

func (r *InMemoryAuditEventRepository) Add(_ convCtx.Context, event AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	if over := len(r.events) - r.capacity; over > 0 {
		r.events = append([]AuditEvent(nil), r.events[over:]...)
	}
	return nil
}

func (r *InMemoryAuditEventRepository) Find(_ convCtx.Context, f convDB.Filter) (res []AuditEvent, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.events {
		if f.Limit > 0 && len(res) == f.Limit {
			break
		}
		if f.Principal != "" && e.Principal != f.Principal {
			continue
		}
		if !f.After.IsZero() && !e.Timestamp.After(f.After) {
			continue
		}
		if f.Kind != "" && e.Type != f.Kind {
			continue
		}
		res = append(res, e)
	}
	return
}

// SQLAuditEventRepository stores events in a journal table.
type SQLAuditEventRepository struct {
	journal *convDB.Journal[AuditEvent]
}

func NewSQLAuditEventRepository(ctx convCtx.Context, db *convDB.DB) (r *SQLAuditEventRepository, err error) {
	journal, err := convDB.NewJournal[AuditEvent](ctx, db, "audit_events")
	if err != nil {
		return
	}
	r = &SQLAuditEventRepository{journal: journal}
	return
}

func (r *SQLAuditEventRepository) Add(ctx convCtx.Context, event AuditEvent) error {
	return r.journal.Append(ctx, event)
}

func (r *SQLAuditEventRepository) Find(ctx convCtx.Context, f convDB.Filter) ([]AuditEvent, error) {
	return r.journal.Select(ctx, f)
}

type AuditEvents struct {
	Events []AuditEvent `json:"events"`
}

type AuditEventsEndpoint struct {
	repository AuditEventRepository
}

func NewAuditEventsEndpoint(repository AuditEventRepository) *AuditEventsEndpoint {
	return &AuditEventsEndpoint{repository: repository}
}

func (a *AuditEventsEndpoint) Endpoint() endpoint.Definition {
	return endpoint.Define(IDAuditEvents,
		endpoint.Read("events", func(ctx convCtx.Context, args endpoint.Arguments) (any, error) {
			var f convDB.Filter
			f.Principal, _ = args.String("principal")
			f.After, _ = args.Time("after")
			f.Kind, _ = args.String("type")

			if limit, ok := args.Int("limit"); ok {
				if limit < 0 {
					return &endpoint.Response{Status: http.StatusBadRequest, Body: map[string]string{"error": "limit must not be negative"}}, nil
				}
				f.Limit = int(limit)
			}

			events, err := a.repository.Find(ctx, f)
			if err != nil {
				return nil, err
			}
			if events == nil {
				events = []AuditEvent{}
			}
			return AuditEvents{Events: events}, nil
		},
			endpoint.Param("principal", endpoint.TypeString),
			endpoint.Param("after", endpoint.TypeTime),
			endpoint.Param("type", endpoint.TypeString),
			endpoint.Param("limit", endpoint.TypeInteger),
		),
		endpoint.Write("record", func(ctx convCtx.Context, args endpoint.Arguments) (any, error) {
			principal, _ := args.String("principal")
			eventType, _ := args.String("type")
			if principal == "" {
				principal = string(ctx.User())
			}
			if eventType == "" {
				return &endpoint.Response{Status: http.StatusBadRequest, Body: map[string]string{"error": "type is required"}}, nil
			}

			data, _ := args["data"].(map[string]any)

			err := a.repository.Add(ctx, NewAuditEvent(ctx, principal, eventType, data))
			return nil, err
		},
			endpoint.Param("principal", endpoint.TypeString),
			endpoint.Param("type", endpoint.TypeString),
			endpoint.Param("data", endpoint.TypeAny),
		),
	)
}
