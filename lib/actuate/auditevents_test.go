package actuate_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/sofmon/actuator/lib/actuate"
	convAuth "github.com/sofmon/actuator/lib/auth"
	convCtx "github.com/sofmon/actuator/lib/ctx"
	convDB "github.com/sofmon/actuator/lib/db"
	"github.com/sofmon/actuator/lib/endpoint"
)

var auditStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seedAuditEvents(t *testing.T, repo actuate.AuditEventRepository) {
	t.Helper()

	ctx := convCtx.New("test")

	events := []struct {
		principal string
		kind      string
		offset    time.Duration
	}{
		{"alice", "AUTHENTICATION_SUCCESS", 0},
		{"bob", "AUTHENTICATION_FAILURE", time.Minute},
		{"alice", "AUTHORIZATION_FAILURE", 2 * time.Minute},
	}

	for _, e := range events {
		err := repo.Add(ctx, actuate.NewAuditEvent(ctx.WithNow(auditStart.Add(e.offset)), e.principal, e.kind, nil))
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
}

func testAuditEventRepository(t *testing.T, repo actuate.AuditEventRepository) {

	seedAuditEvents(t, repo)

	ctx := convCtx.New("test")

	tests := map[string]struct {
		filter convDB.Filter
		want   []string
	}{
		"all":            {convDB.Filter{}, []string{"AUTHENTICATION_SUCCESS", "AUTHENTICATION_FAILURE", "AUTHORIZATION_FAILURE"}},
		"principal":      {convDB.Filter{Principal: "alice"}, []string{"AUTHENTICATION_SUCCESS", "AUTHORIZATION_FAILURE"}},
		"after":          {convDB.Filter{After: auditStart}, []string{"AUTHENTICATION_FAILURE", "AUTHORIZATION_FAILURE"}},
		"type":           {convDB.Filter{Kind: "AUTHENTICATION_FAILURE"}, []string{"AUTHENTICATION_FAILURE"}},
		"combined":       {convDB.Filter{Principal: "alice", After: auditStart, Kind: "AUTHENTICATION_SUCCESS"}, nil},
		"limit":          {convDB.Filter{Limit: 2}, []string{"AUTHENTICATION_SUCCESS", "AUTHENTICATION_FAILURE"}},
		"filtered limit": {convDB.Filter{Principal: "alice", Limit: 1}, []string{"AUTHENTICATION_SUCCESS"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			events, err := repo.Find(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Find failed: %v", err)
			}
			if len(events) != len(tt.want) {
				t.Fatalf("expected %d events, got %+v", len(tt.want), events)
			}
			for i, e := range events {
				if e.Type != tt.want[i] {
					t.Errorf("event %d type = %s, want %s", i, e.Type, tt.want[i])
				}
			}
		})
	}
}

func TestInMemoryAuditEventRepository(t *testing.T) {
	testAuditEventRepository(t, actuate.NewInMemoryAuditEventRepository(0))
}

func TestSQLAuditEventRepository(t *testing.T) {

	db, err := convDB.Connection{Engine: convDB.EngineSqlite3, InMemory: true}.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	repo, err := actuate.NewSQLAuditEventRepository(convCtx.New("test"), db)
	if err != nil {
		t.Fatalf("NewSQLAuditEventRepository failed: %v", err)
	}

	testAuditEventRepository(t, repo)
}

func TestInMemoryAuditEventCapacity(t *testing.T) {

	ctx := convCtx.New("test")

	repo := actuate.NewInMemoryAuditEventRepository(2)
	for _, kind := range []string{"first", "second", "third"} {
		repo.Add(ctx, actuate.NewAuditEvent(ctx, "alice", kind, nil))
	}

	events, _ := repo.Find(ctx, convDB.Filter{})
	if len(events) != 2 || events[0].Type != "second" || events[1].Type != "third" {
		t.Errorf("expected the two most recent events, got %+v", events)
	}
}

func TestAuditEventsEndpoint(t *testing.T) {

	ctx := convCtx.New("test").
		WithClaims(convAuth.Claims{User: "operator"}).
		WithNow(auditStart)

	repo := actuate.NewInMemoryAuditEventRepository(0)
	d := dispatcherFor(t, actuate.NewAuditEventsEndpoint(repo))

	res, err := d.Dispatch(ctx, endpoint.Request{
		Method: "POST",
		Path:   "auditevents",
		Body:   map[string]any{"type": "DEPLOYMENT", "data": map[string]any{"version": "1.2.0"}},
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if res.StatusCode() != http.StatusNoContent {
		t.Errorf("record = %d, want 204", res.StatusCode())
	}

	res, _ = d.Dispatch(ctx, endpoint.Request{
		Method: "POST",
		Path:   "auditevents",
		Body:   map[string]any{"principal": "alice"},
	})
	if res.StatusCode() != http.StatusBadRequest {
		t.Errorf("record without type = %d, want 400", res.StatusCode())
	}

	res, err = d.Dispatch(ctx, endpoint.Request{
		Method: "GET",
		Path:   "auditevents",
		Query:  map[string][]string{"principal": {"operator"}},
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	events, ok := res.Value.(actuate.AuditEvents)
	if !ok {
		t.Fatalf("unexpected value %T", res.Value)
	}
	if len(events.Events) != 1 {
		t.Fatalf("expected one event, got %+v", events.Events)
	}

	e := events.Events[0]
	if e.Type != "DEPLOYMENT" || !e.Timestamp.Equal(auditStart) || e.Data["version"] != "1.2.0" || e.ID == "" {
		t.Errorf("unexpected event %+v", e)
	}

	res, _ = d.Dispatch(ctx, endpoint.Request{
		Method: "GET",
		Path:   "auditevents",
		Query:  map[string][]string{"after": {auditStart.Format(time.RFC3339)}},
	})
	if events, _ := res.Value.(actuate.AuditEvents); events.Events == nil || len(events.Events) != 0 {
		t.Errorf("expected an empty event list, got %+v", res.Value)
	}
}

func TestAuditEventsEndpointLimit(t *testing.T) {

	repo := actuate.NewInMemoryAuditEventRepository(0)
	seedAuditEvents(t, repo)

	d := dispatcherFor(t, actuate.NewAuditEventsEndpoint(repo))
	ctx := convCtx.New("test")

	tests := map[string]struct {
		limit  string
		status int
		count  int
	}{
		"no limit":       {"0", http.StatusOK, 3},
		"limited":        {"2", http.StatusOK, 2},
		"above count":    {"10", http.StatusOK, 3},
		"negative":       {"-1", http.StatusBadRequest, 0},
		"not an integer": {"two", http.StatusBadRequest, 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			res, err := d.Dispatch(ctx, endpoint.Request{
				Method: "GET",
				Path:   "auditevents",
				Query:  map[string][]string{"limit": {tt.limit}},
			})
			if err != nil {
				t.Fatalf("Dispatch failed: %v", err)
			}
			if res.StatusCode() != tt.status {
				t.Fatalf("status = %d, want %d", res.StatusCode(), tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			events, _ := res.Value.(actuate.AuditEvents)
			if len(events.Events) != tt.count {
				t.Errorf("expected %d events, got %d", tt.count, len(events.Events))
			}
		})
	}
}
