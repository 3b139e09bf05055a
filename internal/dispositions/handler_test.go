package dispositions_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/internal/dispositions"
	"github.com/gatehouse-io/gatehouse/pkg/pagination"
)

type mockSystem struct {
	listFn        func(ctx context.Context, page pagination.PageRequest, filters dispositions.Filters) (*pagination.PageResult[dispositions.Disposition], error)
	findFn        func(ctx context.Context, id uuid.UUID) (*dispositions.Disposition, error)
	listPendingFn func(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[dispositions.Disposition], error)
	resolveFn     func(ctx context.Context, id uuid.UUID, cmd dispositions.ResolveCommand) (*dispositions.Disposition, error)
}

func (m *mockSystem) Handler() *dispositions.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters dispositions.Filters) (*pagination.PageResult[dispositions.Disposition], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*dispositions.Disposition, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) ListPending(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[dispositions.Disposition], error) {
	return m.listPendingFn(ctx, page)
}

func (m *mockSystem) Resolve(ctx context.Context, id uuid.UUID, cmd dispositions.ResolveCommand) (*dispositions.Disposition, error) {
	return m.resolveFn(ctx, id, cmd)
}

func newTestHandler(sys dispositions.System) *dispositions.Handler {
	return dispositions.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *dispositions.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleDisposition() dispositions.Disposition {
	return dispositions.Disposition{
		SubmissionID: uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Outcome:      dispositions.OutcomePendingReview,
		ReasonDetail: json.RawMessage(`{"per_modality":{"text":"ambiguous"}}`),
		DecidedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHandlerListPending(t *testing.T) {
	d := sampleDisposition()
	sys := &mockSystem{
		listPendingFn: func(context.Context, pagination.PageRequest) (*pagination.PageResult[dispositions.Disposition], error) {
			result := pagination.NewPageResult([]dispositions.Disposition{d}, 1, 1, 20)
			return &result, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/reviews", nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result pagination.PageResult[dispositions.Disposition]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(result.Data) != 1 {
		t.Fatalf("data length = %d, want 1", len(result.Data))
	}
	if result.Data[0].Outcome != dispositions.OutcomePendingReview {
		t.Errorf("outcome = %q, want pending_review", result.Data[0].Outcome)
	}
}

func TestHandlerListFilters(t *testing.T) {
	var captured dispositions.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, filters dispositions.Filters) (*pagination.PageResult[dispositions.Disposition], error) {
			captured = filters
			result := pagination.NewPageResult([]dispositions.Disposition{}, 0, 1, 20)
			return &result, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/reviews/all?outcome=approved&resolved_by=system", nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured.Outcome == nil || *captured.Outcome != dispositions.OutcomeApproved {
		t.Errorf("outcome filter = %v, want approved", captured.Outcome)
	}
	if captured.ResolvedBy == nil || *captured.ResolvedBy != "system" {
		t.Errorf("resolved_by filter = %v, want system", captured.ResolvedBy)
	}
}

func TestHandlerFind(t *testing.T) {
	d := sampleDisposition()

	t.Run("returns disposition", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, id uuid.UUID) (*dispositions.Disposition, error) {
				if id != d.SubmissionID {
					t.Errorf("id = %v, want %v", id, d.SubmissionID)
				}
				return &d, nil
			},
		}

		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/reviews/"+d.SubmissionID.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(context.Context, uuid.UUID) (*dispositions.Disposition, error) {
				return nil, dispositions.ErrNotFound
			},
		}

		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/reviews/"+uuid.NewString(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		mux := setupMux(newTestHandler(&mockSystem{}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/reviews/not-a-uuid", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerResolve(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	resolveBody := func(decision, reviewer string) *bytes.Reader {
		body, _ := json.Marshal(dispositions.ResolveCommand{
			Decision:   decision,
			ReviewerID: reviewer,
		})
		return bytes.NewReader(body)
	}

	t.Run("applies reviewer decision", func(t *testing.T) {
		var captured dispositions.ResolveCommand
		sys := &mockSystem{
			resolveFn: func(_ context.Context, _ uuid.UUID, cmd dispositions.ResolveCommand) (*dispositions.Disposition, error) {
				captured = cmd
				resolved := sampleDisposition()
				resolved.Outcome = dispositions.OutcomeApproved
				reviewer := cmd.ReviewerID
				resolved.ResolvedBy = &reviewer
				return &resolved, nil
			},
		}

		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/reviews/"+id.String(), resolveBody("APPROVE", "mod-7"))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured.Decision != "APPROVE" || captured.ReviewerID != "mod-7" {
			t.Errorf("command = %+v, want APPROVE by mod-7", captured)
		}
	})

	t.Run("already resolved returns 409", func(t *testing.T) {
		sys := &mockSystem{
			resolveFn: func(context.Context, uuid.UUID, dispositions.ResolveCommand) (*dispositions.Disposition, error) {
				return nil, dispositions.ErrConflict
			},
		}

		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/reviews/"+id.String(), resolveBody("REJECT", "mod-7"))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("invalid decision returns 400", func(t *testing.T) {
		sys := &mockSystem{
			resolveFn: func(context.Context, uuid.UUID, dispositions.ResolveCommand) (*dispositions.Disposition, error) {
				return nil, dispositions.ErrInvalidDecision
			},
		}

		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/reviews/"+id.String(), resolveBody("ESCALATE", "mod-7"))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestOutcomeTerminal(t *testing.T) {
	tests := []struct {
		outcome dispositions.Outcome
		want    bool
	}{
		{dispositions.OutcomeApproved, true},
		{dispositions.OutcomeRejected, true},
		{dispositions.OutcomePendingReview, false},
	}

	for _, tt := range tests {
		if got := tt.outcome.Terminal(); got != tt.want {
			t.Errorf("%q.Terminal() = %v, want %v", tt.outcome, got, tt.want)
		}
	}
}
