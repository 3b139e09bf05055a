package submissions_test

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

	"github.com/gatehouse-io/gatehouse/internal/submissions"
	"github.com/gatehouse-io/gatehouse/pkg/pagination"
)

type mockSystem struct {
	listFn   func(ctx context.Context, page pagination.PageRequest, filters submissions.Filters) (*pagination.PageResult[submissions.Submission], error)
	findFn   func(ctx context.Context, id uuid.UUID) (*submissions.Submission, error)
	createFn func(ctx context.Context, cmd submissions.CreateCommand) (*submissions.Submission, error)
	statusFn func(ctx context.Context, id uuid.UUID) (*submissions.StatusResult, error)
}

func (m *mockSystem) Handler() *submissions.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters submissions.Filters) (*pagination.PageResult[submissions.Submission], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*submissions.Submission, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd submissions.CreateCommand) (*submissions.Submission, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Status(ctx context.Context, id uuid.UUID) (*submissions.StatusResult, error) {
	return m.statusFn(ctx, id)
}

func newTestHandler(sys submissions.System) *submissions.Handler {
	return submissions.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *submissions.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleSubmission() submissions.Submission {
	return submissions.Submission{
		ID:        uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Author:    "user-42",
		Text:      "look at this",
		ImageKey:  "media/abc/photo.png",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHandlerCreate(t *testing.T) {
	t.Run("registers submission", func(t *testing.T) {
		s := sampleSubmission()
		var captured submissions.CreateCommand
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd submissions.CreateCommand) (*submissions.Submission, error) {
				captured = cmd
				return &s, nil
			},
		}

		mux := setupMux(newTestHandler(sys))

		body, _ := json.Marshal(submissions.CreateCommand{
			Author:   "user-42",
			Text:     "look at this",
			ImageKey: "media/abc/photo.png",
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions", bytes.NewReader(body))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202", rec.Code)
		}
		if captured.Author != "user-42" {
			t.Errorf("author = %q, want user-42", captured.Author)
		}

		var got submissions.Submission
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.ID != s.ID {
			t.Errorf("id = %v, want %v", got.ID, s.ID)
		}
	})

	t.Run("empty content returns 400", func(t *testing.T) {
		sys := &mockSystem{
			createFn: func(context.Context, submissions.CreateCommand) (*submissions.Submission, error) {
				return nil, submissions.ErrEmptyContent
			},
		}

		mux := setupMux(newTestHandler(sys))

		body, _ := json.Marshal(submissions.CreateCommand{Author: "user-42"})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions", bytes.NewReader(body))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		mux := setupMux(newTestHandler(&mockSystem{}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/submissions", bytes.NewReader([]byte("{")))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerStatus(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	tests := []struct {
		name   string
		result *submissions.StatusResult
		err    error
		code   int
		status submissions.Status
	}{
		{
			name:   "pending while moderation runs",
			result: &submissions.StatusResult{SubmissionID: id, Status: submissions.StatusPending},
			code:   http.StatusOK,
			status: submissions.StatusPending,
		},
		{
			name:   "approved",
			result: &submissions.StatusResult{SubmissionID: id, Status: submissions.StatusApproved},
			code:   http.StatusOK,
			status: submissions.StatusApproved,
		},
		{
			name: "unknown submission returns 404",
			err:  submissions.ErrNotFound,
			code: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				statusFn: func(context.Context, uuid.UUID) (*submissions.StatusResult, error) {
					return tt.result, tt.err
				},
			}

			mux := setupMux(newTestHandler(sys))

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/submissions/"+id.String()+"/status", nil)
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.err != nil {
				return
			}

			var got submissions.StatusResult
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Status != tt.status {
				t.Errorf("moderation status = %q, want %q", got.Status, tt.status)
			}
		})
	}
}

func TestHandlerList(t *testing.T) {
	s := sampleSubmission()
	var captured submissions.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, filters submissions.Filters) (*pagination.PageResult[submissions.Submission], error) {
			captured = filters
			result := pagination.NewPageResult([]submissions.Submission{s}, 1, 1, 20)
			return &result, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/submissions?author=user-42", nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured.Author == nil || *captured.Author != "user-42" {
		t.Errorf("author filter = %v, want user-42", captured.Author)
	}
}

func TestHandlerFind(t *testing.T) {
	t.Run("returns submission", func(t *testing.T) {
		s := sampleSubmission()
		sys := &mockSystem{
			findFn: func(context.Context, uuid.UUID) (*submissions.Submission, error) {
				return &s, nil
			},
		}

		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/submissions/"+s.ID.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		mux := setupMux(newTestHandler(&mockSystem{}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/submissions/nope", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}
