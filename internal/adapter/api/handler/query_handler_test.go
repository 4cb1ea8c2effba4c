package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/V4T54L/runtime-analytics/internal/analytics"
	"github.com/V4T54L/runtime-analytics/internal/domain"
	"github.com/V4T54L/runtime-analytics/internal/usecase"
)

type MockQuerier struct {
	PromptFunc func(ctx context.Context, text string) (usecase.Result, error)
	ReportFunc func(ctx context.Context, name string, dr analytics.DateRange) (usecase.Result, error)
}

func (m *MockQuerier) Prompt(ctx context.Context, text string) (usecase.Result, error) {
	return m.PromptFunc(ctx, text)
}

func (m *MockQuerier) Report(ctx context.Context, name string, dr analytics.DateRange) (usecase.Result, error) {
	return m.ReportFunc(ctx, name, dr)
}

func countResult() usecase.Result {
	table := domain.NewTable("type", "run_count")
	table.Append("SNSI", 4)
	return usecase.Result{Function: domain.FuncJobCountByType, Params: domain.Params{}, RunDate: "2025-07-07", Table: table}
}

func newQueryMux(q Querier) *http.ServeMux {
	h := NewQueryHandler(q, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /query", h.Prompt)
	mux.HandleFunc("GET /reports", h.ListReports)
	mux.HandleFunc("GET /reports/{name}", h.Report)
	return mux
}

func TestQueryHandler_Prompt(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		promptErr      error
		expectedStatus int
		expectedBody   string
		contains       string
	}{
		{
			name:           "Missing Prompt",
			target:         "/query",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Bad Request: missing prompt\n",
		},
		{
			name:           "Unresolved Intent",
			target:         "/query?prompt=hello",
			promptErr:      fmt.Errorf("%w: %q", domain.ErrUnresolvedIntent, "hello"),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "could not interpret prompt: \"hello\"\n",
		},
		{
			name:           "Unknown Function",
			target:         "/query?prompt=hello",
			promptErr:      fmt.Errorf("%w: bogus", domain.ErrUnknownFunction),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "unrecognized function: bogus\n",
		},
		{
			name:           "No Data",
			target:         "/query?prompt=count+jobs",
			promptErr:      domain.ErrNoData,
			expectedStatus: http.StatusNotFound,
			expectedBody:   "no data\n",
		},
		{
			name:           "Unknown Column",
			target:         "/query?prompt=count+jobs",
			promptErr:      fmt.Errorf("%w: colour", domain.ErrUnknownColumn),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "unknown column: colour\n",
		},
		{
			name:           "Internal Error",
			target:         "/query?prompt=count+jobs",
			promptErr:      errors.New("disk on fire"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Internal Server Error\n",
		},
		{
			name:           "CSV",
			target:         "/query?prompt=count+jobs&format=csv",
			expectedStatus: http.StatusOK,
			contains:       "SNSI,4",
		},
		{
			name:           "Bad Format",
			target:         "/query?prompt=count+jobs&format=xml",
			expectedStatus: http.StatusBadRequest,
			contains:       "Bad Request: unknown output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newQueryMux(&MockQuerier{
				PromptFunc: func(ctx context.Context, text string) (usecase.Result, error) {
					if tt.promptErr != nil {
						return usecase.Result{}, tt.promptErr
					}
					return countResult(), nil
				},
			})

			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
			if tt.expectedBody != "" && rr.Body.String() != tt.expectedBody {
				t.Errorf("handler returned unexpected body: got %q want %q", rr.Body.String(), tt.expectedBody)
			}
			if tt.contains != "" && !strings.Contains(rr.Body.String(), tt.contains) {
				t.Errorf("expected body to contain %q, got %q", tt.contains, rr.Body.String())
			}
		})
	}

	t.Run("JSON By Default", func(t *testing.T) {
		var got string
		mux := newQueryMux(&MockQuerier{
			PromptFunc: func(ctx context.Context, text string) (usecase.Result, error) {
				got = text
				return countResult(), nil
			},
		})

		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/query?prompt=count+jobs+by+type", nil))

		if got != "count jobs by type" {
			t.Errorf("expected decoded prompt, got %q", got)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		var body struct {
			Function string       `json:"function"`
			RunDate  string       `json:"latest_run_date"`
			Table    domain.Table `json:"table"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.Function != string(domain.FuncJobCountByType) || body.RunDate != "2025-07-07" || body.Table.Len() != 1 {
			t.Errorf("unexpected response %+v", body)
		}
	})
}

func TestQueryHandler_Reports(t *testing.T) {
	t.Run("Named Report", func(t *testing.T) {
		var got string
		mux := newQueryMux(&MockQuerier{
			ReportFunc: func(ctx context.Context, name string, dr analytics.DateRange) (usecase.Result, error) {
				got = name
				return countResult(), nil
			},
		})

		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports/Top%20Anomaly%20Scores", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if got != "Top Anomaly Scores" {
			t.Errorf("expected unescaped report name, got %q", got)
		}
	})

	t.Run("Date Range", func(t *testing.T) {
		var got analytics.DateRange
		mux := newQueryMux(&MockQuerier{
			ReportFunc: func(ctx context.Context, name string, dr analytics.DateRange) (usecase.Result, error) {
				got = dr
				return countResult(), nil
			},
		})

		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports/Top%20Slow%20Jobs%20for%20Date%20Range?start_date=2025-07-01&end_date=2025-07-07", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		want := analytics.DateRange{Start: "2025-07-01", End: "2025-07-07"}
		if got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}
	})

	t.Run("Invalid Range", func(t *testing.T) {
		mux := newQueryMux(&MockQuerier{
			ReportFunc: func(ctx context.Context, name string, dr analytics.DateRange) (usecase.Result, error) {
				return usecase.Result{}, fmt.Errorf("%w: report %q needs start_date and end_date", domain.ErrInvalidRange, name)
			},
		})

		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports/Top%20Slow%20Jobs%20for%20Date%20Range", nil))

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "needs start_date and end_date") {
			t.Errorf("expected the missing bounds to be named, got %q", rr.Body.String())
		}
	})

	t.Run("Unknown Report", func(t *testing.T) {
		mux := newQueryMux(&MockQuerier{
			ReportFunc: func(ctx context.Context, name string, dr analytics.DateRange) (usecase.Result, error) {
				return usecase.Result{}, fmt.Errorf("%w: %q", domain.ErrUnknownReport, name)
			},
		})

		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports/nope", nil))

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("List", func(t *testing.T) {
		mux := newQueryMux(&MockQuerier{})

		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports", nil))

		var list []reportInfo
		if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(list) != len(analytics.Reports()) {
			t.Fatalf("expected %d reports, got %d", len(analytics.Reports()), len(list))
		}
		if list[0].Name == "" || list[0].Function == "" {
			t.Errorf("unexpected first report %+v", list[0])
		}
	})
}
