package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "kakebo/internal/errors"
	"kakebo/internal/models"
	"kakebo/internal/services"
	"kakebo/internal/validator"
)

// --- mock cycle service ---

type mockCycleService struct {
	resolveCycleFn           func(userID, budgetID string, opts services.ResolveOptions) (*services.CycleView, error)
	listCyclesFn             func(userID, budgetID string) ([]services.CycleSummary, error)
	appendSnapshotCategoryFn func(userID, budgetID, cycleID string, input services.SnapshotCategoryInput) (*models.SnapshotCategory, error)
}

func (m *mockCycleService) ResolveCycle(userID, budgetID string, opts services.ResolveOptions) (*services.CycleView, error) {
	if m.resolveCycleFn != nil {
		return m.resolveCycleFn(userID, budgetID, opts)
	}
	return &services.CycleView{Cycle: &models.BudgetCycle{}}, nil
}

func (m *mockCycleService) ListCycles(userID, budgetID string) ([]services.CycleSummary, error) {
	if m.listCyclesFn != nil {
		return m.listCyclesFn(userID, budgetID)
	}
	return []services.CycleSummary{}, nil
}

func (m *mockCycleService) AppendSnapshotCategory(userID, budgetID, cycleID string, input services.SnapshotCategoryInput) (*models.SnapshotCategory, error) {
	if m.appendSnapshotCategoryFn != nil {
		return m.appendSnapshotCategoryFn(userID, budgetID, cycleID, input)
	}
	return &models.SnapshotCategory{}, nil
}

var _ services.CycleServicer = (*mockCycleService)(nil)

type mockAuditService struct{}

func (m *mockAuditService) Log(_, _, _, _, _ string, _ map[string]interface{}) {}

// --- test helpers ---

const (
	testUserID   = "0194f7a0-9c1e-7000-8000-000000000001"
	testBudgetID = "0194f7a0-9c1e-7000-8000-000000000002"
	testCycleID  = "0194f7a0-9c1e-7000-8000-000000000003"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %v", code, errObj["code"])
	}
}

func setupCycleRouter(handler *CycleHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/budgets/:id/cycles", handler.GetCycle)
	auth.GET("/budgets/:id/cycles/list", handler.ListCycles)
	auth.POST("/budgets/:id/cycles/:cycleId/categories", handler.AppendSnapshotCategory)
	return r
}

func TestCycleHandler_GetCycle(t *testing.T) {
	t.Run("returns current cycle", func(t *testing.T) {
		svc := &mockCycleService{
			resolveCycleFn: func(userID, budgetID string, opts services.ResolveOptions) (*services.CycleView, error) {
				if userID != testUserID || budgetID != testBudgetID {
					t.Errorf("unexpected identifiers: %s %s", userID, budgetID)
				}
				if opts.CycleID != nil || opts.Date != nil {
					t.Error("expected empty resolve options for current cycle")
				}
				return &services.CycleView{
					Cycle: &models.BudgetCycle{
						ID:        testCycleID,
						BudgetID:  budgetID,
						StartDate: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
					},
					CategoryTotals: map[string]int64{"cat-1": 2500},
					TotalSpent:     10000,
					IsCurrentCycle: true,
				}, nil
			},
		}
		handler := NewCycleHandler(svc, &mockAuditService{})
		r := setupCycleRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID+"/cycles", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["is_current_cycle"] != true {
			t.Error("expected is_current_cycle true")
		}
		if result["total_spent"].(float64) != 10000 {
			t.Errorf("expected total_spent 10000, got %v", result["total_spent"])
		}
	})

	t.Run("passes cycleId query", func(t *testing.T) {
		var gotCycleID *string
		svc := &mockCycleService{
			resolveCycleFn: func(_, _ string, opts services.ResolveOptions) (*services.CycleView, error) {
				gotCycleID = opts.CycleID
				return &services.CycleView{Cycle: &models.BudgetCycle{}}, nil
			},
		}
		handler := NewCycleHandler(svc, &mockAuditService{})
		r := setupCycleRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID+"/cycles?cycleId="+testCycleID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotCycleID == nil || *gotCycleID != testCycleID {
			t.Errorf("expected cycleId %s to reach the service, got %v", testCycleID, gotCycleID)
		}
	})

	t.Run("passes date query", func(t *testing.T) {
		var gotDate *time.Time
		svc := &mockCycleService{
			resolveCycleFn: func(_, _ string, opts services.ResolveOptions) (*services.CycleView, error) {
				gotDate = opts.Date
				return &services.CycleView{Cycle: &models.BudgetCycle{}}, nil
			},
		}
		handler := NewCycleHandler(svc, &mockAuditService{})
		r := setupCycleRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID+"/cycles?date=2024-02-14", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		want := time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC)
		if gotDate == nil || !gotDate.Equal(want) {
			t.Errorf("expected date %s to reach the service, got %v", want, gotDate)
		}
	})

	t.Run("rejects cycleId and date together", func(t *testing.T) {
		called := false
		svc := &mockCycleService{
			resolveCycleFn: func(_, _ string, _ services.ResolveOptions) (*services.CycleView, error) {
				called = true
				return nil, nil
			},
		}
		handler := NewCycleHandler(svc, &mockAuditService{})
		r := setupCycleRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID+"/cycles?cycleId="+testCycleID+"&date=2024-02-14", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		if called {
			t.Error("service must not be called when both selectors are set")
		}
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		handler := NewCycleHandler(&mockCycleService{}, &mockAuditService{})
		r := setupCycleRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID+"/cycles?date=14-02-2024", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("propagates cycle not found", func(t *testing.T) {
		svc := &mockCycleService{
			resolveCycleFn: func(_, _ string, _ services.ResolveOptions) (*services.CycleView, error) {
				return nil, apperrors.ErrCycleNotFound
			},
		}
		handler := NewCycleHandler(svc, &mockAuditService{})
		r := setupCycleRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID+"/cycles?cycleId="+testCycleID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CYCLE_NOT_FOUND")
	})

	t.Run("rejects invalid budget id", func(t *testing.T) {
		handler := NewCycleHandler(&mockCycleService{}, &mockAuditService{})
		r := setupCycleRouter(handler)

		rec := doRequest(r, "GET", "/budgets/not-a-uuid/cycles", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCycleHandler_ListCycles(t *testing.T) {
	t.Run("returns cycles", func(t *testing.T) {
		svc := &mockCycleService{
			listCyclesFn: func(_, _ string) ([]services.CycleSummary, error) {
				return []services.CycleSummary{
					{ID: testCycleID, HasSnapshot: true},
					{ID: "0194f7a0-9c1e-7000-8000-000000000004", HasSnapshot: false},
				}, nil
			},
		}
		handler := NewCycleHandler(svc, &mockAuditService{})
		r := setupCycleRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID+"/cycles/list", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		cycles := result["cycles"].([]interface{})
		if len(cycles) != 2 {
			t.Errorf("expected 2 cycles, got %d", len(cycles))
		}
	})
}

func TestCycleHandler_AppendSnapshotCategory(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockCycleService{
			appendSnapshotCategoryFn: func(_, _, cycleID string, input services.SnapshotCategoryInput) (*models.SnapshotCategory, error) {
				return &models.SnapshotCategory{
					ID:               "snapshot_" + cycleID + "_1700000000000",
					Name:             input.Name,
					AllocationMethod: input.AllocationMethod,
					AllocationValue:  input.AllocationValue,
					SortOrder:        3,
				}, nil
			},
		}
		handler := NewCycleHandler(svc, &mockAuditService{})
		r := setupCycleRouter(handler)

		rec := doRequest(r, "POST", "/budgets/"+testBudgetID+"/cycles/"+testCycleID+"/categories",
			`{"name":"Transport","allocation_method":"FIXED","allocation_value":20000}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		category := result["category"].(map[string]interface{})
		if category["name"] != "Transport" {
			t.Errorf("expected name Transport, got %v", category["name"])
		}
	})

	t.Run("rejects invalid allocation method", func(t *testing.T) {
		handler := NewCycleHandler(&mockCycleService{}, &mockAuditService{})
		r := setupCycleRouter(handler)

		rec := doRequest(r, "POST", "/budgets/"+testBudgetID+"/cycles/"+testCycleID+"/categories",
			`{"name":"Transport","allocation_method":"BOGUS"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("propagates duplicate name conflict", func(t *testing.T) {
		svc := &mockCycleService{
			appendSnapshotCategoryFn: func(_, _, _ string, _ services.SnapshotCategoryInput) (*models.SnapshotCategory, error) {
				return nil, apperrors.ErrDuplicateCategoryName
			},
		}
		handler := NewCycleHandler(svc, &mockAuditService{})
		r := setupCycleRouter(handler)

		rec := doRequest(r, "POST", "/budgets/"+testBudgetID+"/cycles/"+testCycleID+"/categories",
			`{"name":"Groceries","allocation_method":"FIXED"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_CATEGORY_NAME")
	})

	t.Run("propagates missing snapshot state", func(t *testing.T) {
		svc := &mockCycleService{
			appendSnapshotCategoryFn: func(_, _, _ string, _ services.SnapshotCategoryInput) (*models.SnapshotCategory, error) {
				return nil, apperrors.ErrCycleNotSnapshotted
			},
		}
		handler := NewCycleHandler(svc, &mockAuditService{})
		r := setupCycleRouter(handler)

		rec := doRequest(r, "POST", "/budgets/"+testBudgetID+"/cycles/"+testCycleID+"/categories",
			`{"name":"Transport","allocation_method":"FIXED"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CYCLE_STATE")
	})
}
