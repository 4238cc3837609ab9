package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zhangyoujia1995/NICE-APS/internal/config"
	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner"
)

func testOrders() []*model.Order {
	return []*model.Order{
		{ID: "O1", Quantity: 100, DueDate: "2026-04-20", Type: model.FirmOrder},
		{ID: "O2", Quantity: 100, DueDate: "2026-04-25", Type: model.FirmOrder},
		{ID: "O3", Quantity: 100, DueDate: "2026-04-30", Type: model.ForecastOrder},
	}
}

func testFactories() []*model.Factory {
	return []*model.Factory{
		{ID: "F1", CapacityPeriods: []model.CapacityPeriod{
			{StartDate: "2026-03-01", EndDate: "2026-03-31", Capacity: 150},
			{StartDate: "2026-04-01", EndDate: "2026-04-30", Capacity: 150},
		}},
		{ID: "F2", CapacityPeriods: []model.CapacityPeriod{
			{StartDate: "2026-03-01", EndDate: "2026-03-31", Capacity: 150},
			{StartDate: "2026-04-01", EndDate: "2026-04-30", Capacity: 150},
		}},
	}
}

func testConfig() *model.PlanConfig {
	cfg := model.DefaultPlanConfig("2026-03-01")
	cfg.TimeLimitSeconds = 2
	cfg.Parallelism = 1
	return cfg
}

func TestDefaultPlanConfigFromServerDefaults(t *testing.T) {
	h := NewPlanHandler(nil, config.PlannerConfig{
		DefaultTimeLimit: 5 * time.Second,
		DefaultGapLimit:  0.05,
		Parallelism:      2,
		RandomSeed:       9,
	})

	cfg := h.defaultPlanConfig("2026-03-01")
	if cfg.TimeLimitSeconds != 5 {
		t.Errorf("时间上限 = %v, want 5", cfg.TimeLimitSeconds)
	}
	if cfg.RelativeGapLimit != 0.05 {
		t.Errorf("相对间隙 = %v, want 0.05", cfg.RelativeGapLimit)
	}
	if cfg.Parallelism != 2 {
		t.Errorf("并行度 = %d, want 2", cfg.Parallelism)
	}
	if cfg.RandomSeed != 9 {
		t.Errorf("随机种子 = %d, want 9", cfg.RandomSeed)
	}

	// 未配置的项沿用内置默认值
	zero := NewPlanHandler(nil, config.PlannerConfig{})
	cfg = zero.defaultPlanConfig("2026-03-01")
	if cfg.TimeLimitSeconds != 60 || cfg.Parallelism != 4 {
		t.Errorf("空默认配置应沿用内置默认值, got limit=%v parallelism=%d",
			cfg.TimeLimitSeconds, cfg.Parallelism)
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestSolveEndpoint(t *testing.T) {
	h := NewPlanHandler(nil, config.PlannerConfig{})

	w := postJSON(t, h.Solve, SolveRequest{
		Orders:    testOrders(),
		Factories: testFactories(),
		Config:    testConfig(),
	})

	if w.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		RunID       string             `json:"run_id"`
		Status      planner.Status     `json:"status"`
		Assignments []*model.Assignment `json:"assignments"`
		Gap         float64            `json:"gap"`
		KPI         *struct {
			TotalOrders    int `json:"total_orders"`
			AssignedOrders int `json:"assigned_orders"`
		} `json:"kpi"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	if resp.RunID == "" {
		t.Error("响应缺少 run_id")
	}
	if resp.Status != planner.StatusOptimalFound && resp.Status != planner.StatusFeasibleFound {
		t.Errorf("状态 = %s", resp.Status)
	}
	if len(resp.Assignments) != 3 {
		t.Errorf("分配数量 = %d, want 3", len(resp.Assignments))
	}
	if resp.KPI == nil || resp.KPI.AssignedOrders != 3 {
		t.Errorf("KPI 统计错误: %+v", resp.KPI)
	}
}

func TestSolveEndpointValidationError(t *testing.T) {
	h := NewPlanHandler(nil, config.PlannerConfig{})

	w := postJSON(t, h.Solve, SolveRequest{Config: testConfig()})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("状态码 = %d, want 400", w.Code)
	}
	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["code"] != "VALIDATION_FAILED" {
		t.Errorf("错误码 = %v", resp["code"])
	}
}

func TestSolveEndpointInfeasible(t *testing.T) {
	h := NewPlanHandler(nil, config.PlannerConfig{})

	orders := testOrders()
	for _, o := range orders {
		o.Quantity = 10000 // 远超总产能
	}

	w := postJSON(t, h.Solve, SolveRequest{
		Orders:    orders,
		Factories: testFactories(),
		Config:    testConfig(),
	})

	// 不可行作为求解结论返回200
	if w.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Status planner.Status `json:"status"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != planner.StatusInfeasible {
		t.Errorf("状态 = %s, want INFEASIBLE", resp.Status)
	}
}

func TestValidateEndpoint(t *testing.T) {
	h := NewPlanHandler(nil, config.PlannerConfig{})

	w := postJSON(t, h.Validate, ValidateRequest{
		BaseDate:  "2026-03-01",
		Orders:    testOrders(),
		Factories: testFactories(),
		Assignments: []AssignmentInput{
			{OrderID: "O1", FactoryID: "F1", PeriodStart: "2026-03-01"},
			{OrderID: "O2", FactoryID: "F1", PeriodStart: "2026-03-01"},
			{OrderID: "O3", FactoryID: "F2", PeriodStart: "2026-04-01"},
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ValidateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	// O1+O2 共200负载超过F1在3月的150产能
	if resp.IsValid {
		t.Error("超产能方案应判定为无效")
	}
	found := false
	for _, v := range resp.Violations {
		if v.FactoryID == "F1" {
			found = true
		}
	}
	if !found {
		t.Errorf("违反明细应指向F1: %+v", resp.Violations)
	}
}

func TestValidateEndpointUnknownPeriod(t *testing.T) {
	h := NewPlanHandler(nil, config.PlannerConfig{})

	// 分配到工厂不存在的周期，负载不会计入任何产能周期，
	// 验证仍须判定方案无效
	w := postJSON(t, h.Validate, ValidateRequest{
		BaseDate:  "2026-03-01",
		Orders:    testOrders(),
		Factories: testFactories(),
		Assignments: []AssignmentInput{
			{OrderID: "O1", FactoryID: "F1", PeriodStart: "2026-05-01"},
			{OrderID: "O2", FactoryID: "F1", PeriodStart: "2026-03-01"},
			{OrderID: "O3", FactoryID: "F2", PeriodStart: "2026-04-01"},
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ValidateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.IsValid {
		t.Error("分配到不存在周期的方案应判定为无效")
	}
	found := false
	for _, v := range resp.Violations {
		if v.OrderID == "O1" && v.PeriodStart == "2026-05-01" {
			found = true
		}
	}
	if !found {
		t.Errorf("违反明细应指向问题分配: %+v", resp.Violations)
	}
}

func TestValidateEndpointFeasible(t *testing.T) {
	h := NewPlanHandler(nil, config.PlannerConfig{})

	w := postJSON(t, h.Validate, ValidateRequest{
		BaseDate:  "2026-03-01",
		Orders:    testOrders(),
		Factories: testFactories(),
		Assignments: []AssignmentInput{
			{OrderID: "O1", FactoryID: "F1", PeriodStart: "2026-03-01"},
			{OrderID: "O2", FactoryID: "F2", PeriodStart: "2026-03-01"},
			{OrderID: "O3", FactoryID: "F1", PeriodStart: "2026-04-01"},
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ValidateResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.IsValid {
		t.Errorf("可行方案被判定为无效: %+v", resp.Violations)
	}
}

func TestKPIEndpoint(t *testing.T) {
	h := NewPlanHandler(nil, config.PlannerConfig{})

	w := postJSON(t, h.KPI, KPIRequest{
		BaseDate:  "2026-03-01",
		Orders:    testOrders(),
		Factories: testFactories(),
		Assignments: []AssignmentInput{
			{OrderID: "O1", FactoryID: "F1", PeriodStart: "2026-03-01"},
			{OrderID: "O2", FactoryID: "F2", PeriodStart: "2026-03-01"},
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		TotalOrders    int `json:"total_orders"`
		AssignedOrders int `json:"assigned_orders"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.TotalOrders != 3 || resp.AssignedOrders != 2 {
		t.Errorf("KPI 统计错误: %+v", resp)
	}
}

func TestLibraryEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/constraints/library", nil)
	w := httptest.NewRecorder()
	Library(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("状态码 = %d", w.Code)
	}
	var resp struct {
		Constraints []struct {
			Name string `json:"name"`
		} `json:"constraints"`
		Objectives []struct {
			Name string `json:"name"`
		} `json:"objectives"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Constraints) != 3 {
		t.Errorf("约束数量 = %d, want 3", len(resp.Constraints))
	}
	if len(resp.Objectives) != 3 {
		t.Errorf("目标数量 = %d, want 3", len(resp.Objectives))
	}

	names := map[string]bool{}
	for _, c := range resp.Constraints {
		names[c.Name] = true
	}
	for _, want := range []string{"order_unique_assign", "capacity", "material_lead_time"} {
		if !names[want] {
			t.Errorf("约束库缺少 %s", want)
		}
	}
}

func TestLibraryEndpointMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/constraints/library", nil)
	w := httptest.NewRecorder()
	Library(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("状态码 = %d, want 405", w.Code)
	}
}
