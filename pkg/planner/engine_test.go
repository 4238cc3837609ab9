package planner

import (
	"context"
	"testing"

	"github.com/zhangyoujia1995/NICE-APS/pkg/errors"
	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
)

func feasibleProblem() ([]*model.Order, []*model.Factory) {
	orders := []*model.Order{
		{ID: "O1", Quantity: 100, DueDate: "2026-03-10", Type: model.FirmOrder, ProductionLeadTimeDays: 3},
		{ID: "O2", Quantity: 100, DueDate: "2026-03-18", Type: model.FirmOrder, ProductionLeadTimeDays: 3},
		{ID: "O3", Quantity: 100, DueDate: "2026-03-25", ProductionLeadTimeDays: 3},
	}
	factories := []*model.Factory{
		{
			ID: "F1",
			CapacityPeriods: []model.CapacityPeriod{
				{StartDate: "2026-03-01", EndDate: "2026-03-07", Capacity: 150},
				{StartDate: "2026-03-08", EndDate: "2026-03-14", Capacity: 150},
				{StartDate: "2026-03-15", EndDate: "2026-03-21", Capacity: 150},
			},
		},
		{
			ID: "F2",
			CapacityPeriods: []model.CapacityPeriod{
				{StartDate: "2026-03-01", EndDate: "2026-03-07", Capacity: 150},
				{StartDate: "2026-03-08", EndDate: "2026-03-14", Capacity: 150},
			},
		},
	}
	return orders, factories
}

func quickConfig() *model.PlanConfig {
	cfg := model.DefaultPlanConfig("2026-03-01")
	cfg.TimeLimitSeconds = 5
	cfg.Parallelism = 2
	cfg.RandomSeed = 42
	return cfg
}

func TestEngineSolveFeasible(t *testing.T) {
	e := NewEngine()
	if e.Status() != StatusNotStarted {
		t.Errorf("初始状态 = %s, want NOT_STARTED", e.Status())
	}

	orders, factories := feasibleProblem()
	result, err := e.Solve(context.Background(), orders, factories, quickConfig())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}

	if result.Status != StatusOptimalFound && result.Status != StatusFeasibleFound {
		t.Errorf("状态 = %s, want OPTIMAL_FOUND 或 FEASIBLE_FOUND", result.Status)
	}
	if !result.Status.Terminal() {
		t.Error("求解结束后应处于终止状态")
	}
	if e.Status() != result.Status {
		t.Error("引擎状态应与结果状态一致")
	}

	if len(result.Assignments) != 3 {
		t.Errorf("已分配订单 = %d, want 3", len(result.Assignments))
	}
	if len(result.Violations) != 0 {
		t.Errorf("可行方案不应有约束违反: %v", result.Violations)
	}
	if result.Gap < 0 || result.Gap > 1 {
		t.Errorf("间隙应在 [0,1] 内, got %v", result.Gap)
	}

	// 返回的方案必须已冻结
	if !result.Schedule.Frozen() {
		t.Error("结果方案应已冻结")
	}
	if err := result.Schedule.Add(&model.Assignment{OrderID: "X", StartDate: "2026-03-01", CompletionDate: "2026-03-02"}); err == nil {
		t.Error("冻结方案不应接受修改")
	}
}

func TestEngineSolveDeterministicWithSeed(t *testing.T) {
	orders, factories := feasibleProblem()
	cfg := quickConfig()
	cfg.Parallelism = 1

	var first *PlanResult
	for i := 0; i < 2; i++ {
		result, err := NewEngine().Solve(context.Background(), orders, factories, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if first == nil {
			first = result
			continue
		}
		if result.Objective.Total != first.Objective.Total {
			t.Errorf("同种子目标值不一致: %v vs %v", result.Objective.Total, first.Objective.Total)
		}
		for j, a := range result.Assignments {
			b := first.Assignments[j]
			if a.OrderID != b.OrderID || a.FactoryID != b.FactoryID || a.PeriodStart != b.PeriodStart {
				t.Errorf("同种子分配不一致: %+v vs %+v", a, b)
			}
		}
	}
}

func TestEngineSolveInfeasibleCapacity(t *testing.T) {
	orders := []*model.Order{
		{ID: "O1", Quantity: 1000, DueDate: "2026-03-10", Type: model.FirmOrder},
	}
	_, factories := feasibleProblem()

	e := NewEngine()
	result, err := e.Solve(context.Background(), orders, factories, quickConfig())
	if !errors.Is(err, errors.CodeInfeasibleProblem) {
		t.Fatalf("应返回无可行解错误, got %v", err)
	}
	if result.Status != StatusInfeasible {
		t.Errorf("状态 = %s, want INFEASIBLE", result.Status)
	}
	if e.Status() != StatusInfeasible {
		t.Error("引擎状态应为 INFEASIBLE")
	}
}

func TestEngineSolveConfigurationError(t *testing.T) {
	orders, factories := feasibleProblem()
	cfg := quickConfig()
	cfg.ActiveConstraints = []string{"no_such_constraint"}

	e := NewEngine()
	_, err := e.Solve(context.Background(), orders, factories, cfg)
	if !errors.Is(err, errors.CodeConfigurationError) {
		t.Fatalf("未知约束应返回配置错误, got %v", err)
	}
	if e.Status() != StatusError {
		t.Errorf("引擎状态 = %s, want ERROR", e.Status())
	}
}

func TestEngineSolveValidationError(t *testing.T) {
	orders := []*model.Order{
		{ID: "O1", Quantity: -5, DueDate: "2026-03-10"},
	}
	_, factories := feasibleProblem()

	_, err := NewEngine().Solve(context.Background(), orders, factories, quickConfig())
	if !errors.Is(err, errors.CodeValidationFail) {
		t.Fatalf("非法输入应返回校验错误, got %v", err)
	}
}

func TestEngineSolveEmptyConstraintList(t *testing.T) {
	orders, factories := feasibleProblem()
	cfg := quickConfig()
	cfg.ActiveConstraints = nil

	result, err := NewEngine().Solve(context.Background(), orders, factories, cfg)
	if err != nil {
		t.Fatalf("无约束求解失败: %v", err)
	}
	if result.Status != StatusOptimalFound && result.Status != StatusFeasibleFound {
		t.Errorf("无约束时应得到可行结果, got %s", result.Status)
	}
}

func TestEngineSolveRespectsFixedAssignment(t *testing.T) {
	orders, factories := feasibleProblem()
	orders[2].Fixed = &model.FixedAssignment{FactoryID: "F2", PeriodStart: "2026-03-08"}

	result, err := NewEngine().Solve(context.Background(), orders, factories, quickConfig())
	if err != nil {
		t.Fatal(err)
	}
	a := result.Schedule.Get("O3")
	if a == nil || a.FactoryID != "F2" || a.PeriodStart != "2026-03-08" {
		t.Errorf("固定分配未被保留: %+v", a)
	}
}

func TestEngineStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusOptimalFound, StatusFeasibleFound, StatusTimeLimitReached, StatusInfeasible, StatusError} {
		if !s.Terminal() {
			t.Errorf("%s 应为终止状态", s)
		}
	}
	for _, s := range []Status{StatusNotStarted, StatusSearching} {
		if s.Terminal() {
			t.Errorf("%s 不应为终止状态", s)
		}
	}
}
