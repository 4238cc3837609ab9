package solver

import (
	"context"
	"testing"

	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint/builtin"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/objective"
)

func newManager(t *testing.T, active []string) *constraint.Manager {
	t.Helper()
	m := constraint.NewManager()
	cs, err := builtin.ForNames(active)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range cs {
		m.Register(c)
	}
	return m
}

func buildContext(t *testing.T, orders []*model.Order, factories []*model.Factory) *constraint.Context {
	t.Helper()
	ds, err := model.BuildDataset(orders, factories, "2026-03-01")
	if err != nil {
		t.Fatalf("构建数据集失败: %v", err)
	}
	return constraint.NewContext(ds, "2026-03-01")
}

func twoFactories() []*model.Factory {
	return []*model.Factory{
		{
			ID: "F1",
			CapacityPeriods: []model.CapacityPeriod{
				{StartDate: "2026-03-01", EndDate: "2026-03-07", Capacity: 150},
				{StartDate: "2026-03-08", EndDate: "2026-03-14", Capacity: 150},
			},
		},
		{
			ID: "F2",
			CapacityPeriods: []model.CapacityPeriod{
				{StartDate: "2026-03-01", EndDate: "2026-03-07", Capacity: 150},
			},
		},
	}
}

func TestSortOrders(t *testing.T) {
	orders := []*model.Order{
		{ID: "O3", DueDate: "2026-03-10", Type: model.ForecastOrder},
		{ID: "O2", DueDate: "2026-03-20", Type: model.FirmOrder},
		{ID: "O1", DueDate: "2026-03-10", Type: model.FirmOrder},
		{ID: "O4", DueDate: "2026-03-10", Type: model.FirmOrder},
	}
	sorted := SortOrders(orders)
	want := []string{"O1", "O4", "O2", "O3"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Errorf("第%d个订单 = %s, want %s", i, sorted[i].ID, id)
		}
	}
}

func TestGreedySolveAssignsAll(t *testing.T) {
	orders := []*model.Order{
		{ID: "O1", Quantity: 100, DueDate: "2026-03-10", Type: model.FirmOrder, ProductionLeadTimeDays: 5},
		{ID: "O2", Quantity: 100, DueDate: "2026-03-20", Type: model.ForecastOrder, ProductionLeadTimeDays: 5},
		{ID: "O3", Quantity: 100, DueDate: "2026-03-25", ProductionLeadTimeDays: 5},
	}
	solveCtx := buildContext(t, orders, twoFactories())
	cfg := model.DefaultPlanConfig("2026-03-01")
	s := NewGreedySolver(newManager(t, cfg.ActiveConstraints), objective.NewEvaluator(cfg))

	result, err := s.Solve(context.Background(), solveCtx)
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if !result.Success {
		t.Fatalf("应找到满足约束的方案: %s", result.Message)
	}
	if result.Statistics.AssignedOrders != 3 {
		t.Errorf("已分配订单 = %d, want 3", result.Statistics.AssignedOrders)
	}
	// 三个订单各100负载，单厂单周期产能150，必然分散
	if !result.ConstraintResult.IsValid {
		t.Error("最终方案不应违反产能约束")
	}
}

func TestGreedySolveDeterministic(t *testing.T) {
	orders := []*model.Order{
		{ID: "O1", Quantity: 100, DueDate: "2026-03-10", Type: model.FirmOrder},
		{ID: "O2", Quantity: 100, DueDate: "2026-03-20"},
	}
	cfg := model.DefaultPlanConfig("2026-03-01")

	var first []*model.Assignment
	for i := 0; i < 3; i++ {
		solveCtx := buildContext(t, orders, twoFactories())
		s := NewGreedySolver(newManager(t, cfg.ActiveConstraints), objective.NewEvaluator(cfg))
		result, err := s.Solve(context.Background(), solveCtx)
		if err != nil {
			t.Fatal(err)
		}
		if first == nil {
			first = result.Assignments
			continue
		}
		if len(result.Assignments) != len(first) {
			t.Fatal("多次求解分配数量不一致")
		}
		for j, a := range result.Assignments {
			if a.FactoryID != first[j].FactoryID || a.PeriodStart != first[j].PeriodStart {
				t.Errorf("第%d次求解订单 %s 的分配与首次不一致", i, a.OrderID)
			}
		}
	}
}

func TestGreedySolveHonorsFixedAssignment(t *testing.T) {
	orders := []*model.Order{
		{
			ID: "O1", Quantity: 100, DueDate: "2026-03-10", Type: model.FirmOrder,
			Fixed: &model.FixedAssignment{FactoryID: "F1", PeriodStart: "2026-03-08"},
		},
	}
	solveCtx := buildContext(t, orders, twoFactories())
	cfg := model.DefaultPlanConfig("2026-03-01")
	s := NewGreedySolver(newManager(t, cfg.ActiveConstraints), objective.NewEvaluator(cfg))

	result, err := s.Solve(context.Background(), solveCtx)
	if err != nil {
		t.Fatal(err)
	}
	a := solveCtx.Schedule.Get("O1")
	if a == nil || a.FactoryID != "F1" || a.PeriodStart != "2026-03-08" {
		t.Errorf("固定分配未被落实: %+v, result=%s", a, result.Message)
	}
}

func TestGreedySolveLeavesInfeasibleOrderUnassigned(t *testing.T) {
	orders := []*model.Order{
		{ID: "O1", Quantity: 1000, DueDate: "2026-03-10", Type: model.FirmOrder},
	}
	solveCtx := buildContext(t, orders, twoFactories())
	cfg := model.DefaultPlanConfig("2026-03-01")
	s := NewGreedySolver(newManager(t, cfg.ActiveConstraints), objective.NewEvaluator(cfg))

	// 负载1000超出所有周期产能，订单留空且方案违反唯一分配约束
	result, err := s.Solve(context.Background(), solveCtx)
	if err != nil {
		t.Fatal(err)
	}
	if result.Success {
		t.Error("产能不足时不应声称成功")
	}
	if solveCtx.Schedule.Len() != 0 {
		t.Error("无可行候选的订单应保持未分配")
	}
}

func TestGreedySolveCancelled(t *testing.T) {
	orders := []*model.Order{
		{ID: "O1", Quantity: 100, DueDate: "2026-03-10"},
	}
	solveCtx := buildContext(t, orders, twoFactories())
	cfg := model.DefaultPlanConfig("2026-03-01")
	s := NewGreedySolver(newManager(t, cfg.ActiveConstraints), objective.NewEvaluator(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Solve(ctx, solveCtx); err == nil {
		t.Error("已取消的上下文应返回错误")
	}
}

func TestMakeAssignmentDerivedDates(t *testing.T) {
	orders := []*model.Order{
		{
			ID: "O1", Quantity: 100, DueDate: "2026-04-01",
			Materials:              []model.Material{{Name: "面料A", PurchasingLeadTimeDays: 6}},
			ProductionLeadTimeDays: 4,
		},
	}
	solveCtx := buildContext(t, orders, twoFactories())
	o := solveCtx.Data.Order("O1")

	a := MakeAssignment(solveCtx.Data, o, "F1", "2026-03-08")
	if a.CompletionDate != "2026-03-12" {
		t.Errorf("完成日期 = %s, want 2026-03-12", a.CompletionDate)
	}
	if a.MaterialReadyDate != "2026-03-04" {
		t.Errorf("物料就绪日期 = %s, want 2026-03-04", a.MaterialReadyDate)
	}
	if a.LatestConfirmDate != "2026-02-26" {
		t.Errorf("最晚确认日期 = %s, want 2026-02-26", a.LatestConfirmDate)
	}
}
