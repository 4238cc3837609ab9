package objective

import (
	"math"
	"testing"

	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func buildContext(t *testing.T, orders []*model.Order, factories []*model.Factory) *constraint.Context {
	t.Helper()
	ds, err := model.BuildDataset(orders, factories, "2026-03-01")
	if err != nil {
		t.Fatalf("构建数据集失败: %v", err)
	}
	return constraint.NewContext(ds, "2026-03-01")
}

func singleFactory() []*model.Factory {
	return []*model.Factory{
		{
			ID: "F1",
			CapacityPeriods: []model.CapacityPeriod{
				{StartDate: "2026-03-01", EndDate: "2026-03-31", Capacity: 10000},
			},
		},
	}
}

func apply(t *testing.T, ctx *constraint.Context, orderID, factoryID, completion string, load float64) {
	t.Helper()
	err := ctx.Apply(&model.Assignment{
		OrderID: orderID, FactoryID: factoryID, PeriodStart: "2026-03-01",
		StartDate: "2026-03-01", CompletionDate: completion, Load: load,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestTardinessOnTimeOrderContributesZero(t *testing.T) {
	orders := []*model.Order{
		{ID: "O1", Quantity: 10, DueDate: "2026-03-20", Type: model.FirmOrder},
	}
	ctx := buildContext(t, orders, singleFactory())
	apply(t, ctx, "O1", "F1", "2026-03-20", 10)

	obj := NewTardinessObjective(model.TardinessConfig{FirmTardyWeight: 0.7, ForecastTardyWeight: 0.3})
	if got := obj.Evaluate(ctx); got != 0 {
		t.Errorf("按期完成的订单延误值应为0, got %v", got)
	}
	// 提前完成同样不产生延误
	apply(t, ctx, "O1", "F1", "2026-03-10", 10)
	if got := obj.Evaluate(ctx); got != 0 {
		t.Errorf("提前完成的订单延误值应为0, got %v", got)
	}
}

func TestTardinessFirmWeight(t *testing.T) {
	orders := []*model.Order{
		{ID: "O1", Quantity: 10, DueDate: "2026-03-15", Type: model.FirmOrder},
	}
	ctx := buildContext(t, orders, singleFactory())
	// 正式单晚5天：0.7 × 5 / 1
	apply(t, ctx, "O1", "F1", "2026-03-20", 10)

	obj := NewTardinessObjective(model.TardinessConfig{FirmTardyWeight: 0.7, ForecastTardyWeight: 0.3})
	if got := obj.Evaluate(ctx); !almostEqual(got, 3.5) {
		t.Errorf("延误值 = %v, want 3.5", got)
	}
}

func TestTardinessNormalization(t *testing.T) {
	// 同一个晚5天的正式单，订单总数翻倍时归一化值减半
	cfg := model.TardinessConfig{FirmTardyWeight: 0.7, ForecastTardyWeight: 0.3}

	orders := []*model.Order{
		{ID: "O1", Quantity: 10, DueDate: "2026-03-15", Type: model.FirmOrder},
		{ID: "O2", Quantity: 10, DueDate: "2026-03-31", Type: model.ForecastOrder},
	}
	ctx := buildContext(t, orders, singleFactory())
	apply(t, ctx, "O1", "F1", "2026-03-20", 10)
	apply(t, ctx, "O2", "F1", "2026-03-20", 10)

	obj := NewTardinessObjective(cfg)
	if got := obj.Evaluate(ctx); !almostEqual(got, 1.75) {
		t.Errorf("两订单归一化延误值 = %v, want 1.75", got)
	}
}

func TestTardinessUnassignedExcludedButCounted(t *testing.T) {
	// 未分配订单不计入分子，但保留在归一化分母中
	orders := []*model.Order{
		{ID: "O1", Quantity: 10, DueDate: "2026-03-15", Type: model.FirmOrder},
		{ID: "O2", Quantity: 10, DueDate: "2026-03-15", Type: model.FirmOrder},
	}
	ctx := buildContext(t, orders, singleFactory())
	apply(t, ctx, "O1", "F1", "2026-03-20", 10)

	obj := NewTardinessObjective(model.TardinessConfig{FirmTardyWeight: 0.7})
	if got := obj.Evaluate(ctx); !almostEqual(got, 1.75) {
		t.Errorf("延误值 = %v, want 1.75", got)
	}
}

func TestJITToleranceBand(t *testing.T) {
	cfg := model.JITConfig{
		AllowedEarlinessDeviationDays: 7,
		AllowedTardinessDeviationDays: 3,
		EarlinessWeight:               0.3,
		LatenessWeight:                0.7,
	}
	obj := NewJITObjective(cfg)
	order := &model.Order{ID: "O1", TargetDate: "2026-03-15", DueDate: "2026-03-20"}

	tests := []struct {
		completion string
		want       float64
	}{
		{"2026-03-15", 0},         // 正点
		{"2026-03-08", 0},         // 提前7天，容差边界
		{"2026-03-06", 0.3 * 2},   // 提前9天，超出2天
		{"2026-03-18", 0},         // 延后3天，容差边界
		{"2026-03-22", 0.7 * 4},   // 延后7天，超出4天
	}
	for _, tt := range tests {
		if got := obj.OrderCost(order, tt.completion); !almostEqual(got, tt.want) {
			t.Errorf("完成日期 %s 的JIT成本 = %v, want %v", tt.completion, got, tt.want)
		}
	}
}

func TestJITFallsBackToDueDate(t *testing.T) {
	cfg := model.JITConfig{AllowedTardinessDeviationDays: 0, LatenessWeight: 1}
	obj := NewJITObjective(cfg)
	order := &model.Order{ID: "O1", DueDate: "2026-03-15"}

	if got := obj.OrderCost(order, "2026-03-17"); !almostEqual(got, 2) {
		t.Errorf("无目标日期时应以交付日期为基准, got %v", got)
	}
}

func TestBalanceObjective(t *testing.T) {
	orders := []*model.Order{
		{ID: "O1", Quantity: 100, DueDate: "2026-03-31"},
		{ID: "O2", Quantity: 300, DueDate: "2026-03-31"},
	}
	factories := []*model.Factory{
		{ID: "F1", CapacityPeriods: []model.CapacityPeriod{{StartDate: "2026-03-01", EndDate: "2026-03-31", Capacity: 1000}}},
		{ID: "F2", CapacityPeriods: []model.CapacityPeriod{{StartDate: "2026-03-01", EndDate: "2026-03-31", Capacity: 1000}}},
	}
	ctx := buildContext(t, orders, factories)
	apply(t, ctx, "O1", "F1", "2026-03-10", 100)
	apply(t, ctx, "O2", "F2", "2026-03-10", 300)

	// 负载 [100, 300]：均值200，总体标准差100，最大300
	obj := NewBalanceObjective(model.BalanceConfig{ImbalanceWeight: 0.5, MaxLoadWeight: 0.5, ScalingFactor: 0.01})
	want := 0.01 * (0.5*100 + 0.5*300)
	if got := obj.Evaluate(ctx); !almostEqual(got, want) {
		t.Errorf("负载均衡值 = %v, want %v", got, want)
	}
}

func TestEvaluatorCombinesWeightedTerms(t *testing.T) {
	cfg := model.DefaultPlanConfig("2026-03-01")
	cfg.ObjectiveWeights = map[string]float64{
		model.ObjectiveTardiness: 1,
		model.ObjectiveJIT:       0,
		model.ObjectiveBalance:   0,
	}

	orders := []*model.Order{
		{ID: "O1", Quantity: 10, DueDate: "2026-03-15", Type: model.FirmOrder},
	}
	ctx := buildContext(t, orders, singleFactory())
	apply(t, ctx, "O1", "F1", "2026-03-20", 10)

	b := NewEvaluator(cfg).Evaluate(ctx)
	if !almostEqual(b.Total, 3.5) {
		t.Errorf("组合目标值 = %v, want 3.5", b.Total)
	}
	// 权重为零的项不应出现在分解中
	if _, ok := b.Terms[model.ObjectiveJIT]; ok {
		t.Error("零权重目标项不应参与计算")
	}
	if !almostEqual(b.Terms[model.ObjectiveTardiness], 3.5) {
		t.Errorf("延误分项 = %v, want 3.5", b.Terms[model.ObjectiveTardiness])
	}
}

func TestLowerBoundNeverExceedsSolution(t *testing.T) {
	cfg := model.DefaultPlanConfig("2026-03-01")
	orders := []*model.Order{
		{ID: "O1", Quantity: 10, DueDate: "2026-03-05", Type: model.FirmOrder, ProductionLeadTimeDays: 2},
		{ID: "O2", Quantity: 10, DueDate: "2026-03-31", Type: model.ForecastOrder},
	}
	ctx := buildContext(t, orders, singleFactory())
	apply(t, ctx, "O1", "F1", "2026-03-10", 10)
	apply(t, ctx, "O2", "F1", "2026-03-10", 10)

	eval := NewEvaluator(cfg)
	bound := eval.LowerBound(ctx.Data)
	best := eval.Evaluate(ctx).Total
	if bound > best+1e-9 {
		t.Errorf("下界 %v 不应超过可行解目标值 %v", bound, best)
	}
	if g := Gap(best, bound); g < 0 || g > 1 {
		t.Errorf("间隙应在 [0,1] 内, got %v", g)
	}
}

func TestGapZeroWhenBestZero(t *testing.T) {
	if Gap(0, 0) != 0 {
		t.Error("目标值为零时间隙应为零")
	}
}

func TestMaxOrderTardinessAndEarliestFirmCompletion(t *testing.T) {
	orders := []*model.Order{
		{ID: "O1", Quantity: 10, DueDate: "2026-03-10", Type: model.FirmOrder},
		{ID: "O2", Quantity: 10, DueDate: "2026-03-12", Type: model.ForecastOrder},
	}
	ctx := buildContext(t, orders, singleFactory())
	apply(t, ctx, "O1", "F1", "2026-03-14", 10)
	apply(t, ctx, "O2", "F1", "2026-03-20", 10)

	if got := MaxOrderTardiness(ctx); got != 8 {
		t.Errorf("最大单订单延误 = %d, want 8", got)
	}
	if got := EarliestFirmCompletion(ctx); got != "2026-03-14" {
		t.Errorf("最早正式单完成日期 = %s, want 2026-03-14", got)
	}
}
