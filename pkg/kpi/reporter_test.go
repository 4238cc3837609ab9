package kpi

import (
	"math"
	"testing"

	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
)

func buildData(t *testing.T) (*model.Dataset, *model.Schedule) {
	t.Helper()
	orders := []*model.Order{
		{ID: "O1", Quantity: 100, DueDate: "2026-03-10", Type: model.FirmOrder},
		{ID: "O2", Quantity: 100, DueDate: "2026-03-10", Type: model.FirmOrder},
		{ID: "O3", Quantity: 100, DueDate: "2026-03-10", Type: model.ForecastOrder},
		{ID: "O4", Quantity: 100, DueDate: "2026-03-10", Type: model.ForecastOrder},
	}
	factories := []*model.Factory{
		{ID: "F1", CapacityPeriods: []model.CapacityPeriod{{StartDate: "2026-03-01", EndDate: "2026-03-31", Capacity: 400}}},
		{ID: "F2", CapacityPeriods: []model.CapacityPeriod{{StartDate: "2026-03-01", EndDate: "2026-03-31", Capacity: 400}}},
	}
	ds, err := model.BuildDataset(orders, factories, "2026-03-01")
	if err != nil {
		t.Fatal(err)
	}
	return ds, model.NewSchedule("2026-03-01")
}

func add(t *testing.T, s *model.Schedule, orderID, factoryID, completion string, load float64) {
	t.Helper()
	err := s.Add(&model.Assignment{
		OrderID: orderID, FactoryID: factoryID, PeriodStart: "2026-03-01",
		StartDate: "2026-03-01", CompletionDate: completion, Load: load,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestAnalyze(t *testing.T) {
	ds, schedule := buildData(t)
	add(t, schedule, "O1", "F1", "2026-03-08", 100) // 准时
	add(t, schedule, "O2", "F1", "2026-03-14", 100) // 晚4天
	add(t, schedule, "O3", "F2", "2026-03-12", 100) // 晚2天
	// O4 未分配

	report := NewReporter().Analyze(ds, schedule)

	if report.TotalOrders != 4 || report.AssignedOrders != 3 {
		t.Errorf("订单计数错误: total=%d assigned=%d", report.TotalOrders, report.AssignedOrders)
	}
	if report.OnTimeOrders != 1 {
		t.Errorf("准时订单 = %d, want 1", report.OnTimeOrders)
	}
	if math.Abs(report.OnTimeRate-100.0/3) > 1e-9 {
		t.Errorf("准时率 = %v", report.OnTimeRate)
	}
	if math.Abs(report.AvgTardinessDays-3) > 1e-9 {
		t.Errorf("平均延误 = %v, want 3", report.AvgTardinessDays)
	}
	if report.MaxTardinessDays != 4 {
		t.Errorf("最大延误 = %d, want 4", report.MaxTardinessDays)
	}
	if math.Abs(report.FirmOnTimeRate-50) > 1e-9 {
		t.Errorf("正式单准时率 = %v, want 50", report.FirmOnTimeRate)
	}
}

func TestAnalyzeFactoryStats(t *testing.T) {
	ds, schedule := buildData(t)
	add(t, schedule, "O1", "F1", "2026-03-08", 100)
	add(t, schedule, "O2", "F1", "2026-03-08", 100)
	add(t, schedule, "O3", "F2", "2026-03-08", 100)

	report := NewReporter().Analyze(ds, schedule)

	if len(report.FactoryStats) != 2 {
		t.Fatalf("工厂统计数量 = %d, want 2", len(report.FactoryStats))
	}
	// 结果按工厂ID排序
	f1, f2 := report.FactoryStats[0], report.FactoryStats[1]
	if f1.FactoryID != "F1" || f1.TotalLoad != 200 || f1.OrderCount != 2 {
		t.Errorf("F1 统计错误: %+v", f1)
	}
	if f2.FactoryID != "F2" || f2.TotalLoad != 100 {
		t.Errorf("F2 统计错误: %+v", f2)
	}
	if math.Abs(f1.Utilization-50) > 1e-9 {
		t.Errorf("F1 利用率 = %v, want 50", f1.Utilization)
	}
	// 负载 [200, 100]：标准差50，最大200
	if math.Abs(report.LoadStdDev-50) > 1e-9 {
		t.Errorf("负载标准差 = %v, want 50", report.LoadStdDev)
	}
	if report.MaxLoad != 200 {
		t.Errorf("最大负载 = %v, want 200", report.MaxLoad)
	}
}

func TestAnalyzeEmptySchedule(t *testing.T) {
	ds, schedule := buildData(t)
	report := NewReporter().Analyze(ds, schedule)
	if report.AssignedOrders != 0 || report.OnTimeRate != 0 {
		t.Error("空方案的指标应为零值")
	}
}
