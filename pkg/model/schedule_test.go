package model

import "testing"

func TestScheduleAddRemove(t *testing.T) {
	s := NewSchedule("2026-03-01")

	a := &Assignment{
		OrderID: "O1", FactoryID: "F1", PeriodStart: "2026-03-01",
		StartDate: "2026-03-01", CompletionDate: "2026-03-10", Load: 100,
	}
	if err := s.Add(a); err != nil {
		t.Fatalf("添加分配失败: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}

	// 同一订单重复添加应覆盖
	b := *a
	b.FactoryID = "F2"
	if err := s.Add(&b); err != nil {
		t.Fatalf("覆盖分配失败: %v", err)
	}
	if s.Len() != 1 || s.Get("O1").FactoryID != "F2" {
		t.Error("重复添加应覆盖原分配")
	}

	s.Remove("O1")
	if s.Len() != 0 || s.Get("O1") != nil {
		t.Error("移除后不应再查到分配")
	}
}

func TestScheduleAddInvalidDates(t *testing.T) {
	s := NewSchedule("2026-03-01")
	err := s.Add(&Assignment{
		OrderID: "O1", FactoryID: "F1", PeriodStart: "2026-03-01",
		StartDate: "2026-03-10", CompletionDate: "2026-03-01",
	})
	if err == nil {
		t.Error("完成日期早于开始日期应报错")
	}
}

func TestScheduleFreeze(t *testing.T) {
	s := NewSchedule("2026-03-01")
	a := &Assignment{
		OrderID: "O1", FactoryID: "F1", PeriodStart: "2026-03-01",
		StartDate: "2026-03-01", CompletionDate: "2026-03-10",
	}
	if err := s.Add(a); err != nil {
		t.Fatal(err)
	}

	s.Freeze()
	if err := s.Add(&Assignment{OrderID: "O2", StartDate: "2026-03-01", CompletionDate: "2026-03-02"}); err == nil {
		t.Error("冻结后添加应报错")
	}
	s.Remove("O1")
	if s.Len() != 1 {
		t.Error("冻结后移除应无效")
	}

	// 克隆后可以继续修改
	clone := s.Clone()
	if clone.Frozen() {
		t.Error("克隆结果不应处于冻结状态")
	}
	if err := clone.Add(&Assignment{OrderID: "O2", StartDate: "2026-03-01", CompletionDate: "2026-03-02"}); err != nil {
		t.Errorf("克隆后应可修改: %v", err)
	}
	if s.Len() != 1 {
		t.Error("修改克隆不应影响原方案")
	}
}

func TestScheduleAssignmentsSorted(t *testing.T) {
	s := NewSchedule("2026-03-01")
	for _, id := range []string{"O3", "O1", "O2"} {
		if err := s.Add(&Assignment{OrderID: id, StartDate: "2026-03-01", CompletionDate: "2026-03-02"}); err != nil {
			t.Fatal(err)
		}
	}
	got := s.Assignments()
	for i, want := range []string{"O1", "O2", "O3"} {
		if got[i].OrderID != want {
			t.Errorf("第%d个分配 = %s, want %s", i, got[i].OrderID, want)
		}
	}
}
