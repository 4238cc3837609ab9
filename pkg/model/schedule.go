package model

import (
	"fmt"
	"sort"
)

// Assignment 订单到（工厂，周期）的一次分配
type Assignment struct {
	OrderID     string `json:"order_id"`
	FactoryID   string `json:"factory_id"`
	PeriodStart string `json:"period_start"`

	StartDate      string `json:"start_date"`
	CompletionDate string `json:"completion_date"`

	// 物料关键日期（由前置时间倒推得出）
	MaterialReadyDate     string `json:"material_ready_date,omitempty"`
	LatestConfirmDate     string `json:"latest_material_confirm_date,omitempty"`

	// Load 为效率调整后的实际工作量
	Load float64 `json:"load"`
}

// Key 返回分配的唯一标识
func (a *Assignment) Key() string {
	return fmt.Sprintf("%s/%s/%s", a.OrderID, a.FactoryID, a.PeriodStart)
}

// Schedule 一个规划期内的完整排产方案。
// 求解期间由引擎独占修改，Freeze 之后不可再变更。
type Schedule struct {
	BaseDate    string
	assignments map[string]*Assignment
	frozen      bool
}

// NewSchedule 创建空的排产方案
func NewSchedule(baseDate string) *Schedule {
	return &Schedule{
		BaseDate:    baseDate,
		assignments: make(map[string]*Assignment),
	}
}

// Add 添加或替换一个订单的分配
func (s *Schedule) Add(a *Assignment) error {
	if s.frozen {
		return fmt.Errorf("排产方案已冻结，不可修改")
	}
	if a.CompletionDate < a.StartDate {
		return fmt.Errorf("订单 %s 的完成日期早于开始日期", a.OrderID)
	}
	s.assignments[a.OrderID] = a
	return nil
}

// Remove 移除一个订单的分配
func (s *Schedule) Remove(orderID string) {
	if s.frozen {
		return
	}
	delete(s.assignments, orderID)
}

// Get 获取订单的分配，不存在时返回nil
func (s *Schedule) Get(orderID string) *Assignment {
	return s.assignments[orderID]
}

// Len 返回已分配订单数
func (s *Schedule) Len() int {
	return len(s.assignments)
}

// Assignments 返回按订单ID排序的分配列表（保证遍历顺序确定）
func (s *Schedule) Assignments() []*Assignment {
	result := make([]*Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OrderID < result[j].OrderID
	})
	return result
}

// Clone 深拷贝排产方案（拷贝后未冻结）
func (s *Schedule) Clone() *Schedule {
	clone := NewSchedule(s.BaseDate)
	for id, a := range s.assignments {
		copied := *a
		clone.assignments[id] = &copied
	}
	return clone
}

// Freeze 冻结排产方案
func (s *Schedule) Freeze() {
	s.frozen = true
}

// Frozen 是否已冻结
func (s *Schedule) Frozen() bool {
	return s.frozen
}
