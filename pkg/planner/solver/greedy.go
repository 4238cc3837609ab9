// Package solver 提供排产求解器
package solver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/zhangyoujia1995/NICE-APS/pkg/logger"
	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/objective"
)

// Solver 求解器接口
type Solver interface {
	// Solve 在上下文中生成初始排产方案
	Solve(ctx context.Context, solveCtx *constraint.Context) (*Result, error)

	// Name 返回求解器名称
	Name() string
}

// Result 求解结果
type Result struct {
	Assignments      []*model.Assignment `json:"assignments"`
	Statistics       *Statistics         `json:"statistics"`
	ConstraintResult *constraint.Result  `json:"constraint_result"`
	Duration         time.Duration       `json:"duration"`
	Success          bool                `json:"success"`
	Message          string              `json:"message,omitempty"`
}

// Statistics 求解统计
type Statistics struct {
	TotalOrders    int     `json:"total_orders"`
	AssignedOrders int     `json:"assigned_orders"`
	AssignRate     float64 `json:"assign_rate"`
	Iterations     int     `json:"iterations"`
	Objective      float64 `json:"objective"`
}

// Candidate 一个可行的（工厂，周期）候选
type Candidate struct {
	FactoryID   string
	PeriodStart string
	Cost        float64
}

// GreedySolver 贪心求解器。
// 按正式单优先、交付日期升序处理订单，每个订单选择
// 单订单成本最小且不违反激活约束的（工厂，周期）。
type GreedySolver struct {
	constraintManager *constraint.Manager
	evaluator         *objective.Evaluator
	logger            *logger.PlannerLogger
}

// NewGreedySolver 创建贪心求解器
func NewGreedySolver(cm *constraint.Manager, eval *objective.Evaluator) *GreedySolver {
	return &GreedySolver{
		constraintManager: cm,
		evaluator:         eval,
		logger:            logger.NewPlannerLogger(),
	}
}

// Name 返回求解器名称
func (s *GreedySolver) Name() string {
	return "GreedySolver"
}

// Solve 使用贪心算法生成初始方案
func (s *GreedySolver) Solve(ctx context.Context, solveCtx *constraint.Context) (*Result, error) {
	startTime := time.Now()

	result := &Result{
		Assignments: make([]*model.Assignment, 0),
		Statistics:  &Statistics{TotalOrders: len(solveCtx.Data.Orders)},
	}

	if len(solveCtx.Data.Factories) == 0 {
		return result, fmt.Errorf("没有可用工厂")
	}
	if len(solveCtx.Data.Orders) == 0 {
		result.Success = true
		result.Message = "没有待排产订单"
		result.Duration = time.Since(startTime)
		return result, nil
	}

	orders := SortOrders(solveCtx.Data.Orders)

	// 先落实固定分配，锁定的订单不参与选择
	for _, o := range orders {
		if o.Fixed == nil {
			continue
		}
		a := MakeAssignment(solveCtx.Data, o, o.Fixed.FactoryID, o.Fixed.PeriodStart)
		if err := solveCtx.Apply(a); err != nil {
			return result, err
		}
	}

	iterations := 0
	for _, o := range orders {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if o.Fixed != nil {
			continue
		}
		iterations++

		candidates := s.candidates(solveCtx, o)
		if len(candidates) == 0 {
			s.logger.ConstraintViolation("贪心分配", fmt.Sprintf("订单 %s 无可行的工厂周期组合", o.ID))
			continue
		}

		best := candidates[0]
		a := MakeAssignment(solveCtx.Data, o, best.FactoryID, best.PeriodStart)
		if err := solveCtx.Apply(a); err != nil {
			return result, err
		}
	}

	result.ConstraintResult = s.constraintManager.Evaluate(solveCtx)
	result.Success = result.ConstraintResult.IsValid
	result.Assignments = solveCtx.Schedule.Assignments()
	result.Duration = time.Since(startTime)

	result.Statistics.AssignedOrders = solveCtx.Schedule.Len()
	result.Statistics.Iterations = iterations
	if result.Statistics.TotalOrders > 0 {
		result.Statistics.AssignRate = float64(result.Statistics.AssignedOrders) /
			float64(result.Statistics.TotalOrders) * 100
	}
	result.Statistics.Objective = s.evaluator.Evaluate(solveCtx).Total

	if !result.Success {
		result.Message = fmt.Sprintf("存在 %d 条约束违反", len(result.ConstraintResult.Violations))
	} else {
		result.Message = fmt.Sprintf("排产成功，分配率 %.1f%%", result.Statistics.AssignRate)
	}

	return result, nil
}

// candidates 枚举订单的全部可行候选，按单订单成本升序排序。
// 成本相同时按工厂ID、周期起始日期排序，保证结果确定。
func (s *GreedySolver) candidates(solveCtx *constraint.Context, o *model.Order) []Candidate {
	var result []Candidate

	for _, fid := range solveCtx.Data.EligibleFactories(o.ID) {
		f := solveCtx.Data.Factory(fid)
		for _, p := range f.CapacityPeriods {
			a := MakeAssignment(solveCtx.Data, o, fid, p.StartDate)
			if ok, _ := s.constraintManager.CanAssign(solveCtx, a); !ok {
				continue
			}
			result = append(result, Candidate{
				FactoryID:   fid,
				PeriodStart: p.StartDate,
				Cost:        s.evaluator.OrderCost(o, a.CompletionDate),
			})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Cost != result[j].Cost {
			return result[i].Cost < result[j].Cost
		}
		if result[i].FactoryID != result[j].FactoryID {
			return result[i].FactoryID < result[j].FactoryID
		}
		return result[i].PeriodStart < result[j].PeriodStart
	})

	return result
}

// SortOrders 返回按处理优先级排序的订单副本：
// 正式单在前，交付日期早的在前，同日期按订单ID。
func SortOrders(orders []*model.Order) []*model.Order {
	sorted := make([]*model.Order, len(orders))
	copy(sorted, orders)
	sort.Slice(sorted, func(i, j int) bool {
		oi, oj := sorted[i], sorted[j]
		if oi.IsFirm() != oj.IsFirm() {
			return oi.IsFirm()
		}
		if oi.DueDate != oj.DueDate {
			return oi.DueDate < oj.DueDate
		}
		return oi.ID < oj.ID
	})
	return sorted
}

// MakeAssignment 构造订单在指定（工厂，周期）的完整分配，
// 含完成日期、效率调整负载与物料关键日期。
func MakeAssignment(ds *model.Dataset, o *model.Order, factoryID, periodStart string) *model.Assignment {
	f := ds.Factory(factoryID)
	completion := ds.CompletionDate(o, periodStart)

	a := &model.Assignment{
		OrderID:        o.ID,
		FactoryID:      factoryID,
		PeriodStart:    periodStart,
		StartDate:      periodStart,
		CompletionDate: completion,
		Load:           ds.EffectiveLoad(o.ID, factoryID),
	}
	if f != nil {
		a.MaterialReadyDate, a.LatestConfirmDate = ds.MaterialDates(o, f, periodStart)
	}
	return a
}
