package builtin

import (
	"fmt"

	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
)

// CapacityConstraint 产能约束。
// 每个工厂每个周期的累计负载（效率调整后）不得超过该周期产能。
type CapacityConstraint struct {
	*BaseConstraint
}

// NewCapacityConstraint 创建产能约束
func NewCapacityConstraint() *CapacityConstraint {
	return &CapacityConstraint{
		BaseConstraint: NewBaseConstraint("工厂产能", constraint.TypeCapacity),
	}
}

// Evaluate 评估整个排产方案
func (c *CapacityConstraint) Evaluate(ctx *constraint.Context) (bool, []constraint.ViolationDetail) {
	var details []constraint.ViolationDetail

	// 产能按真实周期汇总，分配到不存在的工厂或周期的负载
	// 不会计入任何周期，必须单独报违反
	for _, a := range ctx.Schedule.Assignments() {
		f := ctx.Data.Factory(a.FactoryID)
		if f == nil {
			details = append(details, c.CreateViolation(a.OrderID, a.FactoryID, a.PeriodStart,
				fmt.Sprintf("订单 %s 分配到了不存在的工厂 %s", a.OrderID, a.FactoryID)))
			continue
		}
		if f.PeriodByStart(a.PeriodStart) == nil {
			details = append(details, c.CreateViolation(a.OrderID, a.FactoryID, a.PeriodStart,
				fmt.Sprintf("订单 %s 分配到了工厂 %s 不存在的周期 %s", a.OrderID, a.FactoryID, a.PeriodStart)))
		}
	}

	for _, f := range ctx.Data.Factories {
		for _, p := range f.CapacityPeriods {
			load := ctx.LoadAt(f.ID, p.StartDate)
			if load > p.Capacity {
				details = append(details, c.CreateViolation("", f.ID, p.StartDate,
					fmt.Sprintf("工厂 %s 周期 %s 负载 %.1f 超过产能 %.1f",
						f.ID, p.StartDate, load, p.Capacity)))
			}
		}
	}

	return len(details) == 0, details
}

// EvaluateAssignment 评估单个分配
func (c *CapacityConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) bool {
	f := ctx.Data.Factory(a.FactoryID)
	if f == nil {
		return false
	}
	p := f.PeriodByStart(a.PeriodStart)
	if p == nil {
		return false
	}
	return ctx.ProjectedLoad(a) <= p.Capacity
}
