package builtin

import (
	"fmt"

	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
)

// MaterialLeadTimeConstraint 物料前置时间约束。
// 订单的开工周期不得早于其在该工厂的最早开工日期
// （物料采购、运输到厂并完成生产准备所需的时间）。
type MaterialLeadTimeConstraint struct {
	*BaseConstraint
}

// NewMaterialLeadTimeConstraint 创建物料前置时间约束
func NewMaterialLeadTimeConstraint() *MaterialLeadTimeConstraint {
	return &MaterialLeadTimeConstraint{
		BaseConstraint: NewBaseConstraint("物料前置时间", constraint.TypeMaterialLeadTime),
	}
}

// Evaluate 评估整个排产方案
func (c *MaterialLeadTimeConstraint) Evaluate(ctx *constraint.Context) (bool, []constraint.ViolationDetail) {
	var details []constraint.ViolationDetail

	for _, a := range ctx.Schedule.Assignments() {
		if !c.startAllowed(ctx, a) {
			earliest, _ := ctx.Data.EarliestStart(a.OrderID, a.FactoryID)
			details = append(details, c.CreateViolation(a.OrderID, a.FactoryID, a.PeriodStart,
				fmt.Sprintf("订单 %s 在工厂 %s 的开工日期 %s 早于物料允许的最早开工日期 %s",
					a.OrderID, a.FactoryID, a.PeriodStart, model.FormatDate(earliest))))
		}
	}

	return len(details) == 0, details
}

// EvaluateAssignment 评估单个分配
func (c *MaterialLeadTimeConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) bool {
	return c.startAllowed(ctx, a)
}

func (c *MaterialLeadTimeConstraint) startAllowed(ctx *constraint.Context, a *model.Assignment) bool {
	earliest, ok := ctx.Data.EarliestStart(a.OrderID, a.FactoryID)
	if !ok {
		return false
	}
	start, err := model.ParseDate(a.PeriodStart)
	if err != nil {
		return false
	}
	return !start.Before(earliest)
}
