package builtin

import (
	"fmt"

	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
)

// OrderUniqueAssignConstraint 订单唯一分配约束。
// 每个订单必须且只能分配到一个（工厂，周期），且工厂必须在可选范围内。
type OrderUniqueAssignConstraint struct {
	*BaseConstraint
}

// NewOrderUniqueAssignConstraint 创建订单唯一分配约束
func NewOrderUniqueAssignConstraint() *OrderUniqueAssignConstraint {
	return &OrderUniqueAssignConstraint{
		BaseConstraint: NewBaseConstraint("订单唯一分配", constraint.TypeOrderUniqueAssign),
	}
}

// Evaluate 评估整个排产方案
func (c *OrderUniqueAssignConstraint) Evaluate(ctx *constraint.Context) (bool, []constraint.ViolationDetail) {
	var details []constraint.ViolationDetail

	for _, o := range ctx.Data.Orders {
		a := ctx.Schedule.Get(o.ID)
		if a == nil {
			details = append(details, c.CreateViolation(o.ID, "", "",
				fmt.Sprintf("订单 %s 未分配", o.ID)))
			continue
		}
		if !c.isEligible(ctx, o.ID, a.FactoryID) {
			details = append(details, c.CreateViolation(o.ID, a.FactoryID, a.PeriodStart,
				fmt.Sprintf("订单 %s 分配到了不可选的工厂 %s", o.ID, a.FactoryID)))
		}
	}

	return len(details) == 0, details
}

// EvaluateAssignment 评估单个分配
func (c *OrderUniqueAssignConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) bool {
	if ctx.Data.Order(a.OrderID) == nil {
		return false
	}
	return c.isEligible(ctx, a.OrderID, a.FactoryID)
}

func (c *OrderUniqueAssignConstraint) isEligible(ctx *constraint.Context, orderID, factoryID string) bool {
	for _, fid := range ctx.Data.EligibleFactories(orderID) {
		if fid == factoryID {
			return true
		}
	}
	return false
}
