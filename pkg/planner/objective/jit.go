package objective

import (
	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
)

// JITObjective JIT偏差目标。
// 完成日期落在目标日期前后的容差带内不产生成本，
// 超出容差带的天数按提前/延后分别加权，总和按订单总数归一化。
type JITObjective struct {
	cfg model.JITConfig
}

// NewJITObjective 创建JIT偏差目标
func NewJITObjective(cfg model.JITConfig) *JITObjective {
	return &JITObjective{cfg: cfg}
}

// Name 返回目标项名称
func (o *JITObjective) Name() string {
	return model.ObjectiveJIT
}

// Evaluate 计算归一化的加权JIT偏差值
func (o *JITObjective) Evaluate(ctx *constraint.Context) float64 {
	n := len(ctx.Data.Orders)
	if n == 0 {
		return 0
	}

	var total float64
	for _, order := range ctx.Data.Orders {
		a := ctx.Schedule.Get(order.ID)
		if a == nil {
			continue
		}
		total += o.OrderCost(order, a.CompletionDate)
	}
	return total / float64(n)
}

// OrderCost 计算单个订单的加权JIT偏差值（未归一化）。
// 目标日期缺省时以交付日期为目标。
func (o *JITObjective) OrderCost(order *model.Order, completionDate string) float64 {
	target := order.TargetDate
	if target == "" {
		target = order.DueDate
	}

	dev := model.DaysBetween(target, completionDate)
	switch {
	case dev < -o.cfg.AllowedEarlinessDeviationDays:
		early := float64(-dev - o.cfg.AllowedEarlinessDeviationDays)
		return o.cfg.EarlinessWeight * early
	case dev > o.cfg.AllowedTardinessDeviationDays:
		late := float64(dev - o.cfg.AllowedTardinessDeviationDays)
		return o.cfg.LatenessWeight * late
	default:
		return 0
	}
}
