// Package objective 实现排产目标函数
package objective

import (
	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
)

// TardinessObjective 延误目标。
// 对每个已分配订单计算完成日期超出交付日期的天数，
// 正式单与预测单使用不同权重，总和按订单总数归一化。
type TardinessObjective struct {
	cfg model.TardinessConfig
}

// NewTardinessObjective 创建延误目标
func NewTardinessObjective(cfg model.TardinessConfig) *TardinessObjective {
	return &TardinessObjective{cfg: cfg}
}

// Name 返回目标项名称
func (o *TardinessObjective) Name() string {
	return model.ObjectiveTardiness
}

// Evaluate 计算归一化的加权延误值
func (o *TardinessObjective) Evaluate(ctx *constraint.Context) float64 {
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

// OrderCost 计算单个订单的加权延误值（未归一化）
func (o *TardinessObjective) OrderCost(order *model.Order, completionDate string) float64 {
	tardy := model.DaysBetween(order.DueDate, completionDate)
	if tardy <= 0 {
		return 0
	}
	if order.IsFirm() {
		return o.cfg.FirmTardyWeight * float64(tardy)
	}
	return o.cfg.ForecastTardyWeight * float64(tardy)
}

// MaxOrderTardiness 返回方案中单个订单的最大延误天数（用于平票裁决）
func MaxOrderTardiness(ctx *constraint.Context) int {
	max := 0
	for _, a := range ctx.Schedule.Assignments() {
		order := ctx.Data.Order(a.OrderID)
		if order == nil {
			continue
		}
		tardy := model.DaysBetween(order.DueDate, a.CompletionDate)
		if tardy > max {
			max = tardy
		}
	}
	return max
}

// EarliestFirmCompletion 返回正式单中最早的完成日期（用于平票裁决），
// 无正式单分配时返回空串。
func EarliestFirmCompletion(ctx *constraint.Context) string {
	earliest := ""
	for _, a := range ctx.Schedule.Assignments() {
		order := ctx.Data.Order(a.OrderID)
		if order == nil || !order.IsFirm() {
			continue
		}
		if earliest == "" || a.CompletionDate < earliest {
			earliest = a.CompletionDate
		}
	}
	return earliest
}
