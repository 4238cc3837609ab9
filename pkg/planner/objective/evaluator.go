package objective

import (
	"math"

	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
)

// Objective 单个目标项接口
type Objective interface {
	Name() string
	Evaluate(ctx *constraint.Context) float64
}

// Breakdown 目标值分解
type Breakdown struct {
	Total float64            `json:"total"`
	Terms map[string]float64 `json:"terms"`
}

// Evaluator 组合目标评估器。
// 各目标项按配置权重线性组合，权重为零的项不参与计算。
type Evaluator struct {
	cfg       *model.PlanConfig
	tardiness *TardinessObjective
	jit       *JITObjective
	balance   *BalanceObjective
}

// NewEvaluator 创建组合目标评估器
func NewEvaluator(cfg *model.PlanConfig) *Evaluator {
	return &Evaluator{
		cfg:       cfg,
		tardiness: NewTardinessObjective(cfg.Tardiness),
		jit:       NewJITObjective(cfg.JIT),
		balance:   NewBalanceObjective(cfg.Balance),
	}
}

// Evaluate 计算组合目标值及各项分解
func (e *Evaluator) Evaluate(ctx *constraint.Context) *Breakdown {
	b := &Breakdown{Terms: make(map[string]float64, 3)}

	for _, obj := range []Objective{e.tardiness, e.jit, e.balance} {
		weight := e.cfg.ObjectiveWeights[obj.Name()]
		if weight == 0 {
			continue
		}
		value := obj.Evaluate(ctx)
		b.Terms[obj.Name()] = value
		b.Total += weight * value
	}

	return b
}

// OrderCost 计算订单在指定完成日期下的延误与JIT加权成本（未归一化）
func (e *Evaluator) OrderCost(order *model.Order, completionDate string) float64 {
	var cost float64
	if w := e.cfg.ObjectiveWeights[model.ObjectiveTardiness]; w > 0 {
		cost += w * e.tardiness.OrderCost(order, completionDate)
	}
	if w := e.cfg.ObjectiveWeights[model.ObjectiveJIT]; w > 0 {
		cost += w * e.jit.OrderCost(order, completionDate)
	}
	return cost
}

// LowerBound 计算组合目标的下界。
// 对每个订单取其在所有可行（工厂，周期）组合下的最小单订单成本，
// 忽略产能耦合与负载均衡项，因此结果不高于任何可行解的目标值。
func (e *Evaluator) LowerBound(ds *model.Dataset) float64 {
	n := len(ds.Orders)
	if n == 0 {
		return 0
	}

	var total float64
	for _, order := range ds.Orders {
		best := math.Inf(1)
		for _, fid := range ds.EligibleFactories(order.ID) {
			f := ds.Factory(fid)
			earliest, ok := ds.EarliestStart(order.ID, fid)
			if !ok {
				continue
			}
			for _, p := range f.CapacityPeriods {
				start, err := model.ParseDate(p.StartDate)
				if err != nil || start.Before(earliest) {
					continue
				}
				completion := ds.CompletionDate(order, p.StartDate)
				if cost := e.OrderCost(order, completion); cost < best {
					best = cost
				}
			}
		}
		if math.IsInf(best, 1) {
			// 订单无任何可行组合，留给约束评估报告不可行
			continue
		}
		total += best
	}
	return total / float64(n)
}

// Gap 计算当前解相对下界的间隙。
// 当前值为零时认为已达最优。
func Gap(best, bound float64) float64 {
	if best <= 0 {
		return 0
	}
	gap := (best - bound) / best
	if gap < 0 {
		return 0
	}
	return gap
}
