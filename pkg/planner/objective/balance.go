package objective

import (
	"math"

	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
)

// BalanceObjective 负载均衡目标。
// 以各工厂总负载的总体标准差衡量不均衡度，
// 叠加最大单厂负载项抑制热点，整体乘以缩放因子。
type BalanceObjective struct {
	cfg model.BalanceConfig
}

// NewBalanceObjective 创建负载均衡目标
func NewBalanceObjective(cfg model.BalanceConfig) *BalanceObjective {
	return &BalanceObjective{cfg: cfg}
}

// Name 返回目标项名称
func (o *BalanceObjective) Name() string {
	return model.ObjectiveBalance
}

// Evaluate 计算负载均衡值
func (o *BalanceObjective) Evaluate(ctx *constraint.Context) float64 {
	loads := ctx.FactoryLoads()
	if len(loads) == 0 {
		return 0
	}

	var sum, maxLoad float64
	for _, load := range loads {
		sum += load
		if load > maxLoad {
			maxLoad = load
		}
	}
	mean := sum / float64(len(loads))

	var variance float64
	for _, load := range loads {
		d := load - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(loads)))

	return o.cfg.ScalingFactor * (o.cfg.ImbalanceWeight*stddev + o.cfg.MaxLoadWeight*maxLoad)
}
