package model

import (
	"fmt"
	"time"

	"github.com/zhangyoujia1995/NICE-APS/pkg/errors"
)

// 目标项名称
const (
	ObjectiveTardiness = "tardiness"
	ObjectiveJIT       = "jit"
	ObjectiveBalance   = "workload_balance"
)

// TardinessConfig 延误目标子配置
type TardinessConfig struct {
	FirmTardyWeight     float64 `json:"firm_tardy_weight" yaml:"firm_tardy_weight"`
	ForecastTardyWeight float64 `json:"forecast_tardy_weight" yaml:"forecast_tardy_weight"`
}

// JITConfig JIT偏差目标子配置
type JITConfig struct {
	AllowedEarlinessDeviationDays int     `json:"allowed_earliness_deviation_days" yaml:"allowed_earliness_deviation_days"`
	AllowedTardinessDeviationDays int     `json:"allowed_tardiness_deviation_days" yaml:"allowed_tardiness_deviation_days"`
	EarlinessWeight               float64 `json:"earliness_weight" yaml:"earliness_weight"`
	LatenessWeight                float64 `json:"lateness_weight" yaml:"lateness_weight"`
}

// BalanceConfig 负载均衡目标子配置
type BalanceConfig struct {
	ImbalanceWeight float64 `json:"imbalance_weight" yaml:"imbalance_weight"`
	MaxLoadWeight   float64 `json:"max_load_weight" yaml:"max_load_weight"`
	ScalingFactor   float64 `json:"scaling_factor" yaml:"scaling_factor"`
}

// PlanConfig 一次排产求解的完整配置。
// 作为不可变值传入 Solve，引擎不持有任何进程级配置状态。
type PlanConfig struct {
	BaseDate         string  `json:"base_date" yaml:"base_date"`
	TimeLimitSeconds float64 `json:"solver_time_limit_seconds" yaml:"solver_time_limit_seconds"`
	RelativeGapLimit float64 `json:"relative_gap_limit" yaml:"relative_gap_limit"`
	RandomSeed       int64   `json:"random_seed" yaml:"random_seed"`
	Parallelism      int     `json:"parallelism" yaml:"parallelism"`

	ActiveConstraints []string           `json:"active_constraints" yaml:"active_constraints"`
	ObjectiveWeights  map[string]float64 `json:"objective_weights" yaml:"objective_weights"`

	Tardiness TardinessConfig `json:"tardiness_objective_config" yaml:"tardiness_objective_config"`
	JIT       JITConfig       `json:"jit_objective_config" yaml:"jit_objective_config"`
	Balance   BalanceConfig   `json:"workload_balance_config" yaml:"workload_balance_config"`
}

// DefaultPlanConfig 返回默认配置
func DefaultPlanConfig(baseDate string) *PlanConfig {
	return &PlanConfig{
		BaseDate:         baseDate,
		TimeLimitSeconds: 60,
		RelativeGapLimit: 0.01,
		RandomSeed:       1,
		Parallelism:      4,
		ActiveConstraints: []string{
			"order_unique_assign",
			"capacity",
			"material_lead_time",
		},
		ObjectiveWeights: map[string]float64{
			ObjectiveTardiness: 0.5,
			ObjectiveJIT:       0.2,
			ObjectiveBalance:   0.3,
		},
		Tardiness: TardinessConfig{
			FirmTardyWeight:     0.7,
			ForecastTardyWeight: 0.3,
		},
		JIT: JITConfig{
			AllowedEarlinessDeviationDays: 7,
			AllowedTardinessDeviationDays: 3,
			EarlinessWeight:               0.3,
			LatenessWeight:                0.7,
		},
		Balance: BalanceConfig{
			ImbalanceWeight: 0.5,
			MaxLoadWeight:   0.5,
			ScalingFactor:   0.01,
		},
	}
}

// TimeLimit 返回求解时间上限
func (c *PlanConfig) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSeconds * float64(time.Second))
}

// Validate 校验配置。配置错误在求解开始前抛出，不降级为求解失败。
func (c *PlanConfig) Validate() error {
	if c.BaseDate == "" {
		return errors.Configuration("base_date", "计算基准日期不能为空")
	}
	if _, err := ParseDate(c.BaseDate); err != nil {
		return errors.Configuration("base_date", "日期格式无效，应为YYYY-MM-DD")
	}
	if c.TimeLimitSeconds <= 0 {
		return errors.Configuration("solver_time_limit_seconds", "求解时间上限必须为正数")
	}
	if c.RelativeGapLimit < 0 || c.RelativeGapLimit > 1 {
		return errors.Configuration("relative_gap_limit", "相对间隙必须在 [0,1] 范围内")
	}
	if c.Parallelism < 0 {
		return errors.Configuration("parallelism", "并行度不能为负数")
	}

	for name, weight := range c.ObjectiveWeights {
		switch name {
		case ObjectiveTardiness, ObjectiveJIT, ObjectiveBalance:
		default:
			return errors.Configuration("objective_weights", fmt.Sprintf("未知的目标项 '%s'", name))
		}
		if weight < 0 {
			return errors.Configuration("objective_weights."+name, "目标权重不能为负数")
		}
	}

	if c.JIT.AllowedEarlinessDeviationDays < 0 || c.JIT.AllowedTardinessDeviationDays < 0 {
		return errors.Configuration("jit_objective_config", "允许偏差天数不能为负数")
	}
	if c.Tardiness.FirmTardyWeight < 0 || c.Tardiness.ForecastTardyWeight < 0 {
		return errors.Configuration("tardiness_objective_config", "延误权重不能为负数")
	}
	if c.Balance.ImbalanceWeight < 0 || c.Balance.MaxLoadWeight < 0 || c.Balance.ScalingFactor < 0 {
		return errors.Configuration("workload_balance_config", "负载均衡权重不能为负数")
	}

	return nil
}
