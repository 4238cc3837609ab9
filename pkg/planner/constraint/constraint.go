// Package constraint 定义排产约束接口和管理器
package constraint

import (
	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
)

// Type 约束类型标识
type Type string

const (
	// TypeOrderUniqueAssign 每个订单必须且只能分配到一个（工厂，周期）
	TypeOrderUniqueAssign Type = "order_unique_assign"
	// TypeCapacity 每个工厂每个周期的负载不得超过产能
	TypeCapacity Type = "capacity"
	// TypeMaterialLeadTime 开工日期不得早于物料到齐后的最早开工日期
	TypeMaterialLeadTime Type = "material_lead_time"
)

// Constraint 约束接口。
// 全部为硬约束：激活的约束必须被最终方案完全满足。
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Evaluate 评估整个排产方案
	// 返回：是否满足、违反详情
	Evaluate(ctx *Context) (valid bool, details []ViolationDetail)

	// EvaluateAssignment 评估将某个分配加入当前方案是否可行。
	// 若该订单已有分配，按替换后的状态评估。
	EvaluateAssignment(ctx *Context, a *model.Assignment) bool
}

// ViolationDetail 约束违反详情
type ViolationDetail struct {
	ConstraintType Type   `json:"constraint_type"`
	ConstraintName string `json:"constraint_name"`
	OrderID        string `json:"order_id,omitempty"`
	FactoryID      string `json:"factory_id,omitempty"`
	PeriodStart    string `json:"period_start,omitempty"`
	Message        string `json:"message"`
}

// Result 约束评估结果
type Result struct {
	IsValid    bool              `json:"is_valid"`
	Violations []ViolationDetail `json:"violations"`
}
