package builtin

import (
	"github.com/zhangyoujia1995/NICE-APS/pkg/errors"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
)

// factories 约束名称到构造函数的映射
var factories = map[constraint.Type]func() constraint.Constraint{
	constraint.TypeOrderUniqueAssign: func() constraint.Constraint { return NewOrderUniqueAssignConstraint() },
	constraint.TypeCapacity:          func() constraint.Constraint { return NewCapacityConstraint() },
	constraint.TypeMaterialLeadTime:  func() constraint.Constraint { return NewMaterialLeadTimeConstraint() },
}

// ForNames 按激活名称列表实例化约束。
// 未知名称返回配置错误，空列表返回空切片（允许无约束求解）。
func ForNames(active []string) ([]constraint.Constraint, error) {
	result := make([]constraint.Constraint, 0, len(active))
	for _, name := range active {
		factory, ok := factories[constraint.Type(name)]
		if !ok {
			return nil, errors.Configuration("active_constraints", "未知的约束名称 '"+name+"'")
		}
		result = append(result, factory())
	}
	return result, nil
}

// KnownTypes 返回全部内置约束类型
func KnownTypes() []constraint.Type {
	return []constraint.Type{
		constraint.TypeOrderUniqueAssign,
		constraint.TypeCapacity,
		constraint.TypeMaterialLeadTime,
	}
}
