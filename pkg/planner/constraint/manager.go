package constraint

import (
	"fmt"
	"sync"

	"github.com/zhangyoujia1995/NICE-APS/pkg/logger"
	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
)

// Manager 约束管理器。
// 只持有本次求解激活的约束，全部约束均为硬约束。
type Manager struct {
	constraints []Constraint
	mu          sync.RWMutex
	logger      *logger.PlannerLogger
}

// NewManager 创建约束管理器
func NewManager() *Manager {
	return &Manager{
		constraints: make([]Constraint, 0),
		logger:      logger.NewPlannerLogger(),
	}
}

// Register 注册约束，同类型约束被替换
func (m *Manager) Register(c Constraint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.constraints {
		if existing.Type() == c.Type() {
			m.constraints[i] = c
			return
		}
	}
	m.constraints = append(m.constraints, c)
}

// Unregister 注销约束
func (m *Manager) Unregister(t Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.constraints {
		if c.Type() == t {
			m.constraints = append(m.constraints[:i], m.constraints[i+1:]...)
			return
		}
	}
}

// GetConstraint 获取约束
func (m *Manager) GetConstraint(t Type) Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.constraints {
		if c.Type() == t {
			return c
		}
	}
	return nil
}

// GetAll 获取所有约束
func (m *Manager) GetAll() []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Constraint, len(m.constraints))
	copy(result, m.constraints)
	return result
}

// Evaluate 评估所有约束。
// 约束列表为空时方案视为满足。
func (m *Manager) Evaluate(ctx *Context) *Result {
	m.mu.RLock()
	constraints := make([]Constraint, len(m.constraints))
	copy(constraints, m.constraints)
	m.mu.RUnlock()

	result := &Result{
		IsValid:    true,
		Violations: make([]ViolationDetail, 0),
	}

	for _, c := range constraints {
		valid, details := c.Evaluate(ctx)
		if !valid {
			result.IsValid = false
			for _, d := range details {
				result.Violations = append(result.Violations, d)
				m.logger.ConstraintViolation(c.Name(), d.Message)
			}
		}
	}

	return result
}

// CanAssign 检查某个分配加入当前方案是否违反激活的约束
func (m *Manager) CanAssign(ctx *Context, a *model.Assignment) (bool, string) {
	m.mu.RLock()
	constraints := make([]Constraint, len(m.constraints))
	copy(constraints, m.constraints)
	m.mu.RUnlock()

	for _, c := range constraints {
		if !c.EvaluateAssignment(ctx, a) {
			return false, fmt.Sprintf("违反约束: %s", c.Name())
		}
	}
	return true, ""
}

// Count 返回约束数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.constraints)
}

// Clear 清除所有约束
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.constraints = make([]Constraint, 0)
}

// Summary 返回约束摘要
func (m *Manager) Summary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.constraints))
	for _, c := range m.constraints {
		names = append(names, string(c.Type()))
	}
	return map[string]interface{}{
		"total":  len(m.constraints),
		"active": names,
	}
}
