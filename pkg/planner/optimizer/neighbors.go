// Package optimizer 提供排产优化算法
package optimizer

import (
	"math/rand"

	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/solver"
)

// MoveType 邻域移动类型
type MoveType int

const (
	MoveRelocate MoveType = iota // 将订单移到另一个（工厂，周期）
	MoveSwap                     // 交换两个订单的（工厂，周期）
	MoveInsert                   // 为未分配订单寻找落位
)

// NeighborhoodGenerator 邻域生成器。
// 随机数源由调用方注入种子，同种子下生成序列完全可复现。
// 固定分配的订单不参与任何移动。
type NeighborhoodGenerator struct {
	rng         *rand.Rand
	cm          *constraint.Manager
	moveWeights map[MoveType]float64
}

// NewNeighborhoodGenerator 创建邻域生成器
func NewNeighborhoodGenerator(seed int64, cm *constraint.Manager) *NeighborhoodGenerator {
	return &NeighborhoodGenerator{
		rng: rand.New(rand.NewSource(seed)),
		cm:  cm,
		moveWeights: map[MoveType]float64{
			MoveRelocate: 0.45, // 45% 重新落位
			MoveSwap:     0.35, // 35% 交换
			MoveInsert:   0.20, // 20% 补位
		},
	}
}

// GenerateNeighbor 生成一个邻域解。
// 移动若违反激活的约束则放弃，返回nil。
func (n *NeighborhoodGenerator) GenerateNeighbor(current *constraint.Context) *constraint.Context {
	switch n.selectMoveType() {
	case MoveSwap:
		return n.generateSwapMove(current)
	case MoveInsert:
		return n.generateInsertMove(current)
	default:
		return n.generateRelocateMove(current)
	}
}

// selectMoveType 按权重选择移动类型（固定遍历顺序保证可复现）
func (n *NeighborhoodGenerator) selectMoveType() MoveType {
	r := n.rng.Float64()
	cumulative := 0.0
	for _, t := range []MoveType{MoveRelocate, MoveSwap, MoveInsert} {
		cumulative += n.moveWeights[t]
		if r < cumulative {
			return t
		}
	}
	return MoveRelocate
}

// generateRelocateMove 将一个订单移到另一个可行的（工厂，周期）
func (n *NeighborhoodGenerator) generateRelocateMove(current *constraint.Context) *constraint.Context {
	candidates := n.movableOrders(current)
	if len(candidates) == 0 {
		return nil
	}

	o := candidates[n.rng.Intn(len(candidates))]
	old := current.Schedule.Get(o.ID)

	slots := n.slotsFor(current, o)
	if len(slots) == 0 {
		return nil
	}
	slot := slots[n.rng.Intn(len(slots))]
	if slot.FactoryID == old.FactoryID && slot.PeriodStart == old.PeriodStart {
		return nil
	}

	neighbor := current.Clone()
	a := solver.MakeAssignment(neighbor.Data, o, slot.FactoryID, slot.PeriodStart)
	if ok, _ := n.cm.CanAssign(neighbor, a); !ok {
		return nil
	}
	if err := neighbor.Apply(a); err != nil {
		return nil
	}
	return neighbor
}

// generateSwapMove 交换两个订单的落位
func (n *NeighborhoodGenerator) generateSwapMove(current *constraint.Context) *constraint.Context {
	candidates := n.movableOrders(current)
	if len(candidates) < 2 {
		return nil
	}

	i := n.rng.Intn(len(candidates))
	j := n.rng.Intn(len(candidates))
	for j == i {
		j = n.rng.Intn(len(candidates))
	}
	oi, oj := candidates[i], candidates[j]
	ai := current.Schedule.Get(oi.ID)
	aj := current.Schedule.Get(oj.ID)

	neighbor := current.Clone()
	// 先腾出两个位置再依次检查落位可行性
	neighbor.Unapply(oi.ID)
	neighbor.Unapply(oj.ID)

	na := solver.MakeAssignment(neighbor.Data, oi, aj.FactoryID, aj.PeriodStart)
	if ok, _ := n.cm.CanAssign(neighbor, na); !ok {
		return nil
	}
	if err := neighbor.Apply(na); err != nil {
		return nil
	}

	nb := solver.MakeAssignment(neighbor.Data, oj, ai.FactoryID, ai.PeriodStart)
	if ok, _ := n.cm.CanAssign(neighbor, nb); !ok {
		return nil
	}
	if err := neighbor.Apply(nb); err != nil {
		return nil
	}
	return neighbor
}

// generateInsertMove 为一个未分配订单寻找可行落位
func (n *NeighborhoodGenerator) generateInsertMove(current *constraint.Context) *constraint.Context {
	var unassigned []*model.Order
	for _, o := range current.Data.Orders {
		if current.Schedule.Get(o.ID) == nil && o.Fixed == nil {
			unassigned = append(unassigned, o)
		}
	}
	if len(unassigned) == 0 {
		return nil
	}

	o := unassigned[n.rng.Intn(len(unassigned))]
	slots := n.slotsFor(current, o)
	if len(slots) == 0 {
		return nil
	}
	slot := slots[n.rng.Intn(len(slots))]

	neighbor := current.Clone()
	a := solver.MakeAssignment(neighbor.Data, o, slot.FactoryID, slot.PeriodStart)
	if ok, _ := n.cm.CanAssign(neighbor, a); !ok {
		return nil
	}
	if err := neighbor.Apply(a); err != nil {
		return nil
	}
	return neighbor
}

// movableOrders 返回已分配且未锁定的订单
func (n *NeighborhoodGenerator) movableOrders(current *constraint.Context) []*model.Order {
	var result []*model.Order
	for _, o := range current.Data.Orders {
		if o.Fixed != nil {
			continue
		}
		if current.Schedule.Get(o.ID) != nil {
			result = append(result, o)
		}
	}
	return result
}

// slotsFor 枚举订单的全部（工厂，周期）组合
func (n *NeighborhoodGenerator) slotsFor(current *constraint.Context, o *model.Order) []model.FixedAssignment {
	var slots []model.FixedAssignment
	for _, fid := range current.Data.EligibleFactories(o.ID) {
		f := current.Data.Factory(fid)
		for _, p := range f.CapacityPeriods {
			slots = append(slots, model.FixedAssignment{FactoryID: fid, PeriodStart: p.StartDate})
		}
	}
	return slots
}
