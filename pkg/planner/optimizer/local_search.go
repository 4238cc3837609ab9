package optimizer

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/zhangyoujia1995/NICE-APS/pkg/logger"
	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/objective"
)

// OptimizationConfig 优化配置
type OptimizationConfig struct {
	MaxIterations    int           `json:"max_iterations"`    // 最大迭代次数
	MaxTime          time.Duration `json:"max_time"`          // 最大运行时间
	InitialTemp      float64       `json:"initial_temp"`      // 模拟退火初始温度
	CoolingRate      float64       `json:"cooling_rate"`      // 冷却速率
	TabuSize         int           `json:"tabu_size"`         // 禁忌表大小
	NeighborhoodSize int           `json:"neighborhood_size"` // 邻域大小
	StopOnPlateau    bool          `json:"stop_on_plateau"`   // 平台期停止
	PlateauThreshold int           `json:"plateau_threshold"` // 平台期阈值（无改进迭代次数）
}

// DefaultOptConfig 默认优化配置
func DefaultOptConfig() *OptimizationConfig {
	return &OptimizationConfig{
		MaxIterations:    2000,
		MaxTime:          30 * time.Second,
		InitialTemp:      10.0,
		CoolingRate:      0.995,
		TabuSize:         100,
		NeighborhoodSize: 20,
		StopOnPlateau:    true,
		PlateauThreshold: 300,
	}
}

// Solution 一个排产解及其评估结果
type Solution struct {
	Context   *constraint.Context
	Breakdown *objective.Breakdown
	Feasible  bool
}

// Clone 深拷贝解
func (s *Solution) Clone() *Solution {
	clone := &Solution{
		Context:  s.Context.Clone(),
		Feasible: s.Feasible,
	}
	if s.Breakdown != nil {
		b := &objective.Breakdown{Total: s.Breakdown.Total, Terms: make(map[string]float64, len(s.Breakdown.Terms))}
		for k, v := range s.Breakdown.Terms {
			b.Terms[k] = v
		}
		clone.Breakdown = b
	}
	return clone
}

// Objective 返回解的组合目标值
func (s *Solution) Objective() float64 {
	if s.Breakdown == nil {
		return math.Inf(1)
	}
	return s.Breakdown.Total
}

// Better 判断 a 是否严格优于 b。
// 可行解优先；其后依次比较组合目标值、单订单最大延误天数、
// 最早正式单完成日期，全部相同视为不优。
func Better(a, b *Solution) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	if a.Feasible != b.Feasible {
		return a.Feasible
	}
	if a.Objective() != b.Objective() {
		return a.Objective() < b.Objective()
	}
	at, bt := objective.MaxOrderTardiness(a.Context), objective.MaxOrderTardiness(b.Context)
	if at != bt {
		return at < bt
	}
	ac, bc := objective.EarliestFirmCompletion(a.Context), objective.EarliestFirmCompletion(b.Context)
	if ac != bc {
		if ac == "" {
			return false
		}
		if bc == "" {
			return true
		}
		return ac < bc
	}
	return false
}

// LocalSearchOptimizer 局部搜索优化器。
// 模拟退火接受准则叠加禁忌表，单goroutine内使用。
type LocalSearchOptimizer struct {
	config    *OptimizationConfig
	evaluator *objective.Evaluator
	cm        *constraint.Manager
	neighbors *NeighborhoodGenerator
	tabuList  *TabuList
	rng       *rand.Rand
	logger    *logger.PlannerLogger

	// onImprove 每次发现更优解时回调（可选，用于全局最优登记）
	onImprove func(*Solution)
}

// NewLocalSearchOptimizer 创建局部搜索优化器
func NewLocalSearchOptimizer(config *OptimizationConfig, evaluator *objective.Evaluator, cm *constraint.Manager, seed int64) *LocalSearchOptimizer {
	if config == nil {
		config = DefaultOptConfig()
	}
	return &LocalSearchOptimizer{
		config:    config,
		evaluator: evaluator,
		cm:        cm,
		neighbors: NewNeighborhoodGenerator(seed, cm),
		tabuList:  NewTabuList(config.TabuSize),
		rng:       rand.New(rand.NewSource(seed)),
		logger:    logger.NewPlannerLogger(),
	}
}

// SetOnImprove 设置改进回调
func (o *LocalSearchOptimizer) SetOnImprove(fn func(*Solution)) {
	o.onImprove = fn
}

// Evaluate 评估上下文并构造解
func (o *LocalSearchOptimizer) Evaluate(solveCtx *constraint.Context) *Solution {
	return &Solution{
		Context:   solveCtx,
		Breakdown: o.evaluator.Evaluate(solveCtx),
		Feasible:  o.cm.Evaluate(solveCtx).IsValid,
	}
}

// Optimize 从初始解开始局部搜索。
// 取消与超时只在迭代边界检查，返回时带回当前最优解。
func (o *LocalSearchOptimizer) Optimize(ctx context.Context, initial *Solution) (*Solution, error) {
	start := time.Now()

	current := initial.Clone()
	best := current.Clone()

	temperature := o.config.InitialTemp
	noImprovementCount := 0

	for i := 0; i < o.config.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return best, ctx.Err()
		default:
		}

		if time.Since(start) > o.config.MaxTime {
			break
		}

		neighbor := o.bestNeighbor(current)
		if neighbor == nil {
			noImprovementCount++
			if o.config.StopOnPlateau && noImprovementCount >= o.config.PlateauThreshold {
				break
			}
			temperature *= o.config.CoolingRate
			continue
		}

		moveKey := hashSchedule(neighbor.Context.Schedule)
		inTabu := o.tabuList.Contains(moveKey)

		accept := false
		if Better(neighbor, current) {
			accept = true
		} else if !inTabu {
			delta := neighbor.Objective() - current.Objective()
			if o.rng.Float64() < boltzmannProbability(delta, temperature) {
				accept = true
			}
		}

		if accept {
			current = neighbor
			o.tabuList.Add(moveKey)

			if Better(current, best) {
				best = current.Clone()
				noImprovementCount = 0
				o.logger.ImprovedSolution(i, best.Objective(), 0)
				if o.onImprove != nil {
					o.onImprove(best)
				}
			} else {
				noImprovementCount++
			}
		} else {
			noImprovementCount++
		}

		if o.config.StopOnPlateau && noImprovementCount >= o.config.PlateauThreshold {
			break
		}

		temperature *= o.config.CoolingRate
	}

	return best, nil
}

// bestNeighbor 生成一批邻域解并返回其中最优者
func (o *LocalSearchOptimizer) bestNeighbor(current *Solution) *Solution {
	var best *Solution
	for i := 0; i < o.config.NeighborhoodSize; i++ {
		neighborCtx := o.neighbors.GenerateNeighbor(current.Context)
		if neighborCtx == nil {
			continue
		}
		candidate := o.Evaluate(neighborCtx)
		if best == nil || Better(candidate, best) {
			best = candidate
		}
	}
	return best
}

// hashSchedule 计算方案的FNV-1a哈希（遍历有序分配，结果稳定）
func hashSchedule(s *model.Schedule) uint64 {
	h := fnv.New64a()
	for _, a := range s.Assignments() {
		h.Write([]byte(a.OrderID))
		h.Write([]byte{0})
		h.Write([]byte(a.FactoryID))
		h.Write([]byte{0})
		h.Write([]byte(a.PeriodStart))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// boltzmannProbability 计算模拟退火的接受概率
// delta: 目标差 (new - old)
// temperature: 当前温度
func boltzmannProbability(delta, temperature float64) float64 {
	if delta <= 0 {
		return 1.0
	}
	if temperature <= 0 {
		return 0.0
	}
	return math.Exp(-delta / temperature)
}

// TabuList 禁忌表（使用uint64哈希作为键提高性能）
type TabuList struct {
	items   map[uint64]struct{}
	order   []uint64
	maxSize int
	mu      sync.RWMutex
}

// NewTabuList 创建禁忌表
func NewTabuList(size int) *TabuList {
	return &TabuList{
		items:   make(map[uint64]struct{}),
		order:   make([]uint64, 0, size),
		maxSize: size,
	}
}

// Add 添加到禁忌表
func (t *TabuList) Add(key uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.items[key]; exists {
		return
	}

	// 超出容量时移除最旧的
	if len(t.order) >= t.maxSize {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.items, oldest)
	}

	t.items[key] = struct{}{}
	t.order = append(t.order, key)
}

// Contains 检查是否在禁忌表中
func (t *TabuList) Contains(key uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, exists := t.items[key]
	return exists
}

// Clear 清空禁忌表
func (t *TabuList) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = make(map[uint64]struct{})
	t.order = t.order[:0]
}
