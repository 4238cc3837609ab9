package optimizer

import (
	"context"
	"sync"

	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/objective"
)

// BestRegister 全局最优解登记处。
// 多个搜索goroutine并发更新，仅严格更优的解会被接受。
type BestRegister struct {
	mu   sync.Mutex
	best *Solution
}

// Update 尝试登记新解，严格更优时替换并返回true
func (r *BestRegister) Update(s *Solution) bool {
	if s == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.best == nil || Better(s, r.best) {
		r.best = s.Clone()
		return true
	}
	return false
}

// Best 返回当前最优解的拷贝
func (r *BestRegister) Best() *Solution {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.best == nil {
		return nil
	}
	return r.best.Clone()
}

// ParallelOptimizer 多起点并行优化器。
// 启动多个独立的局部搜索，种子依次递增，
// 各自的改进通过登记处汇聚为全局最优。
type ParallelOptimizer struct {
	config    *OptimizationConfig
	evaluator *objective.Evaluator
	cm        *constraint.Manager
	workers   int
	seed      int64
}

// NewParallelOptimizer 创建多起点并行优化器
func NewParallelOptimizer(config *OptimizationConfig, evaluator *objective.Evaluator, cm *constraint.Manager, workers int, seed int64) *ParallelOptimizer {
	if config == nil {
		config = DefaultOptConfig()
	}
	if workers <= 0 {
		workers = 1
	}
	return &ParallelOptimizer{
		config:    config,
		evaluator: evaluator,
		cm:        cm,
		workers:   workers,
		seed:      seed,
	}
}

// Optimize 并行优化。
// 全部搜索结束后返回全局最优解；上下文取消时
// 各搜索在迭代边界退出，已登记的最优解仍然返回。
func (p *ParallelOptimizer) Optimize(ctx context.Context, initial *Solution) (*Solution, error) {
	register := &BestRegister{}
	register.Update(initial)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			ls := NewLocalSearchOptimizer(p.config, p.evaluator, p.cm, p.seed+int64(workerID))
			ls.SetOnImprove(func(s *Solution) {
				register.Update(s)
			})

			// Optimize 返回的最优解也登记一次，防止回调遗漏最后状态
			if best, err := ls.Optimize(ctx, initial); err == nil || best != nil {
				register.Update(best)
			}
		}(i)
	}
	wg.Wait()

	best := register.Best()
	if err := ctx.Err(); err != nil {
		return best, err
	}
	return best, nil
}
