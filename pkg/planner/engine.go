// Package planner 实现排产求解引擎
package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhangyoujia1995/NICE-APS/pkg/errors"
	"github.com/zhangyoujia1995/NICE-APS/pkg/logger"
	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint/builtin"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/objective"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/optimizer"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/solver"
)

// Status 求解状态
type Status string

const (
	StatusNotStarted       Status = "NOT_STARTED"        // 未开始
	StatusSearching        Status = "SEARCHING"          // 搜索中
	StatusOptimalFound     Status = "OPTIMAL_FOUND"      // 已达最优（间隙收敛）
	StatusFeasibleFound    Status = "FEASIBLE_FOUND"     // 找到可行解但未证明最优
	StatusTimeLimitReached Status = "TIME_LIMIT_REACHED" // 时间上限内未收敛
	StatusInfeasible       Status = "INFEASIBLE"         // 无可行解
	StatusError            Status = "ERROR"              // 求解出错
)

// Terminal 是否为终止状态
func (s Status) Terminal() bool {
	switch s {
	case StatusNotStarted, StatusSearching:
		return false
	default:
		return true
	}
}

// PlanResult 排产求解结果
type PlanResult struct {
	RunID      string                       `json:"run_id"`
	Status     Status                       `json:"status"`
	Schedule   *model.Schedule              `json:"-"`
	Assignments []*model.Assignment         `json:"assignments"`
	Objective  *objective.Breakdown         `json:"objective,omitempty"`
	LowerBound float64                      `json:"lower_bound"`
	Gap        float64                      `json:"gap"`
	Violations []constraint.ViolationDetail `json:"violations,omitempty"`
	Duration   time.Duration                `json:"duration"`
	Message    string                       `json:"message,omitempty"`
}

// Engine 排产求解引擎。
// 单个实例可串行复用；Status 可被其他goroutine并发查询。
type Engine struct {
	mu     sync.RWMutex
	status Status
	logger *logger.PlannerLogger
}

// NewEngine 创建排产引擎
func NewEngine() *Engine {
	return &Engine{
		status: StatusNotStarted,
		logger: logger.NewPlannerLogger(),
	}
}

// Status 返回当前求解状态
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

func (e *Engine) setStatus(s Status) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

// Solve 执行一次完整的排产求解。
// 配置错误与输入校验失败在搜索开始前返回；
// 搜索阶段的取消与超时在迭代边界生效，已找到的最优解随结果带回。
func (e *Engine) Solve(ctx context.Context, orders []*model.Order, factories []*model.Factory, cfg *model.PlanConfig) (*PlanResult, error) {
	runID := uuid.New().String()
	start := time.Now()

	result := &PlanResult{RunID: runID, Status: StatusNotStarted}

	if cfg == nil {
		e.setStatus(StatusError)
		result.Status = StatusError
		return result, errors.Configuration("plan_config", "配置不能为空")
	}
	if err := cfg.Validate(); err != nil {
		e.setStatus(StatusError)
		result.Status = StatusError
		return result, err
	}

	ds, err := model.BuildDataset(orders, factories, cfg.BaseDate)
	if err != nil {
		e.setStatus(StatusError)
		result.Status = StatusError
		return result, err
	}

	cs, err := builtin.ForNames(cfg.ActiveConstraints)
	if err != nil {
		e.setStatus(StatusError)
		result.Status = StatusError
		return result, err
	}
	cm := constraint.NewManager()
	for _, c := range cs {
		cm.Register(c)
	}

	e.setStatus(StatusSearching)
	e.logger.StartSolve(runID, len(orders), len(factories), cfg.TimeLimitSeconds)

	eval := objective.NewEvaluator(cfg)
	solveCtx := constraint.NewContext(ds, cfg.BaseDate)

	// 唯一分配约束激活时先做快速不可行检查
	if cm.GetConstraint(constraint.TypeOrderUniqueAssign) != nil {
		if reason := e.quickInfeasibility(ds, cm, solveCtx); reason != "" {
			e.setStatus(StatusInfeasible)
			result.Status = StatusInfeasible
			result.Duration = time.Since(start)
			e.logger.SolveComplete(runID, string(StatusInfeasible), result.Duration, 0, 0)
			return result, errors.Infeasible(reason)
		}
	}

	deadline, cancel := context.WithTimeout(ctx, cfg.TimeLimit())
	defer cancel()

	greedy := solver.NewGreedySolver(cm, eval)
	if _, err := greedy.Solve(deadline, solveCtx); err != nil && ctx.Err() == nil && deadline.Err() == nil {
		e.setStatus(StatusError)
		result.Status = StatusError
		result.Duration = time.Since(start)
		return result, errors.Wrap(err, errors.CodeInternal, "初始解构造失败")
	}

	optCfg := optimizer.DefaultOptConfig()
	optCfg.MaxTime = cfg.TimeLimit()

	ls := optimizer.NewLocalSearchOptimizer(optCfg, eval, cm, cfg.RandomSeed)
	initial := ls.Evaluate(solveCtx)

	workers := cfg.Parallelism
	if workers == 0 {
		workers = 1
	}
	parallel := optimizer.NewParallelOptimizer(optCfg, eval, cm, workers, cfg.RandomSeed)

	best, optErr := parallel.Optimize(deadline, initial)
	if best == nil {
		best = initial
	}

	bound := eval.LowerBound(ds)
	gap := objective.Gap(best.Objective(), bound)

	result.Schedule = best.Context.Schedule
	result.Schedule.Freeze()
	result.Assignments = result.Schedule.Assignments()
	result.Objective = best.Breakdown
	result.LowerBound = bound
	result.Gap = gap
	result.Duration = time.Since(start)

	constraintResult := cm.Evaluate(best.Context)
	result.Violations = constraintResult.Violations

	switch {
	case !best.Feasible || !constraintResult.IsValid:
		if cm.Count() == 0 {
			// 无激活约束时任意方案都可行，不应走到这里
			result.Status = StatusFeasibleFound
		} else {
			result.Status = StatusInfeasible
			result.Message = fmt.Sprintf("搜索结束仍有 %d 条约束违反", len(result.Violations))
		}
	case gap <= cfg.RelativeGapLimit:
		result.Status = StatusOptimalFound
	case optErr != nil && deadline.Err() != nil:
		result.Status = StatusTimeLimitReached
	default:
		result.Status = StatusFeasibleFound
	}

	// 上游取消优先于时间上限语义
	if ctx.Err() != nil && result.Status != StatusInfeasible {
		result.Status = StatusFeasibleFound
		if !best.Feasible {
			result.Status = StatusError
		}
	}

	e.setStatus(result.Status)
	e.logger.SolveComplete(runID, string(result.Status), result.Duration, best.Objective(), gap)

	if result.Status == StatusInfeasible {
		return result, errors.Infeasible(result.Message)
	}
	return result, nil
}

// quickInfeasibility 搜索前的快速不可行检查。
// 返回非空字符串表示问题必然无可行解。
func (e *Engine) quickInfeasibility(ds *model.Dataset, cm *constraint.Manager, solveCtx *constraint.Context) string {
	// 存在订单没有任何满足约束的（工厂，周期）候选
	for _, o := range ds.Orders {
		if o.Fixed != nil {
			continue
		}
		found := false
		for _, fid := range ds.EligibleFactories(o.ID) {
			f := ds.Factory(fid)
			for _, p := range f.CapacityPeriods {
				a := solver.MakeAssignment(ds, o, fid, p.StartDate)
				if ok, _ := cm.CanAssign(solveCtx, a); ok {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return fmt.Sprintf("订单 %s 不存在满足约束的工厂周期组合", o.ID)
		}
	}

	// 产能约束激活时检查总量
	if cm.GetConstraint(constraint.TypeCapacity) != nil {
		var totalCapacity float64
		for _, f := range ds.Factories {
			totalCapacity += f.TotalCapacity()
		}
		var minLoad float64
		for _, o := range ds.Orders {
			best := -1.0
			for _, fid := range ds.EligibleFactories(o.ID) {
				load := ds.EffectiveLoad(o.ID, fid)
				if best < 0 || load < best {
					best = load
				}
			}
			if best > 0 {
				minLoad += best
			}
		}
		if minLoad > totalCapacity {
			return fmt.Sprintf("订单最小总负载 %.1f 超过全部工厂总产能 %.1f", minLoad, totalCapacity)
		}
	}

	return ""
}
