package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zhangyoujia1995/NICE-APS/internal/config"
	"github.com/zhangyoujia1995/NICE-APS/internal/constraints"
	"github.com/zhangyoujia1995/NICE-APS/internal/metrics"
	"github.com/zhangyoujia1995/NICE-APS/internal/repository"
	"github.com/zhangyoujia1995/NICE-APS/pkg/errors"
	"github.com/zhangyoujia1995/NICE-APS/pkg/kpi"
	"github.com/zhangyoujia1995/NICE-APS/pkg/logger"
	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/constraint/builtin"
	"github.com/zhangyoujia1995/NICE-APS/pkg/planner/solver"
)

// PlanHandler 排产处理器
type PlanHandler struct {
	repo     repository.PlanRepositoryInterface // 可为nil，此时不持久化
	defaults config.PlannerConfig
}

// NewPlanHandler 创建排产处理器。
// defaults 为请求未携带配置时的服务端默认求解参数。
func NewPlanHandler(repo repository.PlanRepositoryInterface, defaults config.PlannerConfig) *PlanHandler {
	return &PlanHandler{repo: repo, defaults: defaults}
}

// defaultPlanConfig 以服务端默认参数构造求解配置，
// 未配置的项沿用内置默认值。
func (h *PlanHandler) defaultPlanConfig(baseDate string) *model.PlanConfig {
	cfg := model.DefaultPlanConfig(baseDate)
	if h.defaults.DefaultTimeLimit > 0 {
		cfg.TimeLimitSeconds = h.defaults.DefaultTimeLimit.Seconds()
	}
	if h.defaults.DefaultGapLimit > 0 {
		cfg.RelativeGapLimit = h.defaults.DefaultGapLimit
	}
	if h.defaults.Parallelism > 0 {
		cfg.Parallelism = h.defaults.Parallelism
	}
	if h.defaults.RandomSeed != 0 {
		cfg.RandomSeed = h.defaults.RandomSeed
	}
	return cfg
}

// SolveRequest 排产求解请求
type SolveRequest struct {
	BaseDate  string            `json:"base_date,omitempty"` // Config为空时用于构造默认配置
	Orders    []*model.Order    `json:"orders"`
	Factories []*model.Factory  `json:"factories"`
	Config    *model.PlanConfig `json:"config,omitempty"`
}

// SolveResponse 排产求解响应
type SolveResponse struct {
	*planner.PlanResult
	KPI        *kpi.Report `json:"kpi,omitempty"`
	DurationMs int64       `json:"duration_ms"`
}

// Solve 执行排产求解
func (h *PlanHandler) Solve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if err := validateSolveRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	cfg := req.Config
	if cfg == nil {
		cfg = h.defaultPlanConfig(req.BaseDate)
	}
	if cfg.TimeLimitSeconds == 0 {
		if h.defaults.DefaultTimeLimit > 0 {
			cfg.TimeLimitSeconds = h.defaults.DefaultTimeLimit.Seconds()
		} else {
			cfg.TimeLimitSeconds = 60
		}
	}

	metrics.TrackActiveSolve(1)
	defer metrics.TrackActiveSolve(-1)

	engine := planner.NewEngine()
	result, err := engine.Solve(r.Context(), req.Orders, req.Factories, cfg)
	if result != nil {
		metrics.RecordSolve(string(result.Status), result.Duration)
	}
	// 不可行也是有效的求解结论，连同违反明细一并返回
	if err != nil && !errors.Is(err, errors.CodeInfeasibleProblem) {
		respondAnyError(w, err)
		return
	}

	resp := &SolveResponse{PlanResult: result, DurationMs: result.Duration.Milliseconds()}

	if result.Schedule != nil && result.Objective != nil && len(result.Assignments) > 0 {
		if ds, dsErr := model.BuildDataset(req.Orders, req.Factories, cfg.BaseDate); dsErr == nil {
			resp.KPI = kpi.NewReporter().Analyze(ds, result.Schedule)
			metrics.SetSolutionQuality(result.RunID, result.Objective.Total, result.Gap, resp.KPI.OnTimeRate)
		}
	}

	h.persist(r, req, cfg, resp)

	respondJSON(w, http.StatusOK, resp)
}

// persist 尽力保存求解记录，失败只记日志不影响响应
func (h *PlanHandler) persist(r *http.Request, req SolveRequest, cfg *model.PlanConfig, resp *SolveResponse) {
	if h.repo == nil || resp.PlanResult == nil {
		return
	}

	planID, err := uuid.Parse(resp.RunID)
	if err != nil {
		planID = uuid.New()
	}

	var objective float64
	if resp.Objective != nil {
		objective = resp.Objective.Total
	}

	var cfgMap map[string]any
	if data, err := json.Marshal(cfg); err == nil {
		json.Unmarshal(data, &cfgMap)
	}

	run := &repository.PlanRun{
		ID:             planID,
		BaseDate:       cfg.BaseDate,
		Status:         string(resp.Status),
		TotalOrders:    len(req.Orders),
		AssignedOrders: len(resp.Assignments),
		Objective:      objective,
		LowerBound:     resp.LowerBound,
		Gap:            resp.Gap,
		DurationMs:     resp.DurationMs,
		Message:        resp.Message,
		Config:         cfgMap,
	}

	ctx := r.Context()
	if err := h.repo.Create(ctx, run); err != nil {
		logger.Warn().Err(err).Str("run_id", resp.RunID).Msg("保存求解记录失败")
		return
	}
	if len(resp.Assignments) > 0 {
		if err := h.repo.CreateAssignments(ctx, planID, resp.Assignments); err != nil {
			logger.Warn().Err(err).Str("run_id", resp.RunID).Msg("保存排产分配失败")
		}
	}
}

// validateSolveRequest 验证求解请求
func validateSolveRequest(req *SolveRequest) *errors.AppError {
	ve := errors.NewValidationErrors()

	if len(req.Orders) == 0 {
		ve.Add("", "orders", "订单列表不能为空")
	}
	if len(req.Factories) == 0 {
		ve.Add("", "factories", "工厂列表不能为空")
	}
	if req.Config == nil && req.BaseDate == "" {
		ve.Add("", "base_date", "未提供配置时计算基准日期不能为空")
	}
	if req.BaseDate != "" {
		if _, err := model.ParseDate(req.BaseDate); err != nil {
			ve.Add("", "base_date", "日期格式无效，应为YYYY-MM-DD")
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// AssignmentInput 待验证的分配输入
type AssignmentInput struct {
	OrderID     string `json:"order_id"`
	FactoryID   string `json:"factory_id"`
	PeriodStart string `json:"period_start"`
}

// ValidateRequest 排产验证请求
type ValidateRequest struct {
	BaseDate          string            `json:"base_date"`
	Orders            []*model.Order    `json:"orders"`
	Factories         []*model.Factory  `json:"factories"`
	Assignments       []AssignmentInput `json:"assignments"`
	ActiveConstraints []string          `json:"active_constraints,omitempty"`
}

// ValidateResponse 排产验证响应
type ValidateResponse struct {
	IsValid    bool                         `json:"is_valid"`
	Violations []constraint.ViolationDetail `json:"violations"`
}

// Validate 验证给定排产方案是否满足约束
func (h *PlanHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if req.BaseDate == "" {
		respondError(w, errors.InvalidInput("base_date", "计算基准日期不能为空"))
		return
	}

	ds, err := model.BuildDataset(req.Orders, req.Factories, req.BaseDate)
	if err != nil {
		respondAnyError(w, err)
		return
	}

	active := req.ActiveConstraints
	if active == nil {
		for _, t := range builtin.KnownTypes() {
			active = append(active, string(t))
		}
	}
	cs, err := builtin.ForNames(active)
	if err != nil {
		respondAnyError(w, err)
		return
	}
	cm := constraint.NewManager()
	for _, c := range cs {
		cm.Register(c)
	}

	schedule := model.NewSchedule(req.BaseDate)
	for _, in := range req.Assignments {
		o := ds.Order(in.OrderID)
		if o == nil {
			respondError(w, errors.NotFoundf("订单", in.OrderID))
			return
		}
		if ds.Factory(in.FactoryID) == nil {
			respondError(w, errors.NotFoundf("工厂", in.FactoryID))
			return
		}
		a := solver.MakeAssignment(ds, o, in.FactoryID, in.PeriodStart)
		if err := schedule.Add(a); err != nil {
			respondAnyError(w, err)
			return
		}
	}

	solveCtx := constraint.NewContext(ds, req.BaseDate)
	solveCtx.SetSchedule(schedule)
	result := cm.Evaluate(solveCtx)

	for _, c := range cs {
		metrics.RecordConstraintEvaluation(string(c.Type()), len(result.Violations) == 0)
	}

	respondJSON(w, http.StatusOK, ValidateResponse{
		IsValid:    result.IsValid,
		Violations: result.Violations,
	})
}

// KPIRequest 指标分析请求
type KPIRequest struct {
	BaseDate    string            `json:"base_date"`
	Orders      []*model.Order    `json:"orders"`
	Factories   []*model.Factory  `json:"factories"`
	Assignments []AssignmentInput `json:"assignments"`
}

// KPI 计算给定排产方案的交付与负载指标
func (h *PlanHandler) KPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req KPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if req.BaseDate == "" {
		respondError(w, errors.InvalidInput("base_date", "计算基准日期不能为空"))
		return
	}

	ds, err := model.BuildDataset(req.Orders, req.Factories, req.BaseDate)
	if err != nil {
		respondAnyError(w, err)
		return
	}

	schedule := model.NewSchedule(req.BaseDate)
	for _, in := range req.Assignments {
		o := ds.Order(in.OrderID)
		if o == nil {
			respondError(w, errors.NotFoundf("订单", in.OrderID))
			return
		}
		a := solver.MakeAssignment(ds, o, in.FactoryID, in.PeriodStart)
		if err := schedule.Add(a); err != nil {
			respondAnyError(w, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, kpi.NewReporter().Analyze(ds, schedule))
}

// ListRuns 列出历史求解记录
func (h *PlanHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	if h.repo == nil {
		respondError(w, errors.New(errors.CodeInternal, "未配置持久化存储"))
		return
	}

	filter := repository.DefaultListFilter()
	if status := r.URL.Query().Get("status"); status != "" {
		filter = filter.WithStatus(status)
	}

	ctx, cancel := contextWithTimeout(r, 10*time.Second)
	defer cancel()

	runs, total, err := h.repo.List(ctx, filter)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询求解记录失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"runs":  runs,
	})
}

// GetRun 获取单次求解记录及其分配
func (h *PlanHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	if h.repo == nil {
		respondError(w, errors.New(errors.CodeInternal, "未配置持久化存储"))
		return
	}

	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		respondError(w, errors.InvalidInput("id", "无效的求解ID格式"))
		return
	}

	ctx, cancel := contextWithTimeout(r, 10*time.Second)
	defer cancel()

	run, err := h.repo.GetByID(ctx, id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询求解记录失败"))
		return
	}
	if run == nil {
		respondError(w, errors.NotFoundf("求解记录", id.String()))
		return
	}

	assignments, err := h.repo.GetAssignments(ctx, id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询排产分配失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run":         run,
		"assignments": assignments,
	})
}

// Library 返回约束库与目标库
func Library(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, http.StatusOK, constraints.LibraryResponse{
		Constraints: constraints.GetLibrary(),
		Objectives:  constraints.GetObjectives(),
	})
}
