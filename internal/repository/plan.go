package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
)

// PlanRun 排产求解记录
type PlanRun struct {
	ID             uuid.UUID      `json:"id"`
	BaseDate       string         `json:"base_date"`
	Status         string         `json:"status"` // NOT_STARTED/SEARCHING/OPTIMAL_FOUND/...
	TotalOrders    int            `json:"total_orders"`
	AssignedOrders int            `json:"assigned_orders"`
	Objective      float64        `json:"objective"`
	LowerBound     float64        `json:"lower_bound"`
	Gap            float64        `json:"gap"`
	DurationMs     int64          `json:"duration_ms"`
	Message        string         `json:"message,omitempty"`
	Config         map[string]any `json:"config,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// PlanAssignment 排产分配记录
type PlanAssignment struct {
	ID                uuid.UUID `json:"id"`
	PlanID            uuid.UUID `json:"plan_id"`
	OrderID           string    `json:"order_id"`
	FactoryID         string    `json:"factory_id"`
	PeriodStart       string    `json:"period_start"`
	StartDate         string    `json:"start_date"`
	CompletionDate    string    `json:"completion_date"`
	MaterialReadyDate string    `json:"material_ready_date,omitempty"`
	LatestConfirmDate string    `json:"latest_confirm_date,omitempty"`
	Load              float64   `json:"load"`
	CreatedAt         time.Time `json:"created_at"`
}

// PlanRepositoryInterface 排产仓储接口
type PlanRepositoryInterface interface {
	Create(ctx context.Context, run *PlanRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*PlanRun, error)
	Update(ctx context.Context, run *PlanRun) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]*PlanRun, int, error)

	CreateAssignments(ctx context.Context, planID uuid.UUID, assignments []*model.Assignment) error
	GetAssignments(ctx context.Context, planID uuid.UUID) ([]*PlanAssignment, error)
	GetAssignmentsByFactory(ctx context.Context, planID uuid.UUID, factoryID string) ([]*PlanAssignment, error)
	DeleteAssignments(ctx context.Context, planID uuid.UUID) error

	GetLatestRun(ctx context.Context) (*PlanRun, error)
}

// PlanRepository 排产仓储实现
type PlanRepository struct {
	db DB
}

// NewPlanRepository 创建排产仓储
func NewPlanRepository(db DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create 创建求解记录
func (r *PlanRepository) Create(ctx context.Context, run *PlanRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	now := time.Now()
	run.CreatedAt = now
	run.UpdatedAt = now

	configJSON, _ := json.Marshal(run.Config)

	query := `
		INSERT INTO plan_runs (
			id, base_date, status, total_orders, assigned_orders,
			objective, lower_bound, gap, duration_ms, message, config,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.BaseDate, run.Status, run.TotalOrders, run.AssignedOrders,
		run.Objective, run.LowerBound, run.Gap, run.DurationMs, run.Message, configJSON,
		run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建求解记录失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取求解记录
func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*PlanRun, error) {
	query := `
		SELECT id, base_date, status, total_orders, assigned_orders,
			objective, lower_bound, gap, duration_ms, message, config,
			created_at, updated_at
		FROM plan_runs
		WHERE id = $1
	`

	return r.scanRun(r.db.QueryRowContext(ctx, query, id))
}

// Update 更新求解记录
func (r *PlanRepository) Update(ctx context.Context, run *PlanRun) error {
	run.UpdatedAt = time.Now()
	configJSON, _ := json.Marshal(run.Config)

	query := `
		UPDATE plan_runs SET
			status = $2, total_orders = $3, assigned_orders = $4,
			objective = $5, lower_bound = $6, gap = $7, duration_ms = $8,
			message = $9, config = $10, updated_at = $11
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Status, run.TotalOrders, run.AssignedOrders,
		run.Objective, run.LowerBound, run.Gap, run.DurationMs,
		run.Message, configJSON, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新求解记录失败: %w", err)
	}

	return nil
}

// Delete 删除求解记录及其分配
func (r *PlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// 先删除分配
	_, err := r.db.ExecContext(ctx, "DELETE FROM plan_assignments WHERE plan_id = $1", id)
	if err != nil {
		return fmt.Errorf("删除排产分配失败: %w", err)
	}

	_, err = r.db.ExecContext(ctx, "DELETE FROM plan_runs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("删除求解记录失败: %w", err)
	}

	return nil
}

// List 列出求解记录
func (r *PlanRepository) List(ctx context.Context, filter ListFilter) ([]*PlanRun, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}

	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("base_date >= $%d", argNum))
		args = append(args, filter.StartDate)
		argNum++
	}

	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("base_date <= $%d", argNum))
		args = append(args, filter.EndDate)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// 计数
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM plan_runs %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计求解记录失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, base_date, status, total_orders, assigned_orders,
			objective, lower_bound, gap, duration_ms, message, config,
			created_at, updated_at
		FROM plan_runs %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, filter.OrderBy, filter.OrderDir, argNum, argNum+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询求解记录失败: %w", err)
	}
	defer rows.Close()

	var runs []*PlanRun
	for rows.Next() {
		run, err := r.scanRunFrom(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, run)
	}

	return runs, total, nil
}

// CreateAssignments 批量创建排产分配
func (r *PlanRepository) CreateAssignments(ctx context.Context, planID uuid.UUID, assignments []*model.Assignment) error {
	query := `
		INSERT INTO plan_assignments (
			id, plan_id, order_id, factory_id, period_start,
			start_date, completion_date, material_ready_date, latest_confirm_date,
			load, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	now := time.Now()
	for _, a := range assignments {
		_, err := r.db.ExecContext(ctx, query,
			uuid.New(), planID, a.OrderID, a.FactoryID, a.PeriodStart,
			a.StartDate, a.CompletionDate, a.MaterialReadyDate, a.LatestConfirmDate,
			a.Load, now,
		)
		if err != nil {
			return fmt.Errorf("创建排产分配失败: %w", err)
		}
	}
	return nil
}

// GetAssignments 获取求解的全部分配
func (r *PlanRepository) GetAssignments(ctx context.Context, planID uuid.UUID) ([]*PlanAssignment, error) {
	query := `
		SELECT id, plan_id, order_id, factory_id, period_start,
			start_date, completion_date, material_ready_date, latest_confirm_date,
			load, created_at
		FROM plan_assignments
		WHERE plan_id = $1
		ORDER BY order_id
	`

	return r.queryAssignments(ctx, query, planID)
}

// GetAssignmentsByFactory 获取某工厂承接的分配
func (r *PlanRepository) GetAssignmentsByFactory(ctx context.Context, planID uuid.UUID, factoryID string) ([]*PlanAssignment, error) {
	query := `
		SELECT id, plan_id, order_id, factory_id, period_start,
			start_date, completion_date, material_ready_date, latest_confirm_date,
			load, created_at
		FROM plan_assignments
		WHERE plan_id = $1 AND factory_id = $2
		ORDER BY period_start, order_id
	`

	return r.queryAssignments(ctx, query, planID, factoryID)
}

// DeleteAssignments 删除求解的分配
func (r *PlanRepository) DeleteAssignments(ctx context.Context, planID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM plan_assignments WHERE plan_id = $1", planID)
	if err != nil {
		return fmt.Errorf("删除排产分配失败: %w", err)
	}
	return nil
}

// GetLatestRun 获取最近一次求解
func (r *PlanRepository) GetLatestRun(ctx context.Context) (*PlanRun, error) {
	query := `
		SELECT id, base_date, status, total_orders, assigned_orders,
			objective, lower_bound, gap, duration_ms, message, config,
			created_at, updated_at
		FROM plan_runs
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.scanRun(r.db.QueryRowContext(ctx, query))
}

// queryAssignments 查询分配列表
func (r *PlanRepository) queryAssignments(ctx context.Context, query string, args ...interface{}) ([]*PlanAssignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询排产分配失败: %w", err)
	}
	defer rows.Close()

	var assignments []*PlanAssignment
	for rows.Next() {
		a := &PlanAssignment{}
		if err := rows.Scan(
			&a.ID, &a.PlanID, &a.OrderID, &a.FactoryID, &a.PeriodStart,
			&a.StartDate, &a.CompletionDate, &a.MaterialReadyDate, &a.LatestConfirmDate,
			&a.Load, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描排产分配失败: %w", err)
		}
		assignments = append(assignments, a)
	}

	return assignments, nil
}

// scanRun 扫描单行求解记录
func (r *PlanRepository) scanRun(row *sql.Row) (*PlanRun, error) {
	run := &PlanRun{}
	var configJSON []byte

	err := row.Scan(
		&run.ID, &run.BaseDate, &run.Status, &run.TotalOrders, &run.AssignedOrders,
		&run.Objective, &run.LowerBound, &run.Gap, &run.DurationMs, &run.Message, &configJSON,
		&run.CreatedAt, &run.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描求解记录失败: %w", err)
	}

	if len(configJSON) > 0 {
		json.Unmarshal(configJSON, &run.Config)
	}

	return run, nil
}

// scanRunFrom 从多行结果扫描
func (r *PlanRepository) scanRunFrom(rows *sql.Rows) (*PlanRun, error) {
	run := &PlanRun{}
	var configJSON []byte

	err := rows.Scan(
		&run.ID, &run.BaseDate, &run.Status, &run.TotalOrders, &run.AssignedOrders,
		&run.Objective, &run.LowerBound, &run.Gap, &run.DurationMs, &run.Message, &configJSON,
		&run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描求解记录失败: %w", err)
	}

	if len(configJSON) > 0 {
		json.Unmarshal(configJSON, &run.Config)
	}

	return run, nil
}
