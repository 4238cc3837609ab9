package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
)

// OrderRepository 订单与工厂仓储。
// 结构化查询字段落列，嵌套明细（物料、效率、产能周期）存JSON payload。
type OrderRepository struct {
	db DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// UpsertOrder 插入或更新订单
func (r *OrderRepository) UpsertOrder(ctx context.Context, o *model.Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("序列化订单失败: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO orders (order_id, customer, due_date, order_type, quantity, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (order_id) DO UPDATE SET
			customer = $2, due_date = $3, order_type = $4, quantity = $5,
			payload = $6, updated_at = $7
	`

	_, err = r.db.ExecContext(ctx, query,
		o.ID, o.Customer, o.DueDate, int(o.Type), o.Quantity, payload, now,
	)
	if err != nil {
		return fmt.Errorf("保存订单失败: %w", err)
	}
	return nil
}

// GetOrder 按ID获取订单
func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		"SELECT payload FROM orders WHERE order_id = $1", orderID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}

	var o model.Order
	if err := json.Unmarshal(payload, &o); err != nil {
		return nil, fmt.Errorf("反序列化订单失败: %w", err)
	}
	return &o, nil
}

// ListOrders 列出订单
func (r *OrderRepository) ListOrders(ctx context.Context, filter ListFilter) ([]*model.Order, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(order_id ILIKE $%d OR customer ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}
	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("due_date >= $%d", argNum))
		args = append(args, filter.StartDate)
		argNum++
	}
	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("due_date <= $%d", argNum))
		args = append(args, filter.EndDate)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM orders %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计订单数量失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT payload FROM orders %s
		ORDER BY due_date, order_id
		LIMIT $%d OFFSET $%d
	`, whereClause, argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询订单列表失败: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, 0, fmt.Errorf("扫描订单失败: %w", err)
		}
		var o model.Order
		if err := json.Unmarshal(payload, &o); err != nil {
			return nil, 0, fmt.Errorf("反序列化订单失败: %w", err)
		}
		orders = append(orders, &o)
	}

	return orders, total, nil
}

// DeleteOrder 删除订单
func (r *OrderRepository) DeleteOrder(ctx context.Context, orderID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE order_id = $1", orderID)
	if err != nil {
		return fmt.Errorf("删除订单失败: %w", err)
	}
	return nil
}

// UpsertFactory 插入或更新工厂
func (r *OrderRepository) UpsertFactory(ctx context.Context, f *model.Factory) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("序列化工厂失败: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO factories (factory_id, region, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (factory_id) DO UPDATE SET
			region = $2, payload = $3, updated_at = $4
	`

	_, err = r.db.ExecContext(ctx, query, f.ID, f.Region, payload, now)
	if err != nil {
		return fmt.Errorf("保存工厂失败: %w", err)
	}
	return nil
}

// GetFactory 按ID获取工厂
func (r *OrderRepository) GetFactory(ctx context.Context, factoryID string) (*model.Factory, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		"SELECT payload FROM factories WHERE factory_id = $1", factoryID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询工厂失败: %w", err)
	}

	var f model.Factory
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("反序列化工厂失败: %w", err)
	}
	return &f, nil
}

// ListFactories 列出全部工厂
func (r *OrderRepository) ListFactories(ctx context.Context) ([]*model.Factory, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT payload FROM factories ORDER BY factory_id")
	if err != nil {
		return nil, fmt.Errorf("查询工厂列表失败: %w", err)
	}
	defer rows.Close()

	var factories []*model.Factory
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("扫描工厂失败: %w", err)
		}
		var f model.Factory
		if err := json.Unmarshal(payload, &f); err != nil {
			return nil, fmt.Errorf("反序列化工厂失败: %w", err)
		}
		factories = append(factories, &f)
	}

	return factories, nil
}
