package model

import (
	"time"

	"github.com/zhangyoujia1995/NICE-APS/pkg/errors"
)

// Material 订单所需物料及其采购前置时间
type Material struct {
	Name                   string `json:"name"`
	PurchasingLeadTimeDays int    `json:"purchasing_lead_time_days"`
}

// FixedAssignment 订单的固定分配（锁定工厂与周期）
type FixedAssignment struct {
	FactoryID   string `json:"factory_id"`
	PeriodStart string `json:"period_start"`
}

// Order 生产订单
type Order struct {
	ID          string    `json:"order_id"`
	Customer    string    `json:"customer,omitempty"`
	ProductType string    `json:"product_type,omitempty"`
	Style       string    `json:"style,omitempty"`
	Quantity    int       `json:"quantity"`
	DueDate     string    `json:"due_date"`
	TargetDate  string    `json:"target_date,omitempty"` // JIT目标完成日期（可选）
	Type        OrderType `json:"order_type"`

	Materials                 []Material     `json:"materials,omitempty"`
	TransportLeadTimeByRegion map[string]int `json:"material_transportation_to_region_lead_time,omitempty"`
	ProductionLeadTimeDays    int            `json:"production_lead_time"`

	// Workload 为标准总工作量；为0时以数量代替
	Workload          float64          `json:"workload,omitempty"`
	EligibleFactories []string         `json:"eligible_factories,omitempty"`
	Fixed             *FixedAssignment `json:"fixed_assignment,omitempty"`
}

// IsFirm 是否正式单
func (o *Order) IsFirm() bool {
	return o.Type == FirmOrder
}

// BaseWorkload 返回订单的标准工作量
func (o *Order) BaseWorkload() float64 {
	if o.Workload > 0 {
		return o.Workload
	}
	return float64(o.Quantity)
}

// Validate 校验订单记录，违规项追加到 ve
func (o *Order) Validate(baseDate time.Time, ve *errors.ValidationErrors) {
	record := o.ID
	if record == "" {
		record = "(无ID订单)"
		ve.Add(record, "order_id", "订单ID不能为空")
	}

	if o.Quantity <= 0 {
		ve.Add(record, "quantity", "订单数量必须为正数")
	}

	if o.DueDate == "" {
		ve.Add(record, "due_date", "交付日期不能为空")
	} else if due, err := ParseDate(o.DueDate); err != nil {
		ve.Add(record, "due_date", "日期格式无效，应为YYYY-MM-DD")
	} else if due.Before(baseDate) {
		ve.Add(record, "due_date", "交付日期不能早于计算基准日期")
	}

	if o.TargetDate != "" {
		if _, err := ParseDate(o.TargetDate); err != nil {
			ve.Add(record, "target_date", "日期格式无效，应为YYYY-MM-DD")
		}
	}

	if o.Type != FirmOrder && o.Type != ForecastOrder {
		ve.Add(record, "order_type", "订单类型必须为 0（预测单）或 1（正式单）")
	}

	if o.ProductionLeadTimeDays < 0 {
		ve.Add(record, "production_lead_time", "生产前置时间不能为负数")
	}

	for _, m := range o.Materials {
		if m.Name == "" {
			ve.Add(record, "materials", "物料名称不能为空")
			continue
		}
		if m.PurchasingLeadTimeDays < 0 {
			ve.Add(record, "materials."+m.Name, "物料采购前置时间不能为负数")
		}
	}

	for region, lt := range o.TransportLeadTimeByRegion {
		if lt < 0 {
			ve.Add(record, "material_transportation_to_region_lead_time."+region, "运输前置时间不能为负数")
		}
	}
}
