package model

import (
	"github.com/zhangyoujia1995/NICE-APS/pkg/errors"
)

// CapacityPeriod 工厂的一个排产周期及其产能
type CapacityPeriod struct {
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Capacity  float64 `json:"capacity"`
}

// EfficiencyTier 按数量区间定义的生产效率
type EfficiencyTier struct {
	MinQuantity int     `json:"min_quantity"`
	MaxQuantity int     `json:"max_quantity"`
	Efficiency  float64 `json:"efficiency"`
}

// Factory 生产工厂
type Factory struct {
	ID              string                      `json:"factory_id"`
	Region          string                      `json:"region,omitempty"`
	CapacityPeriods []CapacityPeriod            `json:"capacity_periods"`
	Efficiencies    map[string][]EfficiencyTier `json:"production_efficiencies,omitempty"`
	// MaterialArrivals 记录已确认到厂的物料及其到货日期
	MaterialArrivals map[string]string `json:"material_arrivals,omitempty"`
}

// EfficiencyFor 查询订单品类与数量对应的生产效率，未匹配时返回1.0
func (f *Factory) EfficiencyFor(productType string, quantity int) float64 {
	tiers, ok := f.Efficiencies[productType]
	if !ok {
		return 1.0
	}
	for _, tier := range tiers {
		if tier.MinQuantity <= quantity && quantity <= tier.MaxQuantity {
			if tier.Efficiency > 0 {
				return tier.Efficiency
			}
		}
	}
	return 1.0
}

// PeriodByStart 按起始日期查找周期
func (f *Factory) PeriodByStart(start string) *CapacityPeriod {
	for i := range f.CapacityPeriods {
		if f.CapacityPeriods[i].StartDate == start {
			return &f.CapacityPeriods[i]
		}
	}
	return nil
}

// TotalCapacity 返回全部周期的总产能
func (f *Factory) TotalCapacity() float64 {
	var total float64
	for _, p := range f.CapacityPeriods {
		total += p.Capacity
	}
	return total
}

// Validate 校验工厂记录，违规项追加到 ve
func (f *Factory) Validate(ve *errors.ValidationErrors) {
	record := f.ID
	if record == "" {
		record = "(无ID工厂)"
		ve.Add(record, "factory_id", "工厂ID不能为空")
	}

	if len(f.CapacityPeriods) == 0 {
		ve.Add(record, "capacity_periods", "至少需要一个产能周期")
	}

	seen := make(map[string]bool)
	for _, p := range f.CapacityPeriods {
		start, err1 := ParseDate(p.StartDate)
		end, err2 := ParseDate(p.EndDate)
		if err1 != nil {
			ve.Add(record, "capacity_periods.start_date", "日期格式无效，应为YYYY-MM-DD")
			continue
		}
		if err2 != nil {
			ve.Add(record, "capacity_periods.end_date", "日期格式无效，应为YYYY-MM-DD")
			continue
		}
		if end.Before(start) {
			ve.Add(record, "capacity_periods."+p.StartDate, "周期结束日期不能早于开始日期")
		}
		if p.Capacity < 0 {
			ve.Add(record, "capacity_periods."+p.StartDate, "产能不能为负数")
		}
		if seen[p.StartDate] {
			ve.Add(record, "capacity_periods."+p.StartDate, "周期起始日期重复")
		}
		seen[p.StartDate] = true
	}

	for _, tiers := range f.Efficiencies {
		for _, tier := range tiers {
			if tier.Efficiency <= 0 {
				ve.Add(record, "production_efficiencies", "生产效率必须为正数")
			}
		}
	}

	for material, arrival := range f.MaterialArrivals {
		if _, err := ParseDate(arrival); err != nil {
			ve.Add(record, "material_arrivals."+material, "日期格式无效，应为YYYY-MM-DD")
		}
	}
}
