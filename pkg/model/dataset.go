package model

import (
	"sort"
	"time"

	"github.com/zhangyoujia1995/NICE-APS/pkg/errors"
)

// Dataset 一次求解所需的全部输入数据及其预计算索引。
// 构建完成后只读，可被多个求解goroutine并发访问。
type Dataset struct {
	BaseDate time.Time

	Orders    []*Order
	Factories []*Factory

	orderByID   map[string]*Order
	factoryByID map[string]*Factory

	// eligible 每个订单可选工厂ID列表（已排序，保证遍历顺序确定）
	eligible map[string][]string

	// earliestStart 订单在各工厂的最早开工日期（物料到齐后推生产前置时间）
	earliestStart map[string]map[string]time.Time

	// load 订单在各工厂效率调整后的实际工作量
	load map[string]map[string]float64
}

// BuildDataset 校验输入并构建只读数据集。
// 任何记录级违规都会被收集后一次性返回，而非逐条中断。
func BuildDataset(orders []*Order, factories []*Factory, baseDate string) (*Dataset, error) {
	ve := errors.NewValidationErrors()

	base, err := ParseDate(baseDate)
	if err != nil {
		return nil, errors.Configuration("base_date", "日期格式无效，应为YYYY-MM-DD")
	}

	ds := &Dataset{
		BaseDate:      base,
		Orders:        orders,
		Factories:     factories,
		orderByID:     make(map[string]*Order, len(orders)),
		factoryByID:   make(map[string]*Factory, len(factories)),
		eligible:      make(map[string][]string, len(orders)),
		earliestStart: make(map[string]map[string]time.Time, len(orders)),
		load:          make(map[string]map[string]float64, len(orders)),
	}

	for _, f := range factories {
		f.Validate(ve)
		if f.ID == "" {
			continue
		}
		if _, dup := ds.factoryByID[f.ID]; dup {
			ve.Add(f.ID, "factory_id", "工厂ID重复")
			continue
		}
		ds.factoryByID[f.ID] = f
	}

	for _, o := range orders {
		o.Validate(base, ve)
		if o.ID == "" {
			continue
		}
		if _, dup := ds.orderByID[o.ID]; dup {
			ve.Add(o.ID, "order_id", "订单ID重复")
			continue
		}
		ds.orderByID[o.ID] = o

		// 可选工厂完整性校验：引用的工厂必须存在
		var eligible []string
		if len(o.EligibleFactories) == 0 {
			for id := range ds.factoryByID {
				eligible = append(eligible, id)
			}
		} else {
			for _, fid := range o.EligibleFactories {
				if _, ok := ds.factoryByID[fid]; !ok {
					ve.Add(o.ID, "eligible_factories", "引用了不存在的工厂 "+fid)
					continue
				}
				eligible = append(eligible, fid)
			}
		}
		sort.Strings(eligible)
		ds.eligible[o.ID] = eligible

		if o.Fixed != nil {
			f, ok := ds.factoryByID[o.Fixed.FactoryID]
			if !ok {
				ve.Add(o.ID, "fixed_assignment.factory_id", "引用了不存在的工厂 "+o.Fixed.FactoryID)
			} else if f.PeriodByStart(o.Fixed.PeriodStart) == nil {
				ve.Add(o.ID, "fixed_assignment.period_start", "工厂 "+f.ID+" 没有起始于该日期的周期")
			}
		}
	}

	if ve.HasErrors() {
		return nil, ve.ToAppError()
	}

	for _, o := range orders {
		ds.earliestStart[o.ID] = make(map[string]time.Time)
		ds.load[o.ID] = make(map[string]float64)
		for _, fid := range ds.eligible[o.ID] {
			f := ds.factoryByID[fid]
			if start, ok := ds.computeEarliestStart(o, f); ok {
				ds.earliestStart[o.ID][fid] = start
			}
			eff := f.EfficiencyFor(o.ProductType, o.Quantity)
			ds.load[o.ID][fid] = o.BaseWorkload() / eff
		}
	}

	return ds, nil
}

// computeEarliestStart 计算订单在指定工厂的最早开工日期。
// 每种物料的可用日期取工厂实际到货记录，缺失时按
// 基准日期 + 采购前置时间 + 区域运输前置时间 估算；
// 订单声明了区域运输前置时间但未覆盖该工厂区域时，
// 物料无法送达，该工厂对此订单不可用（ok=false）。
func (ds *Dataset) computeEarliestStart(o *Order, f *Factory) (time.Time, bool) {
	ready := ds.BaseDate
	transport, hasTransport := o.TransportLeadTimeByRegion[f.Region]

	for _, m := range o.Materials {
		var avail time.Time
		if arrival, ok := f.MaterialArrivals[m.Name]; ok {
			if t, err := ParseDate(arrival); err == nil {
				avail = t
			} else {
				avail = ds.BaseDate
			}
		} else {
			if !hasTransport && len(o.TransportLeadTimeByRegion) > 0 {
				return time.Time{}, false
			}
			avail = ds.BaseDate.AddDate(0, 0, m.PurchasingLeadTimeDays+transport)
		}
		if avail.After(ready) {
			ready = avail
		}
	}

	return ready.AddDate(0, 0, o.ProductionLeadTimeDays), true
}

// Order 按ID查订单
func (ds *Dataset) Order(id string) *Order {
	return ds.orderByID[id]
}

// Factory 按ID查工厂
func (ds *Dataset) Factory(id string) *Factory {
	return ds.factoryByID[id]
}

// EligibleFactories 返回订单可选工厂ID列表（已排序）。
// 订单未显式声明时默认全部工厂可选。
func (ds *Dataset) EligibleFactories(orderID string) []string {
	return ds.eligible[orderID]
}

// EarliestStart 返回订单在指定工厂的最早开工日期
func (ds *Dataset) EarliestStart(orderID, factoryID string) (time.Time, bool) {
	m, ok := ds.earliestStart[orderID]
	if !ok {
		return time.Time{}, false
	}
	t, ok := m[factoryID]
	return t, ok
}

// EffectiveLoad 返回订单在指定工厂效率调整后的实际工作量
func (ds *Dataset) EffectiveLoad(orderID, factoryID string) float64 {
	m, ok := ds.load[orderID]
	if !ok {
		return 0
	}
	return m[factoryID]
}

// CompletionDate 计算从指定周期开始生产的完成日期
func (ds *Dataset) CompletionDate(o *Order, periodStart string) string {
	return AddDays(periodStart, o.ProductionLeadTimeDays)
}

// MaterialDates 倒推物料就绪日期与最晚确认日期。
// 就绪日期 = 开工日期 - 生产前置时间；
// 最晚确认日期 = 就绪日期 - 最长采购前置时间 - 区域运输前置时间。
func (ds *Dataset) MaterialDates(o *Order, f *Factory, startDate string) (ready, confirm string) {
	ready = AddDays(startDate, -o.ProductionLeadTimeDays)
	maxPurchase := 0
	for _, m := range o.Materials {
		if m.PurchasingLeadTimeDays > maxPurchase {
			maxPurchase = m.PurchasingLeadTimeDays
		}
	}
	transport := o.TransportLeadTimeByRegion[f.Region]
	confirm = AddDays(ready, -(maxPurchase + transport))
	return ready, confirm
}

// TotalWorkload 返回全部订单的标准工作量之和
func (ds *Dataset) TotalWorkload() float64 {
	var total float64
	for _, o := range ds.Orders {
		total += o.BaseWorkload()
	}
	return total
}
