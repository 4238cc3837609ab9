// Package kpi 提供排产结果的指标分析
package kpi

import (
	"math"
	"sort"

	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
)

// Report 排产指标报告
type Report struct {
	// 交付表现
	TotalOrders      int     `json:"total_orders"`
	AssignedOrders   int     `json:"assigned_orders"`
	OnTimeOrders     int     `json:"on_time_orders"`
	OnTimeRate       float64 `json:"on_time_rate"`        // 已分配订单的准时率 (0-100)
	AvgTardinessDays float64 `json:"avg_tardiness_days"`  // 延误订单的平均延误天数
	MaxTardinessDays int     `json:"max_tardiness_days"`  // 最大单订单延误天数
	FirmOnTimeRate   float64 `json:"firm_on_time_rate"`   // 正式单准时率 (0-100)

	// 负载分布
	FactoryStats  []FactoryStat `json:"factory_stats"`
	LoadStdDev    float64       `json:"load_std_dev"`    // 工厂负载标准差
	MaxLoad       float64       `json:"max_load"`        // 最大单厂负载
	AvgUtilization float64      `json:"avg_utilization"` // 平均产能利用率 (0-100)
}

// FactoryStat 单工厂统计
type FactoryStat struct {
	FactoryID   string  `json:"factory_id"`
	OrderCount  int     `json:"order_count"`
	TotalLoad   float64 `json:"total_load"`
	Capacity    float64 `json:"capacity"`
	Utilization float64 `json:"utilization"` // 0-100
}

// Reporter 指标分析器
type Reporter struct{}

// NewReporter 创建指标分析器
func NewReporter() *Reporter {
	return &Reporter{}
}

// Analyze 分析排产方案的交付表现与负载分布
func (r *Reporter) Analyze(ds *model.Dataset, schedule *model.Schedule) *Report {
	report := &Report{TotalOrders: len(ds.Orders)}
	if schedule == nil {
		return report
	}

	var totalTardy, tardyCount int
	var firmAssigned, firmOnTime int

	for _, o := range ds.Orders {
		a := schedule.Get(o.ID)
		if a == nil {
			continue
		}
		report.AssignedOrders++

		tardy := model.DaysBetween(o.DueDate, a.CompletionDate)
		if tardy <= 0 {
			report.OnTimeOrders++
		} else {
			totalTardy += tardy
			tardyCount++
			if tardy > report.MaxTardinessDays {
				report.MaxTardinessDays = tardy
			}
		}

		if o.IsFirm() {
			firmAssigned++
			if tardy <= 0 {
				firmOnTime++
			}
		}
	}

	if report.AssignedOrders > 0 {
		report.OnTimeRate = float64(report.OnTimeOrders) / float64(report.AssignedOrders) * 100
	}
	if tardyCount > 0 {
		report.AvgTardinessDays = float64(totalTardy) / float64(tardyCount)
	}
	if firmAssigned > 0 {
		report.FirmOnTimeRate = float64(firmOnTime) / float64(firmAssigned) * 100
	}

	report.FactoryStats = r.factoryStats(ds, schedule)

	loads := make([]float64, 0, len(report.FactoryStats))
	var utilSum float64
	for _, fs := range report.FactoryStats {
		loads = append(loads, fs.TotalLoad)
		if fs.TotalLoad > report.MaxLoad {
			report.MaxLoad = fs.TotalLoad
		}
		utilSum += fs.Utilization
	}
	report.LoadStdDev = stdDev(loads)
	if len(report.FactoryStats) > 0 {
		report.AvgUtilization = utilSum / float64(len(report.FactoryStats))
	}

	return report
}

// factoryStats 统计各工厂的负载与利用率
func (r *Reporter) factoryStats(ds *model.Dataset, schedule *model.Schedule) []FactoryStat {
	statMap := make(map[string]*FactoryStat, len(ds.Factories))
	for _, f := range ds.Factories {
		statMap[f.ID] = &FactoryStat{FactoryID: f.ID, Capacity: f.TotalCapacity()}
	}

	for _, a := range schedule.Assignments() {
		stat, ok := statMap[a.FactoryID]
		if !ok {
			continue
		}
		stat.OrderCount++
		stat.TotalLoad += a.Load
	}

	result := make([]FactoryStat, 0, len(statMap))
	for _, stat := range statMap {
		if stat.Capacity > 0 {
			stat.Utilization = stat.TotalLoad / stat.Capacity * 100
		}
		result = append(result, *stat)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].FactoryID < result[j].FactoryID
	})
	return result
}

// stdDev 总体标准差
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}
