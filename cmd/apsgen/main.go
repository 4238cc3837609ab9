// NICE-APS 演示数据生成器
// 生成可直接投喂 /api/v1/plan/solve 的订单与工厂JSON文件

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
)

var (
	customers    = []string{"客户A", "客户B", "客户C", "客户D", "客户E", "客户F", "客户G", "客户H"}
	productTypes = []string{"外套", "衬衫", "裤子"}
	stylePrefix  = []string{"AW25", "SS26"}
	styleNames   = map[string][]string{
		"外套": {"风衣", "大衣", "夹克", "冲锋衣", "羽绒服"},
		"衬衫": {"长袖衬衫", "短袖衬衫", "法兰绒", "POLO"},
		"裤子": {"工装裤", "休闲裤", "灯芯绒", "短裤"},
	}
	factoryChoices = [][]string{
		{"F_CN_01"},
		{"F_TH_01"},
		{"F_CN_01", "F_TH_01"},
	}
)

func main() {
	var (
		count   = flag.Int("orders", 100, "生成订单数量")
		seed    = flag.Int64("seed", 42, "随机种子")
		outDir  = flag.String("out", "data", "输出目录")
		baseStr = flag.String("base", "2025-11-01", "计算基准日期（YYYY-MM-DD）")
	)
	flag.Parse()

	base, err := model.ParseDate(*baseStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "无效的基准日期: %v\n", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))

	orders := make([]*model.Order, 0, *count)
	for i := 0; i < *count; i++ {
		orders = append(orders, generateOrder(rng, base, i))
	}
	factories := generateFactories(base)

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "创建输出目录失败: %v\n", err)
		os.Exit(1)
	}

	if err := writeJSON(filepath.Join(*outDir, "orders.json"), orders); err != nil {
		fmt.Fprintf(os.Stderr, "写入订单文件失败: %v\n", err)
		os.Exit(1)
	}
	if err := writeJSON(filepath.Join(*outDir, "factories.json"), factories); err != nil {
		fmt.Fprintf(os.Stderr, "写入工厂文件失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("已生成 %d 条订单、%d 家工厂到 %s/\n", len(orders), len(factories), *outDir)
}

// generateOrder 生成单条订单，交付日期落在基准日后60~120天
func generateOrder(rng *rand.Rand, base time.Time, i int) *model.Order {
	productType := productTypes[rng.Intn(len(productTypes))]
	names := styleNames[productType]
	style := fmt.Sprintf("%s-%s-%03d",
		stylePrefix[rng.Intn(len(stylePrefix))],
		names[rng.Intn(len(names))],
		rng.Intn(20)+1)

	quantity := rng.Intn(9501) + 500
	due := base.AddDate(0, 0, rng.Intn(61)+60)

	orderType := model.ForecastOrder
	if rng.Float64() < 0.6 {
		orderType = model.FirmOrder
	}

	o := &model.Order{
		ID:          fmt.Sprintf("ORD_%03d", i+1),
		Customer:    customers[rng.Intn(len(customers))],
		ProductType: productType,
		Style:       style,
		Quantity:    quantity,
		DueDate:     model.FormatDate(due),
		Type:        orderType,
		Materials: []model.Material{
			{Name: "主面料", PurchasingLeadTimeDays: rng.Intn(26) + 5},
			{Name: "辅料", PurchasingLeadTimeDays: rng.Intn(11) + 3},
		},
		TransportLeadTimeByRegion: map[string]int{
			"CHINA":    rng.Intn(31) + 20,
			"THAILAND": rng.Intn(39) + 22,
		},
		ProductionLeadTimeDays: rng.Intn(7) + 2,
		EligibleFactories:      factoryChoices[rng.Intn(len(factoryChoices))],
	}

	// 部分正式单带JIT目标日期，落在交付日前0~5天
	if orderType == model.FirmOrder && rng.Float64() < 0.5 {
		o.TargetDate = model.FormatDate(due.AddDate(0, 0, -rng.Intn(6)))
	}

	return o
}

// generateFactories 生成两家区域工厂，各6个月度产能周期
func generateFactories(base time.Time) []*model.Factory {
	makePeriods := func(capacity float64) []model.CapacityPeriod {
		periods := make([]model.CapacityPeriod, 0, 6)
		start := time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 6; i++ {
			ps := start.AddDate(0, i, 0)
			pe := ps.AddDate(0, 1, -1)
			periods = append(periods, model.CapacityPeriod{
				StartDate: model.FormatDate(ps),
				EndDate:   model.FormatDate(pe),
				Capacity:  capacity,
			})
		}
		return periods
	}

	return []*model.Factory{
		{
			ID:              "F_CN_01",
			Region:          "CHINA",
			CapacityPeriods: makePeriods(120000),
			Efficiencies: map[string][]model.EfficiencyTier{
				"外套": {
					{MinQuantity: 0, MaxQuantity: 4999, Efficiency: 1.0},
					{MinQuantity: 5000, MaxQuantity: 100000, Efficiency: 1.2},
				},
				"衬衫": {{MinQuantity: 0, MaxQuantity: 100000, Efficiency: 1.1}},
				"裤子": {{MinQuantity: 0, MaxQuantity: 100000, Efficiency: 1.0}},
			},
		},
		{
			ID:              "F_TH_01",
			Region:          "THAILAND",
			CapacityPeriods: makePeriods(90000),
			Efficiencies: map[string][]model.EfficiencyTier{
				"外套": {{MinQuantity: 0, MaxQuantity: 100000, Efficiency: 0.9}},
				"衬衫": {
					{MinQuantity: 0, MaxQuantity: 2999, Efficiency: 1.0},
					{MinQuantity: 3000, MaxQuantity: 100000, Efficiency: 1.15},
				},
				"裤子": {{MinQuantity: 0, MaxQuantity: 100000, Efficiency: 0.95}},
			},
		},
	}
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
