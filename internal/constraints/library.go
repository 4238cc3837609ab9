// Package constraints 约束库目录
package constraints

// ConstraintParam 约束参数定义
type ConstraintParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, string, bool, array
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// ConstraintDefinition 约束定义
type ConstraintDefinition struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`     // hard 硬约束, soft 软约束
	Category    string            `json:"category"` // 分类
	Description string            `json:"description"`
	Params      []ConstraintParam `json:"params"`
}

// ObjectiveDefinition 优化目标定义
type ObjectiveDefinition struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Description string            `json:"description"`
	Params      []ConstraintParam `json:"params"`
}

// LibraryResponse 约束库响应
type LibraryResponse struct {
	Constraints []ConstraintDefinition `json:"constraints"`
	Objectives  []ObjectiveDefinition  `json:"objectives"`
}

// GetLibrary 获取后端支持的全部约束定义
func GetLibrary() []ConstraintDefinition {
	return []ConstraintDefinition{
		{
			Name:        "order_unique_assign",
			DisplayName: "订单唯一分配",
			Type:        "hard",
			Category:    "分配完整性",
			Description: "每个订单必须且只能分配到一个（工厂，产能周期）组合，且该工厂在订单的可选工厂范围内。",
			Params:      []ConstraintParam{},
		},
		{
			Name:        "capacity",
			DisplayName: "工厂产能上限",
			Type:        "hard",
			Category:    "产能限制",
			Description: "任意工厂在任意产能周期内承接的订单折算负载之和不得超过该周期产能。负载按订单标准工作量除以工厂效率系数折算。",
			Params:      []ConstraintParam{},
		},
		{
			Name:        "material_lead_time",
			DisplayName: "物料前置时间",
			Type:        "hard",
			Category:    "物料齐套",
			Description: "订单的生产周期不得早于其全部物料在该工厂的最晚到达日期。物料到达取工厂实际到料记录，缺省按采购前置时间加区域运输时间推算。",
			Params:      []ConstraintParam{},
		},
	}
}

// GetObjectives 获取后端支持的全部优化目标定义
func GetObjectives() []ObjectiveDefinition {
	return []ObjectiveDefinition{
		{
			Name:        "tardiness",
			DisplayName: "交付延误最小化",
			Description: "最小化按订单类型加权的延误天数，正式单权重高于预测单，按订单总数归一化。",
			Params: []ConstraintParam{
				{Name: "firm_tardy_weight", Type: "float", Description: "正式单延误权重", Default: "0.7", Min: "0"},
				{Name: "forecast_tardy_weight", Type: "float", Description: "预测单延误权重", Default: "0.3", Min: "0"},
			},
		},
		{
			Name:        "jit",
			DisplayName: "准时交付（JIT）",
			Description: "完工日期落在目标日期容忍带之外时产生惩罚，过早与过晚分别加权。未设置目标日期时以交付日期为目标。",
			Params: []ConstraintParam{
				{Name: "allowed_earliness_deviation_days", Type: "int", Description: "允许提前天数", Default: "7", Min: "0"},
				{Name: "allowed_tardiness_deviation_days", Type: "int", Description: "允许推迟天数", Default: "3", Min: "0"},
				{Name: "earliness_weight", Type: "float", Description: "提前惩罚权重", Default: "0.3", Min: "0"},
				{Name: "lateness_weight", Type: "float", Description: "推迟惩罚权重", Default: "0.7", Min: "0"},
			},
		},
		{
			Name:        "workload_balance",
			DisplayName: "工厂负载均衡",
			Description: "最小化各工厂负载的标准差与最大单厂负载的加权和，降低产能集中风险。",
			Params: []ConstraintParam{
				{Name: "imbalance_weight", Type: "float", Description: "负载离散度权重", Default: "0.5", Min: "0"},
				{Name: "max_load_weight", Type: "float", Description: "最大负载权重", Default: "0.5", Min: "0"},
				{Name: "scaling_factor", Type: "float", Description: "整体缩放系数", Default: "0.01", Min: "0"},
			},
		},
	}
}
