package constraint

import (
	"github.com/zhangyoujia1995/NICE-APS/pkg/model"
)

// Context 求解上下文。
// 持有只读数据集、当前排产方案及增量维护的负载索引，
// 单个求解goroutine内独占使用。
type Context struct {
	Data     *model.Dataset
	Schedule *model.Schedule

	// loadByFactory 工厂 → 周期起始日期 → 当前累计负载
	loadByFactory map[string]map[string]float64
}

// NewContext 创建求解上下文
func NewContext(ds *model.Dataset, baseDate string) *Context {
	return &Context{
		Data:          ds,
		Schedule:      model.NewSchedule(baseDate),
		loadByFactory: make(map[string]map[string]float64),
	}
}

// SetSchedule 替换当前方案并重建负载索引
func (c *Context) SetSchedule(s *model.Schedule) {
	c.Schedule = s
	c.loadByFactory = make(map[string]map[string]float64)
	for _, a := range s.Assignments() {
		c.addLoad(a.FactoryID, a.PeriodStart, a.Load)
	}
}

// Apply 将分配写入当前方案并更新负载索引。
// 同一订单的旧分配被替换，其负载先被扣除。
func (c *Context) Apply(a *model.Assignment) error {
	if old := c.Schedule.Get(a.OrderID); old != nil {
		c.addLoad(old.FactoryID, old.PeriodStart, -old.Load)
	}
	if err := c.Schedule.Add(a); err != nil {
		return err
	}
	c.addLoad(a.FactoryID, a.PeriodStart, a.Load)
	return nil
}

// Unapply 从当前方案中移除订单的分配
func (c *Context) Unapply(orderID string) {
	if old := c.Schedule.Get(orderID); old != nil {
		c.addLoad(old.FactoryID, old.PeriodStart, -old.Load)
		c.Schedule.Remove(orderID)
	}
}

// LoadAt 返回工厂某周期的当前累计负载
func (c *Context) LoadAt(factoryID, periodStart string) float64 {
	return c.loadByFactory[factoryID][periodStart]
}

// ProjectedLoad 返回把分配 a 加入方案后工厂某周期的负载。
// 扣除 a 对应订单现有分配在同一周期的贡献。
func (c *Context) ProjectedLoad(a *model.Assignment) float64 {
	load := c.LoadAt(a.FactoryID, a.PeriodStart) + a.Load
	if old := c.Schedule.Get(a.OrderID); old != nil &&
		old.FactoryID == a.FactoryID && old.PeriodStart == a.PeriodStart {
		load -= old.Load
	}
	return load
}

// FactoryLoads 返回各工厂的总负载（含零负载工厂）
func (c *Context) FactoryLoads() map[string]float64 {
	loads := make(map[string]float64, len(c.Data.Factories))
	for _, f := range c.Data.Factories {
		loads[f.ID] = 0
	}
	for fid, periods := range c.loadByFactory {
		for _, load := range periods {
			loads[fid] += load
		}
	}
	return loads
}

// Clone 复制上下文（方案深拷贝，数据集共享）
func (c *Context) Clone() *Context {
	clone := &Context{
		Data:          c.Data,
		Schedule:      c.Schedule.Clone(),
		loadByFactory: make(map[string]map[string]float64, len(c.loadByFactory)),
	}
	for fid, periods := range c.loadByFactory {
		clone.loadByFactory[fid] = make(map[string]float64, len(periods))
		for p, load := range periods {
			clone.loadByFactory[fid][p] = load
		}
	}
	return clone
}

func (c *Context) addLoad(factoryID, periodStart string, delta float64) {
	periods, ok := c.loadByFactory[factoryID]
	if !ok {
		periods = make(map[string]float64)
		c.loadByFactory[factoryID] = periods
	}
	periods[periodStart] += delta
}
