// Package model 定义排产引擎的核心数据模型
package model

import (
	"time"
)

// DateLayout 统一的日期格式
const DateLayout = "2006-01-02"

// OrderType 订单类型
type OrderType int

const (
	ForecastOrder OrderType = 0 // 预测单
	FirmOrder     OrderType = 1 // 正式单
)

// String 返回订单类型名称
func (t OrderType) String() string {
	if t == FirmOrder {
		return "firm"
	}
	return "forecast"
}

// ParseDate 解析 YYYY-MM-DD 格式的日期
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate 格式化为 YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays 在日期字符串上加减天数
func AddDays(date string, days int) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return FormatDate(t.AddDate(0, 0, days))
}

// DaysBetween 计算 to 相对 from 的天数差（to - from）
func DaysBetween(from, to string) int {
	a, err1 := ParseDate(from)
	b, err2 := ParseDate(to)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(b.Sub(a).Hours() / 24)
}

// DateRange 日期范围
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// Contains 检查日期是否落在范围内（闭区间）
func (r DateRange) Contains(date string) bool {
	return date >= r.StartDate && date <= r.EndDate
}
