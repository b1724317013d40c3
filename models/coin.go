package models

import (
	"time"
)

// 币种历史条目状态常量
const (
	CoinStatusActive   = "active"   // 活跃（近期出现在榜单中）
	CoinStatusInactive = "inactive" // 不活跃（超过阈值未出现在榜单中）
)

// CoinObservation 单次运行采集到的币种观测数据 - 创建后不再修改
type CoinObservation struct {
	// ========== 基础信息 ==========
	ID     string `json:"id"`     // CoinGecko币种ID，如bitcoin
	Symbol string `json:"symbol"` // 币种符号（统一大写），如BTC
	Name   string `json:"name"`   // 币种名称，如Bitcoin
	Image  string `json:"image"`  // 币种图标URL（展示层使用）

	// ========== 行情信息 ==========
	CurrentPrice    float64  `json:"current_price"`             // 当前价格（USD）
	PercentChange1h *float64 `json:"price_change_1h"`           // 1小时涨跌幅（%），上游可能缺失
	MarketCapRank   int      `json:"market_cap_rank,omitempty"` // 市值排名

	// ========== 时间戳 ==========
	LastUpdated time.Time `json:"last_updated"` // 上游最后更新时间
}

// RankingSnapshot 单次运行生成的涨跌幅榜单
type RankingSnapshot struct {
	GeneratedAt time.Time         `json:"generated_at"` // 榜单生成时间（UTC）
	RunID       string            `json:"run_id"`       // 本次运行ID
	TopGainers  []CoinObservation `json:"top_gainers"`  // 涨幅榜：按1小时涨跌幅降序，最多TopCount个
	TopLosers   []CoinObservation `json:"top_losers"`   // 跌幅榜：按1小时涨跌幅升序，最多TopCount个
}

// DataPoint 历史数据点
// 原始点为单次运行的观测值（Samples=1）；合并后的日均点以当日UTC零点为时间戳，
// Samples记录参与平均的原始观测数量，保证后续增量合并仍然等于全量算术平均。
type DataPoint struct {
	Timestamp     time.Time `json:"timestamp"`      // 观测时间；日均点为当日UTC零点
	Price         float64   `json:"price"`          // 价格（原始值或日均值）
	PercentChange float64   `json:"percent_change"` // 1小时涨跌幅（原始值或日均值）
	Consolidated  bool      `json:"consolidated"`   // 是否为日均点
	Samples       int       `json:"samples"`        // 参与平均的观测数量
}

// HistoricalEntry 单个币种的历史记录
// 数据点按时间升序排列，日均点在前、原始点在后；同一币种ID在存储中唯一。
type HistoricalEntry struct {
	CoinID   string      `json:"coin_id"`
	Symbol   string      `json:"symbol"`
	Name     string      `json:"name"`
	Points   []DataPoint `json:"points"`
	LastSeen time.Time   `json:"last_seen"` // 最后一次出现在榜单中的时间
	Active   bool        `json:"active"`    // false表示超过阈值未出现在榜单中
}

// Status 返回条目的状态字符串
func (e *HistoricalEntry) Status() string {
	if e.Active {
		return CoinStatusActive
	}
	return CoinStatusInactive
}

// LatestPoint 返回最新的数据点，没有数据时返回nil
func (e *HistoricalEntry) LatestPoint() *DataPoint {
	if len(e.Points) == 0 {
		return nil
	}
	return &e.Points[len(e.Points)-1]
}

// OldestPoint 返回最旧的数据点，没有数据时返回nil
func (e *HistoricalEntry) OldestPoint() *DataPoint {
	if len(e.Points) == 0 {
		return nil
	}
	return &e.Points[0]
}
