package core

import (
	"sort"
	"time"

	"crypto_tracker/models"
	"crypto_tracker/pkg/storage"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ========== 历史数据管理器 ==========

// HistoryManager 历史数据管理器
// 每次运行对榜单中出现的币种和已有的全部历史条目应用一遍状态机：
// 追加观测 → 标记不活跃 → 按日合并超龄原始点 → 淘汰超出保留期的数据
type HistoryManager struct {
	inactivityThreshold time.Duration // 超过该时长未出现则标记为不活跃，同时作为日均合并的分界
	retentionHorizon    time.Duration // 数据保留上限
}

// NewHistoryManager 创建历史数据管理器
func NewHistoryManager(inactivityThreshold, retentionHorizon time.Duration) *HistoryManager {
	return &HistoryManager{
		inactivityThreshold: inactivityThreshold,
		retentionHorizon:    retentionHorizon,
	}
}

// MergeStats 单次合并的统计信息
type MergeStats struct {
	Created      int // 新建条目数
	Updated      int // 追加观测的条目数
	Reactivated  int // 重新活跃的条目数
	Deactivated  int // 标记为不活跃的条目数
	Consolidated int // 被折叠为日均值的原始点数
	Purged       int // 整体淘汰的条目数
}

// Merge 将本次榜单合并进历史存储
// 对同一快照和同一now重复调用是幂等的；单个币种处理失败只影响该币种，不中断整次运行
func (hm *HistoryManager) Merge(store *storage.HistoryStore, snapshot *models.RankingSnapshot, now time.Time) MergeStats {
	now = now.UTC()
	stats := MergeStats{}

	// 第一步：榜单中的币种逐个合并
	seen := make(map[string]bool)
	for _, coin := range RankedCoins(snapshot) {
		seen[coin.ID] = true
		hm.mergeCoin(store, coin, now, &stats)
	}

	// 第二步：对全部条目做不活跃标记、日均合并和淘汰
	for id, entry := range store.Entries {
		hm.maintainEntry(store, id, entry, seen[id], now, &stats)
	}

	logrus.Infof("历史合并完成: 新建%d 更新%d 复活%d 失活%d 折叠%d 淘汰%d，当前共%d个币种",
		stats.Created, stats.Updated, stats.Reactivated, stats.Deactivated,
		stats.Consolidated, stats.Purged, store.Len())
	return stats
}

// mergeCoin 合并单个币种的观测，内部panic只记录警告
func (hm *HistoryManager) mergeCoin(store *storage.HistoryStore, coin models.CoinObservation, now time.Time, stats *MergeStats) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Warnf("合并币种 %s 失败，跳过: %v", coin.ID, r)
		}
	}()

	// 榜单币种必然有涨跌幅，防御性判断
	if coin.PercentChange1h == nil {
		return
	}

	entry := store.Entries[coin.ID]
	if entry == nil {
		store.Entries[coin.ID] = &models.HistoricalEntry{
			CoinID: coin.ID,
			Symbol: coin.Symbol,
			Name:   coin.Name,
			Points: []models.DataPoint{{
				Timestamp:     now,
				Price:         coin.CurrentPrice,
				PercentChange: *coin.PercentChange1h,
				Samples:       1,
			}},
			LastSeen: now,
			Active:   true,
		}
		stats.Created++
		return
	}

	entry.Symbol = coin.Symbol
	entry.Name = coin.Name

	if !entry.Active {
		entry.Active = true
		stats.Reactivated++
		logrus.Infof("币种 %s 重新出现在榜单中", coin.ID)
	}
	entry.LastSeen = now

	// 同一时间戳的观测不重复追加，保证幂等和时间升序
	if last := entry.LatestPoint(); last == nil || last.Timestamp.Before(now) {
		entry.Points = append(entry.Points, models.DataPoint{
			Timestamp:     now,
			Price:         coin.CurrentPrice,
			PercentChange: *coin.PercentChange1h,
			Samples:       1,
		})
		stats.Updated++
	}
}

// maintainEntry 对单个条目做不活跃标记、日均合并和淘汰，内部panic只记录警告
func (hm *HistoryManager) maintainEntry(store *storage.HistoryStore, id string, entry *models.HistoricalEntry, seenThisRun bool, now time.Time, stats *MergeStats) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Warnf("维护币种 %s 历史失败，跳过: %v", id, r)
		}
	}()

	// 不活跃标记（重复执行无副作用）
	if !seenThisRun && entry.Active && now.Sub(entry.LastSeen) > hm.inactivityThreshold {
		entry.Active = false
		stats.Deactivated++
		logrus.Infof("币种 %s 已超过 %v 未出现在榜单中，标记为不活跃", id, hm.inactivityThreshold)
	}

	stats.Consolidated += hm.consolidate(entry, now)

	// 淘汰超出保留期的数据点
	cutoff := now.Add(-hm.retentionHorizon)
	kept := entry.Points[:0]
	for _, p := range entry.Points {
		if !p.Timestamp.Before(cutoff) {
			kept = append(kept, p)
		}
	}
	entry.Points = kept

	if len(entry.Points) == 0 {
		delete(store.Entries, id)
		stats.Purged++
		logrus.Infof("币种 %s 的历史数据已全部超出保留期，整体淘汰", id)
	}
}

// dayAggregate 单个UTC日历日的聚合中间值
type dayAggregate struct {
	day       time.Time
	sumPrice  decimal.Decimal
	sumChange decimal.Decimal
	samples   int
}

// consolidate 将超龄的原始观测按UTC日历日折叠为日均值，返回被折叠的原始点数
// 日均值为算术平均；通过Samples加权合并，同一天先后分批折叠的结果
// 与一次性折叠全天原始观测一致，不会丢弃已合并的数据
func (hm *HistoryManager) consolidate(entry *models.HistoricalEntry, now time.Time) int {
	cutoff := now.Add(-hm.inactivityThreshold)

	byDay := make(map[string]*dayAggregate)
	var fresh []models.DataPoint
	folded := 0

	for _, p := range entry.Points {
		if !p.Consolidated && !p.Timestamp.Before(cutoff) {
			fresh = append(fresh, p)
			continue
		}

		day := p.Timestamp.UTC()
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		key := day.Format("2006-01-02")

		agg := byDay[key]
		if agg == nil {
			agg = &dayAggregate{day: day}
			byDay[key] = agg
		}

		n := p.Samples
		if n <= 0 {
			n = 1
		}
		weight := decimal.NewFromInt(int64(n))
		agg.sumPrice = agg.sumPrice.Add(decimal.NewFromFloat(p.Price).Mul(weight))
		agg.sumChange = agg.sumChange.Add(decimal.NewFromFloat(p.PercentChange).Mul(weight))
		agg.samples += n

		if !p.Consolidated {
			folded++
		}
	}

	if len(byDay) == 0 {
		return 0
	}

	keys := make([]string, 0, len(byDay))
	for key := range byDay {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	points := make([]models.DataPoint, 0, len(keys)+len(fresh))
	for _, key := range keys {
		agg := byDay[key]
		samples := decimal.NewFromInt(int64(agg.samples))
		points = append(points, models.DataPoint{
			Timestamp:     agg.day,
			Price:         agg.sumPrice.Div(samples).InexactFloat64(),
			PercentChange: agg.sumChange.Div(samples).InexactFloat64(),
			Consolidated:  true,
			Samples:       agg.samples,
		})
	}
	points = append(points, fresh...)
	entry.Points = points

	return folded
}
