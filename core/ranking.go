package core

import (
	"sort"
	"time"

	"crypto_tracker/models"

	"github.com/google/uuid"
)

// ========== 涨跌幅榜单引擎 ==========

// BuildRankingSnapshot 从本次运行的观测数据生成涨跌幅榜单
// 缺失1小时涨跌幅的币种不参与排名；排序使用稳定排序，
// 涨跌幅相同时保持上游的市值排序
func BuildRankingSnapshot(observations []models.CoinObservation, topCount int, now time.Time) *models.RankingSnapshot {
	// 过滤缺失涨跌幅的币种
	valid := make([]models.CoinObservation, 0, len(observations))
	for i := range observations {
		if observations[i].PercentChange1h != nil {
			valid = append(valid, observations[i])
		}
	}

	gainers := make([]models.CoinObservation, len(valid))
	copy(gainers, valid)
	sort.SliceStable(gainers, func(i, j int) bool {
		return *gainers[i].PercentChange1h > *gainers[j].PercentChange1h
	})

	losers := make([]models.CoinObservation, len(valid))
	copy(losers, valid)
	sort.SliceStable(losers, func(i, j int) bool {
		return *losers[i].PercentChange1h < *losers[j].PercentChange1h
	})

	if len(gainers) > topCount {
		gainers = gainers[:topCount]
	}
	if len(losers) > topCount {
		losers = losers[:topCount]
	}

	return &models.RankingSnapshot{
		GeneratedAt: now.UTC(),
		RunID:       uuid.NewString(),
		TopGainers:  gainers,
		TopLosers:   losers,
	}
}

// RankedCoins 返回榜单中出现的所有币种（去重，一个币种可能同时上涨幅榜和跌幅榜）
func RankedCoins(snapshot *models.RankingSnapshot) []models.CoinObservation {
	seen := make(map[string]bool, len(snapshot.TopGainers)+len(snapshot.TopLosers))
	coins := make([]models.CoinObservation, 0, len(snapshot.TopGainers)+len(snapshot.TopLosers))

	for _, list := range [][]models.CoinObservation{snapshot.TopGainers, snapshot.TopLosers} {
		for i := range list {
			if seen[list[i].ID] {
				continue
			}
			seen[list[i].ID] = true
			coins = append(coins, list[i])
		}
	}
	return coins
}
