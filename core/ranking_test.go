package core_test

import (
	"fmt"
	"testing"
	"time"

	"crypto_tracker/core"
	"crypto_tracker/models"
)

func fptr(v float64) *float64 {
	return &v
}

func makeObservation(id string, rank int, change *float64) models.CoinObservation {
	return models.CoinObservation{
		ID:              id,
		Symbol:          id,
		Name:            id,
		CurrentPrice:    100,
		PercentChange1h: change,
		MarketCapRank:   rank,
	}
}

// ========== 榜单引擎测试 ==========

func TestRankingElevenCoins(t *testing.T) {
	// 11个币种，涨跌幅为-5%..+5%互不相同
	var observations []models.CoinObservation
	for i := 0; i <= 10; i++ {
		change := float64(i) - 5
		observations = append(observations, makeObservation(fmt.Sprintf("coin-%d", i), i+1, fptr(change)))
	}

	snapshot := core.BuildRankingSnapshot(observations, 10, time.Now())

	if len(snapshot.TopGainers) != 10 {
		t.Fatalf("涨幅榜长度错误: 期望 10, 实际 %d", len(snapshot.TopGainers))
	}
	if len(snapshot.TopLosers) != 10 {
		t.Fatalf("跌幅榜长度错误: 期望 10, 实际 %d", len(snapshot.TopLosers))
	}

	// 涨幅榜降序，跌幅最大的一个被排除
	for i := 1; i < len(snapshot.TopGainers); i++ {
		if *snapshot.TopGainers[i-1].PercentChange1h < *snapshot.TopGainers[i].PercentChange1h {
			t.Errorf("涨幅榜未按降序排列: 位置%d", i)
		}
	}
	for _, coin := range snapshot.TopGainers {
		if coin.ID == "coin-0" {
			t.Error("跌幅最大的币种不应出现在涨幅榜中")
		}
	}

	// 跌幅榜升序，涨幅最大的一个被排除
	for i := 1; i < len(snapshot.TopLosers); i++ {
		if *snapshot.TopLosers[i-1].PercentChange1h > *snapshot.TopLosers[i].PercentChange1h {
			t.Errorf("跌幅榜未按升序排列: 位置%d", i)
		}
	}
	for _, coin := range snapshot.TopLosers {
		if coin.ID == "coin-10" {
			t.Error("涨幅最大的币种不应出现在跌幅榜中")
		}
	}

	if snapshot.RunID == "" {
		t.Error("RunID不应为空")
	}
}

func TestRankingExcludesMissingChange(t *testing.T) {
	observations := []models.CoinObservation{
		makeObservation("bitcoin", 1, fptr(1.5)),
		makeObservation("no-data", 2, nil),
		makeObservation("ethereum", 3, fptr(-0.8)),
	}

	snapshot := core.BuildRankingSnapshot(observations, 10, time.Now())

	if len(snapshot.TopGainers) != 2 || len(snapshot.TopLosers) != 2 {
		t.Fatalf("缺失涨跌幅的币种应被排除: 涨幅榜%d 跌幅榜%d", len(snapshot.TopGainers), len(snapshot.TopLosers))
	}
	for _, coin := range append(snapshot.TopGainers, snapshot.TopLosers...) {
		if coin.ID == "no-data" {
			t.Error("缺失涨跌幅的币种不应参与排名")
		}
	}
}

func TestRankingTieBreakKeepsMarketCapOrder(t *testing.T) {
	// 涨跌幅相同时保持上游的市值排序
	observations := []models.CoinObservation{
		makeObservation("bitcoin", 1, fptr(2.0)),
		makeObservation("ethereum", 2, fptr(2.0)),
		makeObservation("solana", 3, fptr(2.0)),
	}

	snapshot := core.BuildRankingSnapshot(observations, 10, time.Now())

	expected := []string{"bitcoin", "ethereum", "solana"}
	for i, id := range expected {
		if snapshot.TopGainers[i].ID != id {
			t.Errorf("涨幅榜位置%d错误: 期望 %s, 实际 %s", i, id, snapshot.TopGainers[i].ID)
		}
		if snapshot.TopLosers[i].ID != id {
			t.Errorf("跌幅榜位置%d错误: 期望 %s, 实际 %s", i, id, snapshot.TopLosers[i].ID)
		}
	}
}

func TestRankedCoinsDeduplicates(t *testing.T) {
	// 币种总数少于榜单长度时，同一币种会同时出现在两个榜单中
	observations := []models.CoinObservation{
		makeObservation("bitcoin", 1, fptr(1.0)),
		makeObservation("ethereum", 2, fptr(-1.0)),
		makeObservation("solana", 3, fptr(0.5)),
	}

	snapshot := core.BuildRankingSnapshot(observations, 10, time.Now())
	coins := core.RankedCoins(snapshot)

	if len(coins) != 3 {
		t.Fatalf("去重后的榜单币种数量错误: 期望 3, 实际 %d", len(coins))
	}
}
