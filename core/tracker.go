package core

import (
	"context"
	"fmt"
	"time"

	"crypto_tracker/models"
	"crypto_tracker/pkg/coingecko"
	"crypto_tracker/pkg/redis"
	"crypto_tracker/pkg/storage"

	"github.com/sirupsen/logrus"
)

// ========== 运行编排 ==========

// Tracker 单次运行编排器：拉取 → 排名 → 合并历史 → 写入产物
type Tracker struct {
	client   *coingecko.Client
	history  *HistoryManager
	writer   *storage.ArtifactWriter
	topCount int
}

// NewTracker 创建运行编排器
func NewTracker(client *coingecko.Client, history *HistoryManager, writer *storage.ArtifactWriter, topCount int) *Tracker {
	return &Tracker{
		client:   client,
		history:  history,
		writer:   writer,
		topCount: topCount,
	}
}

// RunOnce 执行一次完整运行，成功时返回本次生成的榜单
// 拉取失败直接整体失败，不触碰已发布的产物；产物写入失败同样整体失败
func (t *Tracker) RunOnce(ctx context.Context) (*models.RankingSnapshot, error) {
	start := time.Now()

	observations, err := t.client.FetchMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("拉取行情失败: %w", err)
	}
	if len(observations) == 0 {
		return nil, fmt.Errorf("上游未返回任何有效币种数据")
	}
	logrus.Infof("拉取到 %d 个币种行情", len(observations))

	snapshot := BuildRankingSnapshot(observations, t.topCount, time.Now().UTC())
	logrus.Infof("榜单生成完成: 涨幅榜%d个, 跌幅榜%d个, run_id=%s",
		len(snapshot.TopGainers), len(snapshot.TopLosers), snapshot.RunID)

	// 历史存储只在运行内存在：运行开始加载，运行结束写回
	store := storage.LoadHistoryStore(t.writer.HistoryPath())
	t.history.Merge(store, snapshot, snapshot.GeneratedAt)

	if err := t.writer.WriteAll(snapshot, store); err != nil {
		return nil, fmt.Errorf("写入产物失败: %w", err)
	}

	// Redis缓存为尽力而为，失败不影响本次运行结果
	if redis.GlobalRedisClient != nil {
		if err := redis.GlobalRedisClient.PublishRun(snapshot, store.Entries); err != nil {
			logrus.Warnf("发布运行结果到Redis失败: %v", err)
		}
	}

	logrus.Infof("本次运行完成，耗时 %v", time.Since(start).Round(time.Millisecond))
	return snapshot, nil
}
