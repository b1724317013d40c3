package redis

import (
	"encoding/json"
	"fmt"

	"crypto_tracker/models"

	"github.com/sirupsen/logrus"
)

// SetRankingSnapshot 缓存最新榜单
func (c *Client) SetRankingSnapshot(snapshot *models.RankingSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.rdb.Set(c.ctx, KeyRankingLatest, data, 0).Err()
}

// GetRankingSnapshot 读取缓存的最新榜单
func (c *Client) GetRankingSnapshot() (*models.RankingSnapshot, error) {
	data, err := c.rdb.Get(c.ctx, KeyRankingLatest).Result()
	if err != nil {
		return nil, err
	}

	var snapshot models.RankingSnapshot
	err = json.Unmarshal([]byte(data), &snapshot)
	return &snapshot, err
}

// SetHistoricalEntry 缓存单个币种的历史条目
func (c *Client) SetHistoricalEntry(entry *models.HistoricalEntry) error {
	key := fmt.Sprintf("%s:%s", KeyHistory, entry.CoinID)
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.rdb.Set(c.ctx, key, data, 0).Err()
}

// GetHistoricalEntry 读取缓存的币种历史条目
func (c *Client) GetHistoricalEntry(coinID string) (*models.HistoricalEntry, error) {
	key := fmt.Sprintf("%s:%s", KeyHistory, coinID)
	data, err := c.rdb.Get(c.ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var entry models.HistoricalEntry
	err = json.Unmarshal([]byte(data), &entry)
	return &entry, err
}

// PublishRun 将一次成功运行的榜单和历史整体写入缓存
// 单个币种写入失败只记录日志，继续写其余币种
func (c *Client) PublishRun(snapshot *models.RankingSnapshot, entries map[string]*models.HistoricalEntry) error {
	if err := c.SetRankingSnapshot(snapshot); err != nil {
		return fmt.Errorf("缓存榜单失败: %w", err)
	}

	failed := 0
	for id, entry := range entries {
		if err := c.SetHistoricalEntry(entry); err != nil {
			logrus.Warnf("缓存币种 %s 历史失败: %v", id, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("共 %d 个币种历史缓存失败", failed)
	}
	return nil
}
