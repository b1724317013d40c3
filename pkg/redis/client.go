package redis

import (
	"context"
	"fmt"
	"time"

	"crypto_tracker/pkg/config"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Client struct {
	rdb *redis.Client
	ctx context.Context
}

var GlobalRedisClient *Client

// InitRedis 初始化Redis客户端
// Redis在本项目中只是展示层的读缓存，未配置或连接失败都不影响主流程
func InitRedis() error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.GlobalConfig.RedisHost, config.GlobalConfig.RedisPort),
		Password: config.GlobalConfig.RedisPassword,
		DB:       config.GlobalConfig.RedisDB,
	})

	ctx := context.Background()

	// 测试连接
	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("redis连接失败: %v", err)
	}

	GlobalRedisClient = &Client{
		rdb: rdb,
		ctx: ctx,
	}

	logrus.Info("Redis连接成功")
	return nil
}

// Redis键名常量
const (
	KeyRankingLatest = "ranking:latest" // 最新榜单
	KeyHistory       = "history"        // 币种历史，history:<coin_id>
)

// Get 基础Redis操作方法
func (c *Client) Get(key string) *redis.StringCmd {
	return c.rdb.Get(c.ctx, key)
}

func (c *Client) Set(key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	return c.rdb.Set(c.ctx, key, value, expiration)
}

func (c *Client) Del(key string) *redis.IntCmd {
	return c.rdb.Del(c.ctx, key)
}
