package main

import (
	"context"
	"fmt"
	"os"

	"crypto_tracker/core"
	"crypto_tracker/pkg/coingecko"
	"crypto_tracker/pkg/config"
	"crypto_tracker/pkg/redis"
	"crypto_tracker/pkg/storage"
	"crypto_tracker/pkg/telegram"
	"crypto_tracker/servers"

	"github.com/sirupsen/logrus"
)

func main() {
	// 设置日志级别
	logrus.SetLevel(logrus.InfoLevel)
	logrus.Info("启动行情追踪器...")

	// 加载配置
	config.LoadConfig()

	// 初始化Telegram客户端（可选）
	if err := telegram.InitTelegram(); err != nil {
		logrus.Errorf("Telegram init fail: %v", err)
	}

	// 初始化Redis（可选，仅作展示层缓存）
	if config.GlobalConfig.RedisHost != "" {
		if err := redis.InitRedis(); err != nil {
			logrus.Warnf("Redis初始化失败，本次运行不写缓存: %v", err)
		}
	}

	// serve模式：只读HTTP服务，供展示层查询产物
	if config.GlobalConfig.RunMode == config.RunModeServe {
		server := servers.NewHTTPServer()
		server.Start()
		return
	}

	// 默认模式：执行一次完整运行后退出
	if err := runOnce(); err != nil {
		logrus.Errorf("本次运行失败: %v", err)
		if telegram.GlobalTelegramClient != nil {
			if notifyErr := telegram.GlobalTelegramClient.SendServiceStatus("error", fmt.Sprintf("运行失败\n错误: %v", err)); notifyErr != nil {
				logrus.Errorf("发送失败通知失败: %v", notifyErr)
			}
		}
		os.Exit(1)
	}

	logrus.Info("行情追踪器运行完成!")
}

// runOnce 组装依赖并执行一次完整运行
func runOnce() error {
	cfg := config.GlobalConfig

	clientConfig := coingecko.DefaultConfig()
	clientConfig.BaseURL = cfg.APIBaseURL
	clientConfig.VsCurrency = cfg.VsCurrency
	clientConfig.PerPage = cfg.PerPage
	clientConfig.Timeout = cfg.RequestTimeout
	clientConfig.MaxRetries = cfg.MaxRetries

	client, err := coingecko.New(clientConfig)
	if err != nil {
		return fmt.Errorf("创建CoinGecko客户端失败: %w", err)
	}

	tracker := core.NewTracker(
		client,
		core.NewHistoryManager(cfg.InactivityThreshold, cfg.RetentionHorizon),
		storage.NewArtifactWriter(cfg.DataFile, cfg.HistoryFile),
		cfg.TopCount,
	)

	snapshot, err := tracker.RunOnce(context.Background())
	if err != nil {
		return err
	}

	// 成功后发送摘要通知（可选）
	if telegram.GlobalTelegramClient != nil {
		if notifyErr := telegram.GlobalTelegramClient.SendRunSummary(snapshot); notifyErr != nil {
			logrus.Warnf("发送运行摘要失败: %v", notifyErr)
		}
	}

	return nil
}
