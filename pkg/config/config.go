package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// 运行模式常量
const (
	RunModeOnce  = "once"  // 执行一次完整运行后退出（默认）
	RunModeServe = "serve" // 启动只读HTTP服务，供展示层查询产物
)

type Config struct {
	// 服务配置
	LogLevel string
	RunMode  string // 运行模式: once, serve
	HTTPPort string // serve模式监听端口

	// 上游API配置
	APIBaseURL     string        // CoinGecko兼容API基础URL
	VsCurrency     string        // 计价货币
	PerPage        int           // 按市值拉取的币种数量
	RequestTimeout time.Duration // 单次请求超时
	MaxRetries     int           // 重试次数上限

	// 榜单配置
	TopCount int // 涨跌幅榜长度

	// 历史数据配置
	InactivityThreshold time.Duration // 超过该时长未出现在榜单则标记为不活跃，同时触发日均合并
	RetentionHorizon    time.Duration // 历史数据保留上限，超过则淘汰
	DataFile            string        // 榜单产物路径
	HistoryFile         string        // 历史产物路径

	// Redis配置（可选，RedisHost为空则禁用）
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Telegram配置（可选，Token为空则禁用）
	TelegramToken  string
	TelegramChatID int64
}

var GlobalConfig *Config

func LoadConfig() {
	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		logrus.Warn("未找到.env文件，使用环境变量")
	}

	GlobalConfig = &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		RunMode:  getEnv("RUN_MODE", RunModeOnce),
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		APIBaseURL:     getEnv("API_BASE_URL", "https://api.coingecko.com/api/v3"),
		VsCurrency:     getEnv("VS_CURRENCY", "usd"),
		PerPage:        getEnvInt("PER_PAGE", 250),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", "30s"),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		TopCount: getEnvInt("TOP_COUNT", 10),

		InactivityThreshold: getEnvDuration("INACTIVITY_THRESHOLD", "48h"),
		RetentionHorizon:    getEnvDuration("RETENTION_HORIZON", "240h"), // 10天
		DataFile:            getEnv("DATA_FILE", "crypto_data.json"),
		HistoryFile:         getEnv("HISTORY_FILE", "crypto_history.json"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		TelegramToken:  getEnv("TELEGRAM_TOKEN", ""),
		TelegramChatID: getEnvInt64("TELEGRAM_CHAT_ID", 0),
	}

	// 设置日志级别
	level, err := logrus.ParseLevel(GlobalConfig.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	logrus.Info("配置加载完成")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.Warnf("无法解析环境变量 %s 的时间间隔值: %s，使用默认值: %s", key, value, defaultValue)
	}

	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}

	logrus.Errorf("无法解析默认时间间隔值: %s，使用30秒", defaultValue)
	return 30 * time.Second
}
