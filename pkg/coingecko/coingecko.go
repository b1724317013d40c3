package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crypto_tracker/models"

	"github.com/sirupsen/logrus"
)

// ========== CoinGecko 行情客户端 ==========

const DefaultUserAgent = "crypto-tracker/1.0"

// Config 客户端配置
type Config struct {
	BaseURL    string        // API基础URL
	VsCurrency string        // 计价货币
	PerPage    int           // 按市值拉取的币种数量（1-250）
	Timeout    time.Duration // 单次请求超时
	MaxRetries int           // 重试次数上限
	RetryDelay time.Duration // 退避基础延迟
	MaxDelay   time.Duration // 退避最大延迟
}

// DefaultConfig 创建默认配置
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://api.coingecko.com/api/v3",
		VsCurrency: "usd",
		PerPage:    250,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Second,
		MaxDelay:   60 * time.Second,
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("BaseURL不能为空")
	}
	if c.PerPage < 1 || c.PerPage > 250 {
		return fmt.Errorf("PerPage必须在1-250之间: %d", c.PerPage)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MaxRetries不能为负数: %d", c.MaxRetries)
	}
	return nil
}

// Client CoinGecko行情客户端
type Client struct {
	config     *Config
	httpClient *http.Client
}

// New 创建新的CoinGecko客户端实例
func New(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = 60 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// marketTicker 上游/coins/markets接口的原始记录
// 数值字段保持指针类型，缺失时跳过该记录而不是吞掉零值
type marketTicker struct {
	ID              string   `json:"id"`
	Symbol          string   `json:"symbol"`
	Name            string   `json:"name"`
	Image           string   `json:"image"`
	CurrentPrice    *float64 `json:"current_price"`
	PercentChange1h *float64 `json:"price_change_percentage_1h_in_currency"`
	MarketCapRank   int      `json:"market_cap_rank"`
	LastUpdated     string   `json:"last_updated"`
}

// FetchMarkets 按市值拉取币种行情（含1小时涨跌幅）
// 可重试错误（网络错误、超时、429、5xx）按指数退避重试，重试预算耗尽后整体失败
func (c *Client) FetchMarkets(ctx context.Context) ([]models.CoinObservation, error) {
	var result []models.CoinObservation

	operation := func() error {
		observations, err := c.doFetch(ctx)
		if err != nil {
			return err
		}
		result = observations
		return nil
	}

	if err := c.retryWithBackoff(ctx, operation); err != nil {
		return nil, err
	}
	return result, nil
}

// doFetch 执行单次请求并解析响应
func (c *Client) doFetch(ctx context.Context) ([]models.CoinObservation, error) {
	endpoint := fmt.Sprintf("%s/coins/markets", strings.TrimRight(c.config.BaseURL, "/"))

	params := url.Values{}
	params.Set("vs_currency", c.config.VsCurrency)
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(c.config.PerPage))
	params.Set("page", "1")
	params.Set("sparkline", "false")
	params.Set("price_change_percentage", "1h")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, NewBadRequest(fmt.Sprintf("构建请求失败: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, NewRequestTimeout(fmt.Sprintf("请求超时: %v", err))
		}
		return nil, NewNetworkError(fmt.Sprintf("请求失败: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return nil, errorFromStatus(resp.StatusCode, resp.Status, retryAfter)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError(fmt.Sprintf("读取响应失败: %v", err))
	}

	var tickers []marketTicker
	if err := json.Unmarshal(body, &tickers); err != nil {
		return nil, NewBadRequest(fmt.Sprintf("解析响应失败: %v", err))
	}

	return c.normalize(tickers), nil
}

// normalize 将上游原始记录转换为观测数据，跳过不完整的记录
func (c *Client) normalize(tickers []marketTicker) []models.CoinObservation {
	observations := make([]models.CoinObservation, 0, len(tickers))
	skipped := 0

	for i := range tickers {
		t := &tickers[i]
		if t.ID == "" || t.CurrentPrice == nil {
			skipped++
			logrus.Warnf("跳过不完整的币种记录: id=%q symbol=%q", t.ID, t.Symbol)
			continue
		}

		obs := models.CoinObservation{
			ID:              t.ID,
			Symbol:          strings.ToUpper(t.Symbol),
			Name:            t.Name,
			Image:           t.Image,
			CurrentPrice:    *t.CurrentPrice,
			PercentChange1h: t.PercentChange1h,
			MarketCapRank:   t.MarketCapRank,
		}

		// 上游时间戳解析失败不致命，保留零值
		if t.LastUpdated != "" {
			if ts, err := time.Parse(time.RFC3339, t.LastUpdated); err == nil {
				obs.LastUpdated = ts.UTC()
			}
		}

		observations = append(observations, obs)
	}

	if skipped > 0 {
		logrus.Warnf("本次拉取跳过 %d 条不完整记录", skipped)
	}
	return observations
}

// calculateBackoffDelay 计算退避延迟
func (c *Client) calculateBackoffDelay(attempt int) time.Duration {
	// 指数退避：RetryDelay * 2^attempt
	delay := time.Duration(float64(c.config.RetryDelay) * math.Pow(2, float64(attempt)))

	// 限制最大延迟
	if delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}

	// 添加随机抖动以避免惊群效应
	if attempt > 0 {
		jitterRange := float64(delay) * 0.1                // 10%的抖动范围
		jitter := (rand.Float64() - 0.5) * 2 * jitterRange // -10% 到 +10%
		delay = time.Duration(float64(delay) + jitter)

		if delay < 0 {
			delay = c.config.RetryDelay
		}
	}

	return delay
}

// retryWithBackoff 执行带指数退避的重试
func (c *Client) retryWithBackoff(ctx context.Context, operation func() error) error {
	if c.config.MaxRetries == 0 {
		return operation()
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			return nil // 成功
		}

		// 不应重试的错误直接返回
		if !IsRetryable(lastErr) {
			return lastErr
		}

		// 最后一次尝试失败，不再重试
		if attempt >= c.config.MaxRetries {
			break
		}

		// 限流错误优先采用上游指定的等待时间
		backoffDelay := c.calculateBackoffDelay(attempt)
		if retryAfter := GetRetryDelay(lastErr); retryAfter > 0 {
			backoffDelay = time.Duration(retryAfter) * time.Second
		}

		logrus.Warnf("拉取行情失败(第%d次): %v，%v后重试", attempt+1, lastErr, backoffDelay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffDelay):
			// 继续下一次重试
		}
	}

	return fmt.Errorf("operation failed after %d retries: %w", c.config.MaxRetries, lastErr)
}
