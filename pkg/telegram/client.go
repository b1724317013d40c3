package telegram

import (
	"fmt"
	"strings"
	"time"

	"crypto_tracker/models"
	"crypto_tracker/pkg/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

type TelegramClient struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

var GlobalTelegramClient *TelegramClient

// InitTelegram 初始化Telegram客户端
// Token或ChatID未配置时跳过初始化，通知功能整体禁用
func InitTelegram() error {
	token := config.GlobalConfig.TelegramToken
	chatID := config.GlobalConfig.TelegramChatID

	if token == "" || chatID == 0 {
		logrus.Info("Telegram未配置，通知功能禁用")
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("创建Telegram Bot失败: %v", err)
	}

	GlobalTelegramClient = &TelegramClient{
		bot:    bot,
		chatID: chatID,
	}

	logrus.Infof("Telegram客户端已初始化: @%s", bot.Self.UserName)
	return nil
}

// 格式化时间为完整的年月日时间格式（UTC）
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// SendMessage 发送消息
func (t *TelegramClient) SendMessage(text string) error {
	if t == nil || t.bot == nil {
		return fmt.Errorf("Telegram客户端未初始化")
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("发送Telegram消息失败: %v", err)
	}
	return nil
}

// SendServiceStatus 发送服务状态通知
func (t *TelegramClient) SendServiceStatus(status, message string) error {
	var icon string
	switch status {
	case "ok":
		icon = "✅"
	case "error":
		icon = "🔴"
	default:
		icon = "ℹ️"
	}

	text := fmt.Sprintf("%s 行情追踪器\n%s\n时间: %s", icon, message, formatTime(time.Now()))
	return t.SendMessage(text)
}

// SendRunSummary 发送单次运行结果摘要
func (t *TelegramClient) SendRunSummary(snapshot *models.RankingSnapshot) error {
	var sb strings.Builder

	sb.WriteString("📊 涨跌幅榜单已更新\n")
	sb.WriteString(fmt.Sprintf("生成时间: %s\n", formatTime(snapshot.GeneratedAt)))

	if len(snapshot.TopGainers) > 0 {
		top := snapshot.TopGainers[0]
		sb.WriteString(fmt.Sprintf("涨幅第一: %s %+.2f%% ($%g)\n", top.Symbol, *top.PercentChange1h, top.CurrentPrice))
	}
	if len(snapshot.TopLosers) > 0 {
		bottom := snapshot.TopLosers[0]
		sb.WriteString(fmt.Sprintf("跌幅第一: %s %+.2f%% ($%g)\n", bottom.Symbol, *bottom.PercentChange1h, bottom.CurrentPrice))
	}

	return t.SendMessage(sb.String())
}
