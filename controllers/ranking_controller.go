package controllers

import (
	"encoding/json"
	"net/http"
	"os"

	"crypto_tracker/models"
	"crypto_tracker/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RankingController 榜单查询控制器
// 只读地暴露两个产物文件，每次请求重新读取，保证看到的是最近一次成功运行的结果
type RankingController struct {
	dataPath    string
	historyPath string
}

// NewRankingController 创建榜单查询控制器
func NewRankingController(dataPath, historyPath string) *RankingController {
	return &RankingController{
		dataPath:    dataPath,
		historyPath: historyPath,
	}
}

// GetRankings 获取最新榜单
func (c *RankingController) GetRankings(ctx *gin.Context) {
	data, err := os.ReadFile(c.dataPath)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error": "榜单尚未生成，请先执行一次运行",
		})
		return
	}

	var snapshot models.RankingSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		logrus.Errorf("解析榜单产物失败: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error": "榜单产物损坏",
		})
		return
	}

	ctx.JSON(http.StatusOK, snapshot)
}

// GetHistory 获取全部币种历史
func (c *RankingController) GetHistory(ctx *gin.Context) {
	store := storage.LoadHistoryStore(c.historyPath)
	ctx.JSON(http.StatusOK, store.Entries)
}

// GetCoinHistory 获取单个币种历史
func (c *RankingController) GetCoinHistory(ctx *gin.Context) {
	coinID := ctx.Param("coin_id")

	store := storage.LoadHistoryStore(c.historyPath)
	entry, ok := store.Entries[coinID]
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error": "币种不存在或未被追踪",
		})
		return
	}

	ctx.JSON(http.StatusOK, entry)
}
