package apis

import (
	"crypto_tracker/controllers"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, dataPath, historyPath string) {
	// 创建控制器实例
	rankingController := controllers.NewRankingController(dataPath, historyPath)

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Crypto Tracker API is running",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 最新涨跌幅榜单与币种历史
		v1.GET("/rankings", rankingController.GetRankings)
		v1.GET("/history", rankingController.GetHistory)
		v1.GET("/history/:coin_id", rankingController.GetCoinHistory)
	}
}
