package servers

import (
	"fmt"

	"crypto_tracker/apis"
	"crypto_tracker/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type HTTPServer struct {
	engine *gin.Engine
	port   string
}

// NewHTTPServer 创建HTTP服务器
// 只读地对外提供两个产物文件，供展示层查询；不做认证
func NewHTTPServer() *HTTPServer {
	// 设置Gin模式
	if config.GlobalConfig.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()

	// 设置路由
	apis.SetupRoutes(engine, config.GlobalConfig.DataFile, config.GlobalConfig.HistoryFile)

	return &HTTPServer{
		engine: engine,
		port:   config.GlobalConfig.HTTPPort,
	}
}

// Start 启动HTTP服务器
func (s *HTTPServer) Start() {
	addr := fmt.Sprintf(":%s", s.port)
	logrus.Infof("HTTP服务器启动在端口 %s", s.port)

	if err := s.engine.Run(addr); err != nil {
		logrus.Fatalf("HTTP服务器启动失败: %v", err)
	}
}
