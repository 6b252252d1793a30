package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB      *gorm.DB
	Redis   *redis.Client
	AIModel string
}

// NewHealthController rdb 可为 nil
func NewHealthController(db *gorm.DB, rdb *redis.Client, aiModel string) *HealthController {
	return &HealthController{DB: db, Redis: rdb, AIModel: aiModel}
}

// HealthCheck godoc
// @Summary 健康检查
// @Description 检查数据库和缓存连接
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /healthz [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := gin.H{"database": "up", "ai": c.AIModel}

	sqlDB, err := c.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(pingCtx)
	}
	if err != nil {
		status = http.StatusServiceUnavailable
		components["database"] = "down"
	}

	if c.Redis != nil {
		components["redis"] = "up"
		// 缓存不可用时服务仍可工作
		if err := c.Redis.Ping(pingCtx).Err(); err != nil {
			components["redis"] = "down"
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	ctx.JSON(status, gin.H{"status": state, "components": components})
}
