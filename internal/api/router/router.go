package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"absenta/backend/config"
	"absenta/backend/internal/api/handler"
	"absenta/backend/internal/api/middleware"
	"absenta/backend/internal/service"
	"absenta/backend/pkg/jwt"
	"absenta/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil：此时跳过 Token 黑名单与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── 健康检查 ──
	r.GET("/health", h.Health.Health)

	adminOnly := middleware.RoleAuth(service.RoleAdmin)
	writeLimit := middleware.RateLimit(rdb, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	{
		// 课表模块
		schedules := v1.Group("/schedules")
		{
			schedules.GET("", h.Schedule.ListSchedules)
			schedules.GET("/today", h.Schedule.GetToday)
			schedules.GET("/ical", h.Schedule.ExportICal)
			schedules.GET("/:id", h.Schedule.GetSchedule)
			schedules.POST("", adminOnly, writeLimit, h.Schedule.CreateSchedule)
			schedules.PUT("/:id", adminOnly, writeLimit, h.Schedule.UpdateSchedule)
			schedules.DELETE("/:id", adminOnly, writeLimit, h.Schedule.DeleteSchedule)

			// 团队教学
			schedules.GET("/:id/teachers", h.Schedule.ListTeachers)
			schedules.POST("/:id/teachers", adminOnly, writeLimit, h.Schedule.AddTeacher)
			schedules.DELETE("/:id/teachers/:teacherId", adminOnly, writeLimit, h.Schedule.RemoveTeacher)
		}

		// 课表矩阵（可视化编辑器）
		matrix := v1.Group("/schedule-matrix")
		{
			matrix.GET("", h.Matrix.GetMatrix)
			matrix.POST("/batch", adminOnly, writeLimit, h.Matrix.ApplyBatch)
		}

		// 作息时间表
		v1.GET("/time-slots", h.TimeSlot.ListTimeSlots)
	}

	return r
}
