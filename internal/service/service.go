package service

import (
	"go.uber.org/zap"

	"absenta/backend/config"
	"absenta/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Schedule ScheduleService
	Matrix   MatrixService
	TimeSlot TimeSlotService
}

// NewService 创建 Service 聚合
// cache 可为 nil（Redis 不可用时矩阵直接读库）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache MatrixCache,
	logger *zap.Logger,
) *Service {
	return &Service{
		Schedule: NewScheduleService(repo, cache, &cfg.Schedule, logger),
		Matrix:   NewMatrixService(repo, cache, &cfg.Schedule, logger),
		TimeSlot: NewTimeSlotService(repo, cfg.Schedule.AcademicYear, logger),
	}
}
