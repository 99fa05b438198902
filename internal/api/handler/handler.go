package handler

import "absenta/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Schedule *ScheduleHandler
	Matrix   *MatrixHandler
	TimeSlot *TimeSlotHandler
	Health   *HealthHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, checks map[string]HealthCheck) *Handler {
	return &Handler{
		Schedule: NewScheduleHandler(svc.Schedule),
		Matrix:   NewMatrixHandler(svc.Matrix),
		TimeSlot: NewTimeSlotHandler(svc.TimeSlot),
		Health:   NewHealthHandler(checks),
	}
}
