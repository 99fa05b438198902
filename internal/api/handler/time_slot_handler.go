package handler

import (
	"github.com/gin-gonic/gin"

	"absenta/backend/internal/dto"
	"absenta/backend/internal/service"
	"absenta/backend/pkg/response"
)

// TimeSlotHandler 作息时间表 HTTP 处理器
type TimeSlotHandler struct {
	timeSlotSvc service.TimeSlotService
}

// NewTimeSlotHandler 创建 TimeSlotHandler
func NewTimeSlotHandler(timeSlotSvc service.TimeSlotService) *TimeSlotHandler {
	return &TimeSlotHandler{timeSlotSvc: timeSlotSvc}
}

// ListTimeSlots 获取作息时间表
// GET /api/v1/time-slots
func (h *TimeSlotHandler) ListTimeSlots(c *gin.Context) {
	var req dto.TimeSlotListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	slots, err := h.timeSlotSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": slots})
}
