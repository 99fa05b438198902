package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"absenta/backend/internal/dto"
	"absenta/backend/internal/service"
	"absenta/backend/pkg/response"
)

// ScheduleHandler 课表模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// ListSchedules 课表列表（按身份过滤）
// GET /api/v1/schedules
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	var req dto.ScheduleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	identity, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, total, err := h.scheduleSvc.List(c.Request.Context(), identity, &req)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetToday 今日课表
// GET /api/v1/schedules/today
func (h *ScheduleHandler) GetToday(c *gin.Context) {
	identity, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	today, err := h.scheduleSvc.Today(c.Request.Context(), identity)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, today)
}

// ExportICal 导出每周重复的 iCalendar 订阅
// GET /api/v1/schedules/ical
func (h *ScheduleHandler) ExportICal(c *gin.Context) {
	identity, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	feed, err := h.scheduleSvc.ExportICal(c.Request.Context(), identity)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="timetable.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", feed)
}

// GetSchedule 课表详情
// GET /api/v1/schedules/:id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	id, ok := scheduleIDParam(c)
	if !ok {
		return
	}
	identity, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.GetByID(c.Request.Context(), identity, id)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// CreateSchedule 新建课表条目
// POST /api/v1/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.Created(c, schedule)
}

// UpdateSchedule 更新课表条目（教师分配整体替换）
// PUT /api/v1/schedules/:id
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	id, ok := scheduleIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// DeleteSchedule 删除课表条目
// DELETE /api/v1/schedules/:id
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id, ok := scheduleIDParam(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.Delete(c.Request.Context(), id); err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListTeachers 课表条目的教师分配
// GET /api/v1/schedules/:id/teachers
func (h *ScheduleHandler) ListTeachers(c *gin.Context) {
	id, ok := scheduleIDParam(c)
	if !ok {
		return
	}
	identity, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	teachers, err := h.scheduleSvc.ListTeachers(c.Request.Context(), identity, id)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": teachers})
}

// AddTeacher 追加协同教师
// POST /api/v1/schedules/:id/teachers
func (h *ScheduleHandler) AddTeacher(c *gin.Context) {
	id, ok := scheduleIDParam(c)
	if !ok {
		return
	}

	var req dto.AddScheduleTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	teachers, err := h.scheduleSvc.AddTeacher(c.Request.Context(), id, req.TeacherID, callerID)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.Created(c, gin.H{"list": teachers})
}

// RemoveTeacher 移除教师；移除主讲时自动改派
// DELETE /api/v1/schedules/:id/teachers/:teacherId
func (h *ScheduleHandler) RemoveTeacher(c *gin.Context) {
	if _, ok := scheduleIDParam(c); !ok {
		return
	}
	var uri dto.ScheduleTeacherURI
	if err := c.ShouldBindUri(&uri); err != nil {
		handleScheduleError(c, service.ErrAssignmentNotFound)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	teachers, err := h.scheduleSvc.RemoveTeacher(c.Request.Context(), uri.ID, uri.TeacherID, callerID)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": teachers})
}

// scheduleIDParam 绑定路径中的课表 ID；非 UUID 的 ID 不可能存在，按 404 处理
func scheduleIDParam(c *gin.Context) (string, bool) {
	var uri dto.ScheduleURI
	if err := c.ShouldBindUri(&uri); err != nil {
		handleScheduleError(c, service.ErrScheduleNotFound)
		return "", false
	}
	return uri.ID, true
}
