package dto

// ── 作息时间表 DTO ──

// TimeSlotListRequest 作息时间查询参数
type TimeSlotListRequest struct {
	AcademicYear string `form:"academic_year" binding:"omitempty,max=9"` // 为空时使用当前学年
	DayOfWeek    *int   `form:"day_of_week"   binding:"omitempty,min=1,max=6"`
}

// TimeSlotResponse 作息时间节次
type TimeSlotResponse struct {
	ID              string `json:"id"`
	AcademicYear    string `json:"academic_year"`
	DayOfWeek       int    `json:"day_of_week"`
	PeriodIndex     int    `json:"period_index"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	SlotType        string `json:"slot_type"`
	Label           string `json:"label,omitempty"`
}
