package model

// TimeSlotDefinition 作息时间表 — 对应 time_slot_definitions（只读参考数据）
type TimeSlotDefinition struct {
	TimeSlotID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"time_slot_id"`
	AcademicYear    string `gorm:"type:varchar(9);not null"                       json:"academic_year"` // 2025/2026
	DayOfWeek       int    `gorm:"type:smallint;not null"                         json:"day_of_week"`   // 1-6
	PeriodIndex     int    `gorm:"type:smallint;not null"                         json:"period_index"`
	StartTime       string `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime         string `gorm:"type:varchar(5);not null"                       json:"end_time"`
	DurationMinutes int    `gorm:"type:smallint;not null"                         json:"duration_minutes"`
	SlotType        string `gorm:"type:varchar(20);not null;default:'lesson'"     json:"slot_type"` // lesson | break | ceremony | other
	Label           string `gorm:"type:varchar(50);not null;default:''"           json:"label"`
}

// TableName 指定表名
func (TimeSlotDefinition) TableName() string { return "time_slot_definitions" }

// IsLesson 是否为授课节次
func (t *TimeSlotDefinition) IsLesson() bool { return t.SlotType == ActivityLesson }
