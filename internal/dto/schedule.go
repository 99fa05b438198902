package dto

// ── 课表模块 DTO ──

// CreateScheduleRequest 创建课表条目请求
// 必填项随 activity_type 变化，由服务层校验
type CreateScheduleRequest struct {
	ClassID      string  `json:"class_id"      binding:"omitempty,uuid"`
	SubjectID    *string `json:"subject_id"    binding:"omitempty,uuid"`
	RoomID       *string `json:"room_id"       binding:"omitempty,uuid"`
	DayOfWeek    int     `json:"day_of_week"   binding:"required,min=1,max=6"`
	PeriodIndex  *int    `json:"period_index"  binding:"omitempty,min=1,max=20"`
	StartTime    string  `json:"start_time"`                                                          // "07:00"
	EndTime      string  `json:"end_time"`                                                            // "07:45"
	ActivityType string  `json:"activity_type" binding:"omitempty,oneof=lesson break ceremony other"` // 默认 lesson

	// 教师：优先 teacher_ids（首位为主讲），兼容旧版单个 teacher_id
	TeacherIDs []string `json:"teacher_ids" binding:"omitempty,max=10"`
	TeacherID  string   `json:"teacher_id"`

	AttendanceEnabled *bool  `json:"attendance_enabled"` // 默认 true
	SpecialNote       string `json:"special_note"        binding:"omitempty,max=255"`
}

// UpdateScheduleRequest 更新课表条目请求（整体替换）
type UpdateScheduleRequest struct {
	CreateScheduleRequest
	Status string `json:"status" binding:"omitempty,oneof=active inactive"`
}

// ScheduleListRequest 课表列表查询参数
type ScheduleListRequest struct {
	ClassID      string `form:"class_id"      binding:"omitempty,uuid"`
	TeacherID    string `form:"teacher_id"    binding:"omitempty,uuid"`
	DayOfWeek    *int   `form:"day_of_week"   binding:"omitempty,min=1,max=6"`
	ActivityType string `form:"activity_type" binding:"omitempty,oneof=lesson break ceremony other"`
	Status       string `form:"status"        binding:"omitempty,oneof=active inactive"`
	PaginationRequest
}

// ScheduleURI 路径参数 /schedules/:id
type ScheduleURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ScheduleTeacherURI 路径参数 /schedules/:id/teachers/:teacherId
type ScheduleTeacherURI struct {
	ID        string `uri:"id"        binding:"required,uuid"`
	TeacherID string `uri:"teacherId" binding:"required,uuid"`
}

// AddScheduleTeacherRequest 追加协同教师请求
type AddScheduleTeacherRequest struct {
	TeacherID string `json:"teacher_id" binding:"required,uuid"`
}

// ── 响应 ──

// ScheduleResponse 课表条目响应
type ScheduleResponse struct {
	ID                string                    `json:"id"`
	ClassID           string                    `json:"class_id"`
	Class             *ClassBrief               `json:"class,omitempty"`
	Subject           *SubjectBrief             `json:"subject,omitempty"`
	Room              *RoomBrief                `json:"room,omitempty"`
	PrimaryTeacherID  *string                   `json:"primary_teacher_id,omitempty"`
	Teachers          []ScheduleTeacherResponse `json:"teachers"`
	DayOfWeek         int                       `json:"day_of_week"`
	PeriodIndex       *int                      `json:"period_index,omitempty"`
	StartTime         string                    `json:"start_time"`
	EndTime           string                    `json:"end_time"`
	ActivityType      string                    `json:"activity_type"`
	AttendanceEnabled bool                      `json:"attendance_enabled"`
	SpecialNote       string                    `json:"special_note,omitempty"`
	IsTeamTaught      bool                      `json:"is_team_taught"`
	Status            string                    `json:"status"`
	CreatedAt         string                    `json:"created_at"`
	UpdatedAt         string                    `json:"updated_at"`
}

// ScheduleTeacherResponse 课表教师分配
type ScheduleTeacherResponse struct {
	TeacherID string  `json:"teacher_id"`
	Name      string  `json:"name"`
	NIP       *string `json:"nip,omitempty"`
	IsPrimary bool    `json:"is_primary"`
}

// TodayScheduleResponse 今日课表
type TodayScheduleResponse struct {
	Date      string             `json:"date"` // 2006-01-02（学校时区）
	DayOfWeek int                `json:"day_of_week"`
	Schedules []ScheduleResponse `json:"schedules"`
}

// ConflictResponse 冲突详情（409 响应的 data）
type ConflictResponse struct {
	Type         string `json:"type"` // class | teacher | room
	TeacherID    string `json:"teacher_id,omitempty"`
	ScheduleID   string `json:"schedule_id"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	SubjectLabel string `json:"subject_label"`
}

// ClassBrief 班级简要信息
type ClassBrief struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level string `json:"level"`
}

// SubjectBrief 科目简要信息
type SubjectBrief struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Code  string `json:"code"`
	Color string `json:"color"`
}

// RoomBrief 教室简要信息
type RoomBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}
