package dto

// ── 课表矩阵 DTO ──

// MatrixRequest 矩阵查询参数
type MatrixRequest struct {
	Level        string `form:"level"         binding:"omitempty,max=20"` // 班级名前缀，如 X / XI
	AcademicYear string `form:"academic_year" binding:"omitempty,max=9"`
}

// MatrixResponse 班级 × 星期 × 节次矩阵
type MatrixResponse struct {
	AcademicYear string       `json:"academic_year"`
	Level        string       `json:"level,omitempty"`
	Classes      []ClassBrief `json:"classes"`
	Days         []MatrixDay  `json:"days"`
}

// MatrixDay 单日
type MatrixDay struct {
	DayOfWeek int            `json:"day_of_week"`
	Periods   []MatrixPeriod `json:"periods"`
}

// MatrixPeriod 单节次，Cells 与 Classes 一一对应
type MatrixPeriod struct {
	PeriodIndex int          `json:"period_index"`
	StartTime   string       `json:"start_time"`
	EndTime     string       `json:"end_time"`
	SlotType    string       `json:"slot_type"`
	Label       string       `json:"label,omitempty"`
	Cells       []MatrixCell `json:"cells"`
}

// MatrixCell 单元格；Entry 为 null 表示可编辑的空档
type MatrixCell struct {
	ClassID string       `json:"class_id"`
	Entry   *MatrixEntry `json:"entry"`
}

// MatrixEntry 单元格内容
type MatrixEntry struct {
	ScheduleID    *string         `json:"schedule_id"` // 占位条目为 null
	IsPlaceholder bool            `json:"is_placeholder"`
	ActivityType  string          `json:"activity_type"`
	Label         string          `json:"label"`
	SubjectID     *string         `json:"subject_id,omitempty"`
	SubjectColor  string          `json:"subject_color,omitempty"`
	RoomID        *string         `json:"room_id,omitempty"`
	RoomName      string          `json:"room_name,omitempty"`
	Teachers      []MatrixTeacher `json:"teachers,omitempty"`
	IsTeamTaught  bool            `json:"is_team_taught"`
	StartTime     string          `json:"start_time"`
	EndTime       string          `json:"end_time"`
}

// MatrixTeacher 单元格教师（主讲在前）
type MatrixTeacher struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsPrimary bool   `json:"is_primary"`
}

// MatrixBatchRequest 矩阵批量编辑请求
type MatrixBatchRequest struct {
	DayOfWeek    int            `json:"day_of_week"   binding:"required,min=1,max=6"`
	AcademicYear string         `json:"academic_year" binding:"omitempty,max=9"`
	Changes      []MatrixChange `json:"changes"       binding:"required,min=1,max=500,dive"`
}

// MatrixChange 单元格变更；action 为空时按 upsert 处理
type MatrixChange struct {
	ClassID     string   `json:"class_id"     binding:"required,uuid"`
	PeriodIndex int      `json:"period_index" binding:"required,min=1,max=20"`
	SubjectID   *string  `json:"subject_id"   binding:"omitempty,uuid"`
	TeacherIDs  []string `json:"teacher_ids"  binding:"omitempty,max=10"`
	TeacherID   string   `json:"teacher_id"`
	RoomID      *string  `json:"room_id"      binding:"omitempty,uuid"`
	Action      string   `json:"action"       binding:"omitempty,oneof=upsert delete"`
}

// MatrixBatchResponse 批量编辑结果
type MatrixBatchResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}
