package model

import "time"

// 活动类型
const (
	ActivityLesson   = "lesson"
	ActivityBreak    = "break"
	ActivityCeremony = "ceremony"
	ActivityOther    = "other"
)

// 课表状态
const (
	ScheduleStatusActive   = "active"
	ScheduleStatusInactive = "inactive"
)

// Schedule 课表条目 — 对应 schedules
type Schedule struct {
	ScheduleID        string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"schedule_id"`
	ClassID           string  `gorm:"type:uuid;not null"                             json:"class_id"`
	SubjectID         *string `gorm:"type:uuid"                                      json:"subject_id,omitempty"`
	TeacherID         *string `gorm:"type:uuid"                                      json:"teacher_id,omitempty"` // 主讲教师
	RoomID            *string `gorm:"type:uuid"                                      json:"room_id,omitempty"`
	DayOfWeek         int     `gorm:"type:smallint;not null"                         json:"day_of_week"` // 1-6（周一至周六）
	PeriodIndex       *int    `gorm:"type:smallint"                                  json:"period_index,omitempty"`
	StartTime         string  `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime           string  `gorm:"type:varchar(5);not null"                       json:"end_time"`
	ActivityType      string  `gorm:"type:varchar(20);not null;default:'lesson'"     json:"activity_type"` // lesson | break | ceremony | other
	AttendanceEnabled bool    `gorm:"not null;default:true"                          json:"attendance_enabled"`
	SpecialNote       string  `gorm:"type:varchar(255);not null;default:''"          json:"special_note"`
	IsTeamTaught      bool    `gorm:"not null;default:false"                         json:"is_team_taught"`
	Status            string  `gorm:"type:varchar(10);not null;default:'active'"     json:"status"` // active | inactive
	BaseModel

	// 关联
	Class    *Class            `gorm:"foreignKey:ClassID;references:ClassID"       json:"class,omitempty"`
	Subject  *Subject          `gorm:"foreignKey:SubjectID;references:SubjectID"   json:"subject,omitempty"`
	Teacher  *Teacher          `gorm:"foreignKey:TeacherID;references:TeacherID"   json:"teacher,omitempty"`
	Room     *Room             `gorm:"foreignKey:RoomID;references:RoomID"         json:"room,omitempty"`
	Teachers []ScheduleTeacher `gorm:"foreignKey:ScheduleID"                       json:"teachers,omitempty"`
}

func (Schedule) TableName() string { return "schedules" }

// IsLesson 是否为授课类条目
func (s *Schedule) IsLesson() bool { return s.ActivityType == ActivityLesson }

// SubjectLabel 冲突提示与矩阵展示使用的名称
func (s *Schedule) SubjectLabel() string {
	if s.Subject != nil {
		return s.Subject.Name
	}
	if s.SpecialNote != "" {
		return s.SpecialNote
	}
	return s.ActivityType
}

// ScheduleTeacher 课表教师分配（团队教学） — 对应 schedule_teachers
type ScheduleTeacher struct {
	ScheduleTeacherID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"schedule_teacher_id"`
	ScheduleID        string    `gorm:"type:uuid;not null"                             json:"schedule_id"`
	TeacherID         string    `gorm:"type:uuid;not null"                             json:"teacher_id"`
	IsPrimary         bool      `gorm:"not null;default:false"                         json:"is_primary"`
	SortOrder         int       `gorm:"type:smallint;not null;default:0"               json:"sort_order"` // 录入顺序
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Teacher *Teacher `gorm:"foreignKey:TeacherID;references:TeacherID" json:"teacher,omitempty"`
}

func (ScheduleTeacher) TableName() string { return "schedule_teachers" }
