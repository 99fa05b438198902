package model

import "time"

// Class 班级 — 对应 classes
type Class struct {
	ClassID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_id"`
	Name      string    `gorm:"type:varchar(50);not null"                      json:"name"`  // X IPA 1
	Level     string    `gorm:"type:varchar(20);not null"                      json:"level"` // X | XI | XII
	IsActive  bool      `gorm:"not null;default:true"                          json:"is_active"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (Class) TableName() string { return "classes" }

// Subject 科目 — 对应 subjects
type Subject struct {
	SubjectID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	Name      string    `gorm:"type:varchar(100);not null"                     json:"name"`
	Code      string    `gorm:"type:varchar(20);not null"                      json:"code"`
	Color     string    `gorm:"type:varchar(9);not null;default:'#4472C4'"     json:"color"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (Subject) TableName() string { return "subjects" }

// Room 教室 — 对应 rooms
type Room struct {
	RoomID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"room_id"`
	Name      string    `gorm:"type:varchar(100);not null"                     json:"name"`
	Code      string    `gorm:"type:varchar(20);not null"                      json:"code"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (Room) TableName() string { return "rooms" }

// Teacher 教师 — 对应 teachers
type Teacher struct {
	TeacherID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_id"`
	Name      string    `gorm:"type:varchar(100);not null"                     json:"name"`
	NIP       *string   `gorm:"column:nip;type:varchar(30)"                    json:"nip,omitempty"`
	IsActive  bool      `gorm:"not null;default:true"                          json:"is_active"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (Teacher) TableName() string { return "teachers" }
