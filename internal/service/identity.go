package service

import (
	"absenta/backend/internal/model"
	"absenta/backend/internal/repository"
)

// 角色
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Identity 请求方身份，由认证中间件从 Token 解析
type Identity struct {
	UserID    string
	Role      string
	TeacherID string // 仅教师
	ClassID   string // 仅学生
}

// scope 将身份约束合并进查询条件
// 返回 false 表示该身份不可见任何课表（如未绑定教师档案的教师账号）
func (i Identity) scope(f repository.ScheduleFilter) (repository.ScheduleFilter, bool) {
	switch i.Role {
	case RoleAdmin:
		return f, true
	case RoleTeacher:
		if i.TeacherID == "" {
			return f, false
		}
		f.TeacherID = i.TeacherID
		return f, true
	case RoleStudent:
		if i.ClassID == "" {
			return f, false
		}
		f.ClassID = i.ClassID
		return f, true
	default:
		return f, false
	}
}

// canSee 单条读取的可见性，与 scope 的过滤口径一致
func (i Identity) canSee(s *model.Schedule) bool {
	switch i.Role {
	case RoleAdmin:
		return true
	case RoleTeacher:
		if i.TeacherID == "" {
			return false
		}
		if s.TeacherID != nil && *s.TeacherID == i.TeacherID {
			return true
		}
		for _, a := range s.Teachers {
			if a.TeacherID == i.TeacherID {
				return true
			}
		}
		return false
	case RoleStudent:
		return i.ClassID != "" && s.ClassID == i.ClassID
	default:
		return false
	}
}
