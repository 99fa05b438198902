package service

import (
	"context"
	"fmt"

	"absenta/backend/internal/model"
	"absenta/backend/internal/repository"
)

// Placement 待检测的候选位置
type Placement struct {
	ClassID    string
	RoomID     *string
	TeacherIDs []string
	DayOfWeek  int
	StartTime  string
	EndTime    string
	ExcludeID  string // 编辑时排除自身
}

// ConflictDetector 扫描同日有效课表，检测班级、教师、教室的时间冲突
// 所有检查只返回第一处冲突，不做穷举
type ConflictDetector struct {
	schedules repository.ScheduleRepository
}

// NewConflictDetector 创建 ConflictDetector；事务中应传入事务内的仓储
func NewConflictDetector(schedules repository.ScheduleRepository) *ConflictDetector {
	return &ConflictDetector{schedules: schedules}
}

// CheckAll 按 班级 → 教师 → 教室 的固定顺序检测，返回 *ConflictError 或存储错误
func (d *ConflictDetector) CheckAll(ctx context.Context, p Placement) error {
	if c, err := d.CheckClass(ctx, p.ClassID, p.DayOfWeek, p.StartTime, p.EndTime, p.ExcludeID); err != nil {
		return err
	} else if c != nil {
		return c
	}
	if c, err := d.CheckTeacher(ctx, p.TeacherIDs, p.DayOfWeek, p.StartTime, p.EndTime, p.ExcludeID); err != nil {
		return err
	} else if c != nil {
		return c
	}
	if c, err := d.CheckRoom(ctx, p.RoomID, p.DayOfWeek, p.StartTime, p.EndTime, p.ExcludeID); err != nil {
		return err
	} else if c != nil {
		return c
	}
	return nil
}

// CheckClass 同班同日的有效授课条目
func (d *ConflictDetector) CheckClass(ctx context.Context, classID string, day int, start, end, excludeID string) (*ConflictError, error) {
	existing, err := d.schedules.ListLessonsByClassDay(ctx, classID, day, excludeID)
	if err != nil {
		return nil, err
	}
	hit := firstOverlap(existing, start, end)
	if hit == nil {
		return nil, nil
	}
	return classConflict(hit), nil
}

// CheckRoom 同教室同日的有效授课条目；未指定教室时跳过
func (d *ConflictDetector) CheckRoom(ctx context.Context, roomID *string, day int, start, end, excludeID string) (*ConflictError, error) {
	if roomID == nil || *roomID == "" {
		return nil, nil
	}
	existing, err := d.schedules.ListLessonsByRoomDay(ctx, *roomID, day, excludeID)
	if err != nil {
		return nil, err
	}
	hit := firstOverlap(existing, start, end)
	if hit == nil {
		return nil, nil
	}
	return &ConflictError{
		Type:     ConflictRoom,
		Message:  fmt.Sprintf("教室在 %s-%s 已被「%s」占用", hit.StartTime, hit.EndTime, hit.SubjectLabel()),
		Conflict: conflictingOf(hit),
	}, nil
}

// CheckTeacher 按传入顺序逐个教师检测，遇到第一位冲突教师即返回
func (d *ConflictDetector) CheckTeacher(ctx context.Context, teacherIDs []string, day int, start, end, excludeID string) (*ConflictError, error) {
	for _, teacherID := range teacherIDs {
		existing, err := d.schedules.ListByTeacherDay(ctx, teacherID, day, excludeID)
		if err != nil {
			return nil, err
		}
		if hit := firstOverlap(existing, start, end); hit != nil {
			return &ConflictError{
				Type:      ConflictTeacher,
				Message:   fmt.Sprintf("教师 %s 在 %s-%s 已有「%s」", teacherID, hit.StartTime, hit.EndTime, hit.SubjectLabel()),
				TeacherID: teacherID,
				Conflict:  conflictingOf(hit),
			}, nil
		}
	}
	return nil, nil
}

func classConflict(hit *model.Schedule) *ConflictError {
	return &ConflictError{
		Type:     ConflictClass,
		Message:  fmt.Sprintf("班级在 %s-%s 已安排「%s」", hit.StartTime, hit.EndTime, hit.SubjectLabel()),
		Conflict: conflictingOf(hit),
	}
}

func firstOverlap(schedules []model.Schedule, start, end string) *model.Schedule {
	for i := range schedules {
		if Overlaps(start, end, schedules[i].StartTime, schedules[i].EndTime) {
			return &schedules[i]
		}
	}
	return nil
}

func conflictingOf(s *model.Schedule) ConflictingSchedule {
	return ConflictingSchedule{
		ScheduleID:   s.ScheduleID,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		SubjectLabel: s.SubjectLabel(),
	}
}
