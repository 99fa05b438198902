package repository

import (
	"context"

	"gorm.io/gorm"

	"absenta/backend/internal/model"
)

// ScheduleTeacherRepository 课表教师分配数据访问接口
type ScheduleTeacherRepository interface {
	BatchCreate(ctx context.Context, assignments []model.ScheduleTeacher) error
	Create(ctx context.Context, assignment *model.ScheduleTeacher) error
	// ListBySchedule 按主讲优先、录入顺序返回
	ListBySchedule(ctx context.Context, scheduleID string) ([]model.ScheduleTeacher, error)
	Delete(ctx context.Context, scheduleID, teacherID string) error
	DeleteBySchedule(ctx context.Context, scheduleID string) error
	// SetPrimary 将指定教师设为主讲，同时清除该课表其余教师的主讲标记
	SetPrimary(ctx context.Context, scheduleID, teacherID string) error
}

type scheduleTeacherRepo struct {
	db *gorm.DB
}

// NewScheduleTeacherRepo 创建 ScheduleTeacherRepository 实例
func NewScheduleTeacherRepo(db *gorm.DB) ScheduleTeacherRepository {
	return &scheduleTeacherRepo{db: db}
}

func (r *scheduleTeacherRepo) BatchCreate(ctx context.Context, assignments []model.ScheduleTeacher) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Teacher").Create(&assignments).Error
}

func (r *scheduleTeacherRepo) Create(ctx context.Context, assignment *model.ScheduleTeacher) error {
	return r.db.WithContext(ctx).Omit("Teacher").Create(assignment).Error
}

func (r *scheduleTeacherRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]model.ScheduleTeacher, error) {
	var assignments []model.ScheduleTeacher
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("schedule_id = ?", scheduleID).
		Order("is_primary DESC, sort_order ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *scheduleTeacherRepo) Delete(ctx context.Context, scheduleID, teacherID string) error {
	return r.db.WithContext(ctx).
		Where("schedule_id = ? AND teacher_id = ?", scheduleID, teacherID).
		Delete(&model.ScheduleTeacher{}).Error
}

func (r *scheduleTeacherRepo) DeleteBySchedule(ctx context.Context, scheduleID string) error {
	return r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Delete(&model.ScheduleTeacher{}).Error
}

func (r *scheduleTeacherRepo) SetPrimary(ctx context.Context, scheduleID, teacherID string) error {
	// 先清除再设置，避免触发 uq_schedule_teachers_primary
	if err := r.db.WithContext(ctx).
		Model(&model.ScheduleTeacher{}).
		Where("schedule_id = ? AND is_primary = ?", scheduleID, true).
		Update("is_primary", false).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&model.ScheduleTeacher{}).
		Where("schedule_id = ? AND teacher_id = ?", scheduleID, teacherID).
		Update("is_primary", true).Error
}
