package repository

import (
	"context"

	"gorm.io/gorm"

	"absenta/backend/internal/model"
)

// TimeSlotRepository 作息时间表数据访问接口（只读）
type TimeSlotRepository interface {
	List(ctx context.Context, academicYear string, dayOfWeek *int) ([]model.TimeSlotDefinition, error)
	GetByDayAndPeriod(ctx context.Context, academicYear string, dayOfWeek, periodIndex int) (*model.TimeSlotDefinition, error)
}

type timeSlotRepo struct {
	db *gorm.DB
}

// NewTimeSlotRepo 创建 TimeSlotRepository 实例
func NewTimeSlotRepo(db *gorm.DB) TimeSlotRepository {
	return &timeSlotRepo{db: db}
}

func (r *timeSlotRepo) List(ctx context.Context, academicYear string, dayOfWeek *int) ([]model.TimeSlotDefinition, error) {
	var slots []model.TimeSlotDefinition
	db := r.db.WithContext(ctx)

	if academicYear != "" {
		db = db.Where("academic_year = ?", academicYear)
	}
	if dayOfWeek != nil {
		db = db.Where("day_of_week = ?", *dayOfWeek)
	}

	err := db.Order("day_of_week ASC, period_index ASC").Find(&slots).Error
	return slots, err
}

func (r *timeSlotRepo) GetByDayAndPeriod(ctx context.Context, academicYear string, dayOfWeek, periodIndex int) (*model.TimeSlotDefinition, error) {
	var slot model.TimeSlotDefinition
	err := r.db.WithContext(ctx).
		Where("academic_year = ? AND day_of_week = ? AND period_index = ?", academicYear, dayOfWeek, periodIndex).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}
