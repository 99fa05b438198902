package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Schedule        ScheduleRepository
	ScheduleTeacher ScheduleTeacherRepository
	TimeSlot        TimeSlotRepository
	Class           ClassRepository
	Teacher         TeacherRepository

	// Atomic 在单个事务中执行 fn，fn 收到绑定到该事务的 Repository。
	// 为 nil 时 Transaction 直接在当前 Repository 上执行（单元测试中的内存仓储）。
	Atomic func(ctx context.Context, fn func(tx *Repository) error) error
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	repo := newRepositoryWithDB(db)
	repo.Atomic = func(ctx context.Context, fn func(tx *Repository) error) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(newRepositoryWithDB(tx))
		})
	}
	return repo
}

func newRepositoryWithDB(db *gorm.DB) *Repository {
	return &Repository{
		Schedule:        NewScheduleRepo(db),
		ScheduleTeacher: NewScheduleTeacherRepo(db),
		TimeSlot:        NewTimeSlotRepo(db),
		Class:           NewClassRepo(db),
		Teacher:         NewTeacherRepo(db),
	}
}

// Transaction 开启事务执行 fn：fn 返回错误时整体回滚，否则提交。
// 事务内的 Repository 再次调用 Transaction 时直接复用当前事务。
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.Atomic == nil {
		return fn(r)
	}
	return r.Atomic(ctx, fn)
}
