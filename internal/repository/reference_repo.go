package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"absenta/backend/internal/model"
)

// ClassRepository 班级数据访问接口（只读）
type ClassRepository interface {
	// ListActive 按年级过滤有效班级：班级名首段等于 level（"X" 匹配 "X IPA 1"，不匹配 "XI IPA 1"）
	// level 为空时返回全部有效班级
	ListActive(ctx context.Context, level string) ([]model.Class, error)
}

// TeacherRepository 教师数据访问接口（只读）
type TeacherRepository interface {
	ListByIDs(ctx context.Context, ids []string) ([]model.Teacher, error)
}

type classRepo struct {
	db *gorm.DB
}

// NewClassRepo 创建 ClassRepository 实例
func NewClassRepo(db *gorm.DB) ClassRepository {
	return &classRepo{db: db}
}

func (r *classRepo) ListActive(ctx context.Context, level string) ([]model.Class, error) {
	var classes []model.Class
	db := r.db.WithContext(ctx).Where("is_active = ?", true)
	if level != "" {
		db = db.Where("(name = ? OR name LIKE ?)", level, escapeLike(level)+" %")
	}
	err := db.Order("name ASC").Find(&classes).Error
	return classes, err
}

type teacherRepo struct {
	db *gorm.DB
}

// NewTeacherRepo 创建 TeacherRepository 实例
func NewTeacherRepo(db *gorm.DB) TeacherRepository {
	return &teacherRepo{db: db}
}

func (r *teacherRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Teacher, error) {
	var teachers []model.Teacher
	// 非 UUID 的 ID 不可能存在，跳过查询，由调用方按缺失处理
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return teachers, nil
	}
	err := r.db.WithContext(ctx).
		Where("teacher_id IN ? AND is_active = ?", valid, true).
		Find(&teachers).Error
	return teachers, err
}

// escapeLike 转义 LIKE 通配符
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
