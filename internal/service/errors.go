package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ── 课表模块业务错误 ──

var (
	ErrInvalidTimeFormat      = errors.New("时间格式无效，应为 HH:MM")
	ErrInvalidTimeOrder       = errors.New("结束时间必须晚于开始时间")
	ErrScheduleNotFound       = errors.New("课表条目不存在")
	ErrAssignmentNotFound     = errors.New("该教师未分配到此课表")
	ErrDuplicateAssignment    = errors.New("该教师已分配到此课表")
	ErrLastTeacher            = errors.New("授课条目至少保留一名教师")
	ErrInvalidReference       = errors.New("引用的班级、科目或教室不存在")
	ErrCalendarNotInitialized = errors.New("作息时间表尚未初始化")
	ErrTimeSlotUndefined      = errors.New("作息时间表中未定义该节次")

	// 冲突分类，配合 *ConflictError 使用 errors.Is 判断
	ErrClassConflict   = errors.New("班级时间冲突")
	ErrTeacherConflict = errors.New("教师时间冲突")
	ErrRoomConflict    = errors.New("教室时间冲突")
)

// RequiredFieldError 按活动类型缺少必填字段
type RequiredFieldError struct {
	Field string
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf("缺少必填字段: %s", e.Field)
}

// MissingTeacherError 列出全部不存在（或已停用）的教师 ID
type MissingTeacherError struct {
	IDs []string
}

func (e *MissingTeacherError) Error() string {
	return fmt.Sprintf("教师不存在: %s", strings.Join(e.IDs, ", "))
}

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictClass   ConflictType = "class"
	ConflictTeacher ConflictType = "teacher"
	ConflictRoom    ConflictType = "room"
)

// ConflictingSchedule 与候选条目冲突的已有条目
type ConflictingSchedule struct {
	ScheduleID   string
	StartTime    string
	EndTime      string
	SubjectLabel string
}

// ConflictError 时间资源冲突
type ConflictError struct {
	Type      ConflictType
	Message   string
	TeacherID string // 仅教师冲突
	Conflict  ConflictingSchedule
}

func (e *ConflictError) Error() string { return e.Message }

// Unwrap 返回冲突分类哨兵
func (e *ConflictError) Unwrap() error {
	switch e.Type {
	case ConflictTeacher:
		return ErrTeacherConflict
	case ConflictRoom:
		return ErrRoomConflict
	default:
		return ErrClassConflict
	}
}

// StorageError 持久化失败；对外只暴露关联 ID
type StorageError struct {
	CorrelationID string
	Err           error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("存储错误 [%s]: %v", e.CorrelationID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// storageError 记录日志并包装为 StorageError；已是业务错误的直接返回
func storageError(logger *zap.Logger, msg string, err error, fields ...zap.Field) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	id := uuid.NewString()
	fields = append(fields, zap.String("correlation_id", id), zap.Error(err))
	logger.Error(msg, fields...)
	return &StorageError{CorrelationID: id, Err: err}
}

// isDomainError 判断是否为本模块定义的业务错误
func isDomainError(err error) bool {
	var (
		reqErr     *RequiredFieldError
		missingErr *MissingTeacherError
		conflict   *ConflictError
		storeErr   *StorageError
	)
	switch {
	case errors.As(err, &reqErr), errors.As(err, &missingErr),
		errors.As(err, &conflict), errors.As(err, &storeErr):
		return true
	}
	for _, sentinel := range []error{
		ErrInvalidTimeFormat, ErrInvalidTimeOrder, ErrScheduleNotFound,
		ErrAssignmentNotFound, ErrDuplicateAssignment, ErrLastTeacher,
		ErrInvalidReference, ErrCalendarNotInitialized, ErrTimeSlotUndefined,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
