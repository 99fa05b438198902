package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"absenta/backend/config"
	"absenta/backend/internal/dto"
	"absenta/backend/internal/model"
	"absenta/backend/internal/repository"
	pkgerrors "absenta/backend/pkg/errors"
)

// 批量编辑动作
const (
	MatrixActionUpsert = "upsert"
	MatrixActionDelete = "delete"
)

// BatchChangeError 标记批量编辑中失败的变更序号，Unwrap 返回原始错误
type BatchChangeError struct {
	Index int
	Err   error
}

func (e *BatchChangeError) Error() string {
	return fmt.Sprintf("第 %d 项变更失败: %v", e.Index+1, e.Err)
}

func (e *BatchChangeError) Unwrap() error { return e.Err }

// MatrixService 课表矩阵业务接口（可视化编辑器）
type MatrixService interface {
	// Build 班级 × 星期 × 节次投影，每个键恰好一个单元格
	Build(ctx context.Context, req *dto.MatrixRequest) (*dto.MatrixResponse, error)
	// ApplyBatch 单事务顺序应用单元格变更，全部成功或全部回滚
	ApplyBatch(ctx context.Context, req *dto.MatrixBatchRequest, callerID string) (*dto.MatrixBatchResponse, error)
}

type matrixService struct {
	repo         *repository.Repository
	cache        MatrixCache
	academicYear string
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewMatrixService 创建 MatrixService 实例
func NewMatrixService(repo *repository.Repository, cache MatrixCache, cfg *config.ScheduleConfig, logger *zap.Logger) MatrixService {
	return &matrixService{
		repo:         repo,
		cache:        cache,
		academicYear: cfg.AcademicYear,
		cacheTTL:     cfg.MatrixCacheTTL,
		logger:       logger,
	}
}

// ════════════════════════════════════════════════════════════
// Build
// ════════════════════════════════════════════════════════════

type cellKey struct {
	classID string
	day     int
	period  int
}

func (s *matrixService) Build(ctx context.Context, req *dto.MatrixRequest) (*dto.MatrixResponse, error) {
	year := s.yearOrDefault(req.AcademicYear)
	level := strings.TrimSpace(req.Level)

	cacheKey, cached := s.fromCache(ctx, year, level)
	if cached != nil {
		return cached, nil
	}

	slots, err := s.repo.TimeSlot.List(ctx, year, nil)
	if err != nil {
		return nil, storageError(s.logger, "查询作息时间失败", err, zap.String("academic_year", year))
	}
	if len(slots) == 0 {
		return nil, ErrCalendarNotInitialized
	}

	classes, err := s.repo.Class.ListActive(ctx, level)
	if err != nil {
		return nil, storageError(s.logger, "查询班级失败", err)
	}

	classIDs := make([]string, 0, len(classes))
	for _, c := range classes {
		classIDs = append(classIDs, c.ClassID)
	}
	schedules, err := s.repo.Schedule.ListActiveByClasses(ctx, classIDs)
	if err != nil {
		return nil, storageError(s.logger, "查询课表失败", err)
	}

	// 同一单元格理论上只有一条有效条目；若有残留，取最近更新的一条
	byCell := make(map[cellKey]*model.Schedule, len(schedules))
	for i := range schedules {
		sch := &schedules[i]
		if sch.PeriodIndex == nil {
			continue
		}
		key := cellKey{sch.ClassID, sch.DayOfWeek, *sch.PeriodIndex}
		if prev, ok := byCell[key]; !ok || sch.UpdatedAt.After(prev.UpdatedAt) {
			byCell[key] = sch
		}
	}

	resp := &dto.MatrixResponse{
		AcademicYear: year,
		Level:        level,
		Classes:      make([]dto.ClassBrief, 0, len(classes)),
		Days:         []dto.MatrixDay{},
	}
	for _, c := range classes {
		resp.Classes = append(resp.Classes, dto.ClassBrief{ID: c.ClassID, Name: c.Name, Level: c.Level})
	}

	type slotKey struct{ day, period int }
	seen := make(map[slotKey]struct{}, len(slots))
	dayIndex := make(map[int]int)
	for i := range slots {
		slot := &slots[i]
		if _, dup := seen[slotKey{slot.DayOfWeek, slot.PeriodIndex}]; dup {
			continue
		}
		seen[slotKey{slot.DayOfWeek, slot.PeriodIndex}] = struct{}{}

		idx, ok := dayIndex[slot.DayOfWeek]
		if !ok {
			resp.Days = append(resp.Days, dto.MatrixDay{DayOfWeek: slot.DayOfWeek, Periods: []dto.MatrixPeriod{}})
			idx = len(resp.Days) - 1
			dayIndex[slot.DayOfWeek] = idx
		}

		period := dto.MatrixPeriod{
			PeriodIndex: slot.PeriodIndex,
			StartTime:   slot.StartTime,
			EndTime:     slot.EndTime,
			SlotType:    slot.SlotType,
			Label:       slot.Label,
			Cells:       make([]dto.MatrixCell, 0, len(classes)),
		}
		for _, c := range classes {
			cell := dto.MatrixCell{ClassID: c.ClassID}
			if sch, ok := byCell[cellKey{c.ClassID, slot.DayOfWeek, slot.PeriodIndex}]; ok {
				cell.Entry = toMatrixEntry(sch)
			} else if !slot.IsLesson() {
				cell.Entry = placeholderEntry(slot)
			}
			period.Cells = append(period.Cells, cell)
		}
		resp.Days[idx].Periods = append(resp.Days[idx].Periods, period)
	}

	s.toCache(ctx, cacheKey, resp)
	return resp, nil
}

// fromCache 返回缓存键与命中结果；缓存不可用时键为空
func (s *matrixService) fromCache(ctx context.Context, year, level string) (string, *dto.MatrixResponse) {
	if s.cache == nil {
		return "", nil
	}
	gen, err := s.cache.MatrixGeneration(ctx)
	if err != nil {
		s.logger.Warn("读取矩阵缓存代数失败", zap.Error(err))
		return "", nil
	}
	key := fmt.Sprintf("%d:%s:%s", gen, year, level)

	var cached dto.MatrixResponse
	hit, err := s.cache.GetMatrix(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("读取矩阵缓存失败", zap.String("key", key), zap.Error(err))
		return key, nil
	}
	if !hit {
		return key, nil
	}
	return key, &cached
}

func (s *matrixService) toCache(ctx context.Context, key string, resp *dto.MatrixResponse) {
	if s.cache == nil || key == "" {
		return
	}
	if err := s.cache.SetMatrix(ctx, key, resp, s.cacheTTL); err != nil {
		s.logger.Warn("写入矩阵缓存失败", zap.String("key", key), zap.Error(err))
	}
}

// ════════════════════════════════════════════════════════════
// ApplyBatch
// ════════════════════════════════════════════════════════════

func (s *matrixService) ApplyBatch(ctx context.Context, req *dto.MatrixBatchRequest, callerID string) (*dto.MatrixBatchResponse, error) {
	year := s.yearOrDefault(req.AcademicYear)
	var result dto.MatrixBatchResponse

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 回滚时不保留部分计数
		result = dto.MatrixBatchResponse{}
		for i := range req.Changes {
			if err := s.applyChange(ctx, tx, year, req.DayOfWeek, &req.Changes[i], callerID, &result); err != nil {
				return &BatchChangeError{Index: i, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		var changeErr *BatchChangeError
		if errors.As(err, &changeErr) {
			if pkgerrors.IsUniqueViolation(changeErr.Err, activeCellConstraint) {
				change := req.Changes[changeErr.Index]
				period := change.PeriodIndex
				changeErr.Err = cellConflict(ctx, s.repo, &model.Schedule{
					ClassID: change.ClassID, DayOfWeek: req.DayOfWeek, PeriodIndex: &period,
				})
			} else if pkgerrors.IsForeignKeyViolation(changeErr.Err) {
				changeErr.Err = ErrInvalidReference
			} else if !isDomainError(changeErr.Err) {
				return nil, storageError(s.logger, "批量编辑课表失败", changeErr.Err,
					zap.Int("change_index", changeErr.Index), zap.Int("day_of_week", req.DayOfWeek))
			}
			return nil, changeErr
		}
		return nil, storageError(s.logger, "批量编辑课表失败", err)
	}

	invalidateMatrix(ctx, s.cache, s.logger)
	s.logger.Info("矩阵批量编辑完成",
		zap.Int("day_of_week", req.DayOfWeek),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("deleted", result.Deleted),
		zap.String("caller", callerID),
	)
	return &result, nil
}

// applyChange 单个单元格变更；读到的是本事务内此前变更后的状态
func (s *matrixService) applyChange(
	ctx context.Context,
	tx *repository.Repository,
	year string,
	day int,
	change *dto.MatrixChange,
	callerID string,
	result *dto.MatrixBatchResponse,
) error {
	slot, err := tx.TimeSlot.GetByDayAndPeriod(ctx, year, day, change.PeriodIndex)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTimeSlotUndefined
		}
		return err
	}

	existing, err := tx.Schedule.FindActiveCell(ctx, change.ClassID, day, change.PeriodIndex)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if change.Action == MatrixActionDelete {
		if existing == nil {
			return nil
		}
		existing.Status = model.ScheduleStatusInactive
		existing.UpdatedBy = &callerID
		if err := tx.Schedule.Update(ctx, existing); err != nil {
			return err
		}
		result.Deleted++
		return nil
	}

	resolver := NewTeacherResolver(tx.Teacher)
	teacherIDs := resolver.Normalize(change.TeacherIDs, change.TeacherID)
	subjectID := nonEmpty(change.SubjectID)
	if subjectID == nil {
		return &RequiredFieldError{Field: "subject_id"}
	}
	if len(teacherIDs) == 0 {
		return &RequiredFieldError{Field: "teacher_ids"}
	}
	if err := resolver.ValidateExistence(ctx, teacherIDs); err != nil {
		return err
	}

	excludeID := ""
	if existing != nil {
		excludeID = existing.ScheduleID
	}
	roomID := nonEmpty(change.RoomID)
	if err := NewConflictDetector(tx.Schedule).CheckAll(ctx, Placement{
		ClassID:    change.ClassID,
		RoomID:     roomID,
		TeacherIDs: teacherIDs,
		DayOfWeek:  day,
		StartTime:  slot.StartTime,
		EndTime:    slot.EndTime,
		ExcludeID:  excludeID,
	}); err != nil {
		return err
	}

	derived := resolver.Derive(teacherIDs)
	period := change.PeriodIndex
	target := existing
	if target == nil {
		target = &model.Schedule{
			ClassID:     change.ClassID,
			DayOfWeek:   day,
			PeriodIndex: &period,
			Status:      model.ScheduleStatusActive,
		}
		target.CreatedBy = &callerID
	}
	target.SubjectID = subjectID
	target.TeacherID = derived.PrimaryID
	target.RoomID = roomID
	target.StartTime = slot.StartTime
	target.EndTime = slot.EndTime
	target.ActivityType = model.ActivityLesson
	target.AttendanceEnabled = true
	target.SpecialNote = ""
	target.IsTeamTaught = derived.IsTeamTaught
	target.UpdatedBy = &callerID

	if existing == nil {
		if err := tx.Schedule.Create(ctx, target); err != nil {
			return err
		}
		result.Created++
	} else {
		if err := tx.Schedule.Update(ctx, target); err != nil {
			return err
		}
		if err := tx.ScheduleTeacher.DeleteBySchedule(ctx, target.ScheduleID); err != nil {
			return err
		}
		result.Updated++
	}
	return tx.ScheduleTeacher.BatchCreate(ctx, buildAssignments(target.ScheduleID, teacherIDs))
}

// ── 内部辅助方法 ──

func (s *matrixService) yearOrDefault(year string) string {
	if y := strings.TrimSpace(year); y != "" {
		return y
	}
	return s.academicYear
}

func toMatrixEntry(sch *model.Schedule) *dto.MatrixEntry {
	id := sch.ScheduleID
	entry := &dto.MatrixEntry{
		ScheduleID:   &id,
		ActivityType: sch.ActivityType,
		Label:        sch.SubjectLabel(),
		SubjectID:    sch.SubjectID,
		RoomID:       sch.RoomID,
		IsTeamTaught: sch.IsTeamTaught,
		StartTime:    sch.StartTime,
		EndTime:      sch.EndTime,
	}
	if sch.Subject != nil {
		entry.SubjectColor = sch.Subject.Color
	}
	if sch.Room != nil {
		entry.RoomName = sch.Room.Name
	}

	// 主讲在前，其余按录入顺序（仓储已排序）
	for _, a := range sch.Teachers {
		t := dto.MatrixTeacher{ID: a.TeacherID, IsPrimary: a.IsPrimary}
		if a.Teacher != nil {
			t.Name = a.Teacher.Name
		}
		entry.Teachers = append(entry.Teachers, t)
	}
	if len(entry.Teachers) == 0 && sch.TeacherID != nil {
		t := dto.MatrixTeacher{ID: *sch.TeacherID, IsPrimary: true}
		if sch.Teacher != nil {
			t.Name = sch.Teacher.Name
		}
		entry.Teachers = append(entry.Teachers, t)
	}
	return entry
}

func placeholderEntry(slot *model.TimeSlotDefinition) *dto.MatrixEntry {
	label := slot.Label
	if label == "" {
		label = slot.SlotType
	}
	return &dto.MatrixEntry{
		IsPlaceholder: true,
		ActivityType:  slot.SlotType,
		Label:         label,
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
	}
}
