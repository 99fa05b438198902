package service

import (
	"context"
	"errors"
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

// 存储层约束名
const (
	activeCellConstraint    = "uq_schedules_active_cell"
	teacherAssignmentUnique = "uq_schedule_teachers"
	timeLayout              = "2006-01-02T15:04:05Z07:00"
)

// ScheduleService 课表业务接口
type ScheduleService interface {
	Create(ctx context.Context, req *dto.CreateScheduleRequest, callerID string) (*dto.ScheduleResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateScheduleRequest, callerID string) (*dto.ScheduleResponse, error)
	Delete(ctx context.Context, id string) error

	// 团队教学：追加 / 移除单个教师
	AddTeacher(ctx context.Context, scheduleID, teacherID, callerID string) ([]dto.ScheduleTeacherResponse, error)
	RemoveTeacher(ctx context.Context, scheduleID, teacherID, callerID string) ([]dto.ScheduleTeacherResponse, error)
	ListTeachers(ctx context.Context, identity Identity, scheduleID string) ([]dto.ScheduleTeacherResponse, error)

	// GetByID 与 ListTeachers 同样按身份过滤，不可见的条目视为不存在
	GetByID(ctx context.Context, identity Identity, id string) (*dto.ScheduleResponse, error)
	// List 按身份过滤：教师只见自己任课（主讲或协同），学生只见本班
	List(ctx context.Context, identity Identity, req *dto.ScheduleListRequest) ([]dto.ScheduleResponse, int64, error)
	Today(ctx context.Context, identity Identity) (*dto.TodayScheduleResponse, error)
	ExportICal(ctx context.Context, identity Identity) ([]byte, error)
}

type scheduleService struct {
	repo         *repository.Repository
	cache        MatrixCache
	academicYear string
	loc          *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, cache MatrixCache, cfg *config.ScheduleConfig, logger *zap.Logger) ScheduleService {
	return &scheduleService{
		repo:         repo,
		cache:        cache,
		academicYear: cfg.AcademicYear,
		loc:          cfg.Location(),
		now:          time.Now,
		logger:       logger,
	}
}

// ════════════════════════════════════════════════════════════
// 写操作：校验全部在事务外完成，冲突检测与写入共用一个事务
// ════════════════════════════════════════════════════════════

// scheduleDraft 通过校验的候选条目
type scheduleDraft struct {
	schedule   model.Schedule
	teacherIDs []string
}

func (d *scheduleDraft) placement(excludeID string) Placement {
	return Placement{
		ClassID:    d.schedule.ClassID,
		RoomID:     d.schedule.RoomID,
		TeacherIDs: d.teacherIDs,
		DayOfWeek:  d.schedule.DayOfWeek,
		StartTime:  d.schedule.StartTime,
		EndTime:    d.schedule.EndTime,
		ExcludeID:  excludeID,
	}
}

// prepare 时间 → 教师 → 按活动类型的必填项，任一失败即返回，不产生写入
func (s *scheduleService) prepare(ctx context.Context, req *dto.CreateScheduleRequest) (*scheduleDraft, error) {
	activity := req.ActivityType
	if activity == "" {
		activity = model.ActivityLesson
	}

	start, end := strings.TrimSpace(req.StartTime), strings.TrimSpace(req.EndTime)
	if start == "" && end == "" && req.PeriodIndex != nil {
		// 仅给出节次时按作息时间表补全
		slot, err := s.repo.TimeSlot.GetByDayAndPeriod(ctx, s.academicYear, req.DayOfWeek, *req.PeriodIndex)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storageError(s.logger, "查询作息时间失败", err)
		}
		if slot != nil {
			start, end = slot.StartTime, slot.EndTime
		}
	}

	// 1. 时间
	if start == "" {
		return nil, &RequiredFieldError{Field: "start_time"}
	}
	if end == "" {
		return nil, &RequiredFieldError{Field: "end_time"}
	}
	if err := ValidateInterval(start, end); err != nil {
		return nil, err
	}

	// 2. 教师
	resolver := NewTeacherResolver(s.repo.Teacher)
	teacherIDs := resolver.Normalize(req.TeacherIDs, req.TeacherID)
	if err := resolver.ValidateExistence(ctx, teacherIDs); err != nil {
		return nil, storageError(s.logger, "校验教师失败", err)
	}

	// 3. 必填项
	classID := strings.TrimSpace(req.ClassID)
	subjectID := nonEmpty(req.SubjectID)
	note := strings.TrimSpace(req.SpecialNote)
	if classID == "" {
		return nil, &RequiredFieldError{Field: "class_id"}
	}
	if activity == model.ActivityLesson {
		switch {
		case subjectID == nil:
			return nil, &RequiredFieldError{Field: "subject_id"}
		case req.PeriodIndex == nil:
			return nil, &RequiredFieldError{Field: "period_index"}
		case len(teacherIDs) == 0:
			return nil, &RequiredFieldError{Field: "teacher_ids"}
		}
	} else if note == "" {
		return nil, &RequiredFieldError{Field: "special_note"}
	}

	attendance := activity == model.ActivityLesson
	if req.AttendanceEnabled != nil {
		attendance = *req.AttendanceEnabled
	}

	derived := resolver.Derive(teacherIDs)
	return &scheduleDraft{
		schedule: model.Schedule{
			ClassID:           classID,
			SubjectID:         subjectID,
			TeacherID:         derived.PrimaryID,
			RoomID:            nonEmpty(req.RoomID),
			DayOfWeek:         req.DayOfWeek,
			PeriodIndex:       req.PeriodIndex,
			StartTime:         start,
			EndTime:           end,
			ActivityType:      activity,
			AttendanceEnabled: attendance,
			SpecialNote:       note,
			IsTeamTaught:      derived.IsTeamTaught,
			Status:            model.ScheduleStatusActive,
		},
		teacherIDs: teacherIDs,
	}, nil
}

// ────────────────────── Create ──────────────────────

func (s *scheduleService) Create(ctx context.Context, req *dto.CreateScheduleRequest, callerID string) (*dto.ScheduleResponse, error) {
	draft, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	schedule := draft.schedule
	schedule.CreatedBy = &callerID
	schedule.UpdatedBy = &callerID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := NewConflictDetector(tx.Schedule).CheckAll(ctx, draft.placement("")); err != nil {
			return err
		}
		if err := tx.Schedule.Create(ctx, &schedule); err != nil {
			return err
		}
		return tx.ScheduleTeacher.BatchCreate(ctx, buildAssignments(schedule.ScheduleID, draft.teacherIDs))
	})
	if err != nil {
		return nil, s.translateWriteError(ctx, "创建课表失败", err, &schedule)
	}

	invalidateMatrix(ctx, s.cache, s.logger)
	s.logger.Info("课表已创建",
		zap.String("schedule_id", schedule.ScheduleID),
		zap.String("class_id", schedule.ClassID),
		zap.Int("day_of_week", schedule.DayOfWeek),
		zap.String("caller", callerID),
	)
	return s.detail(ctx, schedule.ScheduleID)
}

// ────────────────────── Update ──────────────────────

func (s *scheduleService) Update(ctx context.Context, id string, req *dto.UpdateScheduleRequest, callerID string) (*dto.ScheduleResponse, error) {
	existing, err := s.loadSchedule(ctx, s.repo, id, false)
	if err != nil {
		return nil, err
	}

	draft, err := s.prepare(ctx, &req.CreateScheduleRequest)
	if err != nil {
		return nil, err
	}

	schedule := draft.schedule
	schedule.ScheduleID = id
	schedule.UpdatedBy = &callerID
	schedule.Status = existing.Status
	if req.Status != "" {
		schedule.Status = req.Status
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := s.loadSchedule(ctx, tx, id, true); err != nil {
			return err
		}
		// 停用的条目不参与冲突检测
		if schedule.Status == model.ScheduleStatusActive {
			if err := NewConflictDetector(tx.Schedule).CheckAll(ctx, draft.placement(id)); err != nil {
				return err
			}
		}
		if err := tx.Schedule.Update(ctx, &schedule); err != nil {
			return err
		}
		// 教师分配整体替换
		if err := tx.ScheduleTeacher.DeleteBySchedule(ctx, id); err != nil {
			return err
		}
		return tx.ScheduleTeacher.BatchCreate(ctx, buildAssignments(id, draft.teacherIDs))
	})
	if err != nil {
		return nil, s.translateWriteError(ctx, "更新课表失败", err, &schedule)
	}

	invalidateMatrix(ctx, s.cache, s.logger)
	return s.detail(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *scheduleService) Delete(ctx context.Context, id string) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := s.loadSchedule(ctx, tx, id, true); err != nil {
			return err
		}
		if err := tx.ScheduleTeacher.DeleteBySchedule(ctx, id); err != nil {
			return err
		}
		return tx.Schedule.Delete(ctx, id)
	})
	if err != nil {
		return storageError(s.logger, "删除课表失败", err, zap.String("schedule_id", id))
	}

	invalidateMatrix(ctx, s.cache, s.logger)
	s.logger.Info("课表已删除", zap.String("schedule_id", id))
	return nil
}

// ────────────────────── AddTeacher ──────────────────────

func (s *scheduleService) AddTeacher(ctx context.Context, scheduleID, teacherID, callerID string) ([]dto.ScheduleTeacherResponse, error) {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		schedule, err := s.loadSchedule(ctx, tx, scheduleID, true)
		if err != nil {
			return err
		}
		if err := NewTeacherResolver(tx.Teacher).ValidateExistence(ctx, []string{teacherID}); err != nil {
			return err
		}

		assignments, err := tx.ScheduleTeacher.ListBySchedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		nextOrder := 0
		for _, a := range assignments {
			if a.TeacherID == teacherID {
				return ErrDuplicateAssignment
			}
			if a.SortOrder >= nextOrder {
				nextOrder = a.SortOrder + 1
			}
		}

		if schedule.Status == model.ScheduleStatusActive {
			conflict, err := NewConflictDetector(tx.Schedule).CheckTeacher(ctx, []string{teacherID},
				schedule.DayOfWeek, schedule.StartTime, schedule.EndTime, scheduleID)
			if err != nil {
				return err
			}
			if conflict != nil {
				return conflict
			}
		}

		assignment := &model.ScheduleTeacher{
			ScheduleID: scheduleID,
			TeacherID:  teacherID,
			IsPrimary:  len(assignments) == 0,
			SortOrder:  nextOrder,
		}
		if err := tx.ScheduleTeacher.Create(ctx, assignment); err != nil {
			return err
		}

		if assignment.IsPrimary {
			schedule.TeacherID = &teacherID
		}
		schedule.IsTeamTaught = len(assignments)+1 > 1
		schedule.UpdatedBy = &callerID
		return tx.Schedule.Update(ctx, schedule)
	})
	if err != nil {
		if pkgerrors.IsUniqueViolation(err, teacherAssignmentUnique) {
			return nil, ErrDuplicateAssignment
		}
		return nil, storageError(s.logger, "追加课表教师失败", err,
			zap.String("schedule_id", scheduleID), zap.String("teacher_id", teacherID))
	}

	invalidateMatrix(ctx, s.cache, s.logger)
	return s.teachers(ctx, scheduleID)
}

// ────────────────────── RemoveTeacher ──────────────────────

func (s *scheduleService) RemoveTeacher(ctx context.Context, scheduleID, teacherID, callerID string) ([]dto.ScheduleTeacherResponse, error) {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		schedule, err := s.loadSchedule(ctx, tx, scheduleID, true)
		if err != nil {
			return err
		}

		assignments, err := tx.ScheduleTeacher.ListBySchedule(ctx, scheduleID)
		if err != nil {
			return err
		}

		var removed *model.ScheduleTeacher
		remaining := make([]model.ScheduleTeacher, 0, len(assignments))
		for i := range assignments {
			if assignments[i].TeacherID == teacherID {
				removed = &assignments[i]
				continue
			}
			remaining = append(remaining, assignments[i])
		}
		if removed == nil {
			return ErrAssignmentNotFound
		}
		if len(remaining) == 0 {
			return ErrLastTeacher
		}

		if err := tx.ScheduleTeacher.Delete(ctx, scheduleID, teacherID); err != nil {
			return err
		}

		// 移除主讲时由录入最早的教师接任
		if removed.IsPrimary {
			next := remaining[0].TeacherID
			if err := tx.ScheduleTeacher.SetPrimary(ctx, scheduleID, next); err != nil {
				return err
			}
			schedule.TeacherID = &next
		}
		schedule.IsTeamTaught = len(remaining) > 1
		schedule.UpdatedBy = &callerID
		return tx.Schedule.Update(ctx, schedule)
	})
	if err != nil {
		return nil, storageError(s.logger, "移除课表教师失败", err,
			zap.String("schedule_id", scheduleID), zap.String("teacher_id", teacherID))
	}

	invalidateMatrix(ctx, s.cache, s.logger)
	return s.teachers(ctx, scheduleID)
}

// ════════════════════════════════════════════════════════════
// 读操作
// ════════════════════════════════════════════════════════════

func (s *scheduleService) ListTeachers(ctx context.Context, identity Identity, scheduleID string) ([]dto.ScheduleTeacherResponse, error) {
	schedule, err := s.loadSchedule(ctx, s.repo, scheduleID, false)
	if err != nil {
		return nil, err
	}
	if !identity.canSee(schedule) {
		return nil, ErrScheduleNotFound
	}
	return s.teachers(ctx, scheduleID)
}

func (s *scheduleService) GetByID(ctx context.Context, identity Identity, id string) (*dto.ScheduleResponse, error) {
	schedule, err := s.loadSchedule(ctx, s.repo, id, false)
	if err != nil {
		return nil, err
	}
	if !identity.canSee(schedule) {
		return nil, ErrScheduleNotFound
	}
	return toScheduleResponse(schedule), nil
}

func (s *scheduleService) List(ctx context.Context, identity Identity, req *dto.ScheduleListRequest) ([]dto.ScheduleResponse, int64, error) {
	filter, ok := identity.scope(repository.ScheduleFilter{
		ClassID:      req.ClassID,
		TeacherID:    req.TeacherID,
		DayOfWeek:    req.DayOfWeek,
		ActivityType: req.ActivityType,
		Status:       req.Status,
	})
	if !ok {
		return []dto.ScheduleResponse{}, 0, nil
	}

	schedules, total, err := s.repo.Schedule.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		return nil, 0, storageError(s.logger, "查询课表列表失败", err)
	}
	return toScheduleResponses(schedules), total, nil
}

func (s *scheduleService) Today(ctx context.Context, identity Identity) (*dto.TodayScheduleResponse, error) {
	now := s.now().In(s.loc)
	day := isoWeekday(now)
	resp := &dto.TodayScheduleResponse{
		Date:      now.Format("2006-01-02"),
		DayOfWeek: day,
		Schedules: []dto.ScheduleResponse{},
	}
	// 周日无课
	if day > 6 {
		return resp, nil
	}

	filter, ok := identity.scope(repository.ScheduleFilter{
		DayOfWeek: &day,
		Status:    model.ScheduleStatusActive,
	})
	if !ok {
		return resp, nil
	}

	schedules, _, err := s.repo.Schedule.List(ctx, filter, 0, 0)
	if err != nil {
		return nil, storageError(s.logger, "查询今日课表失败", err)
	}
	resp.Schedules = toScheduleResponses(schedules)
	return resp, nil
}

// ── 内部辅助方法 ──

// detail 写操作提交后回读完整条目（不做身份过滤）
func (s *scheduleService) detail(ctx context.Context, id string) (*dto.ScheduleResponse, error) {
	schedule, err := s.loadSchedule(ctx, s.repo, id, false)
	if err != nil {
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

func (s *scheduleService) teachers(ctx context.Context, scheduleID string) ([]dto.ScheduleTeacherResponse, error) {
	assignments, err := s.repo.ScheduleTeacher.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, storageError(s.logger, "查询课表教师失败", err, zap.String("schedule_id", scheduleID))
	}
	return toTeacherResponses(assignments), nil
}

// loadSchedule 读取课表；forUpdate 时加行锁（须在事务内调用）
func (s *scheduleService) loadSchedule(ctx context.Context, repo *repository.Repository, id string, forUpdate bool) (*model.Schedule, error) {
	var (
		schedule *model.Schedule
		err      error
	)
	if forUpdate {
		schedule, err = repo.Schedule.GetByIDForUpdate(ctx, id)
	} else {
		schedule, err = repo.Schedule.GetByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, storageError(s.logger, "查询课表失败", err, zap.String("schedule_id", id))
	}
	return schedule, nil
}

// translateWriteError 将存储约束冲突还原为业务错误
func (s *scheduleService) translateWriteError(ctx context.Context, msg string, err error, schedule *model.Schedule) error {
	switch {
	case pkgerrors.IsUniqueViolation(err, activeCellConstraint):
		// 并发请求抢占了同一节次：事务已回滚，补查占用者用于提示
		return cellConflict(ctx, s.repo, schedule)
	case pkgerrors.IsForeignKeyViolation(err):
		return ErrInvalidReference
	}
	return storageError(s.logger, msg, err, zap.String("schedule_id", schedule.ScheduleID))
}

// cellConflict 构造与应用层检测一致的班级冲突错误
func cellConflict(ctx context.Context, repo *repository.Repository, schedule *model.Schedule) *ConflictError {
	fallback := &ConflictError{Type: ConflictClass, Message: "班级在该节次已有课程"}
	if schedule.PeriodIndex == nil {
		return fallback
	}
	holder, err := repo.Schedule.FindActiveCell(ctx, schedule.ClassID, schedule.DayOfWeek, *schedule.PeriodIndex)
	if err != nil {
		return fallback
	}
	if full, err := repo.Schedule.GetByID(ctx, holder.ScheduleID); err == nil {
		holder = full
	}
	return classConflict(holder)
}

func buildAssignments(scheduleID string, teacherIDs []string) []model.ScheduleTeacher {
	assignments := make([]model.ScheduleTeacher, 0, len(teacherIDs))
	for i, teacherID := range teacherIDs {
		assignments = append(assignments, model.ScheduleTeacher{
			ScheduleID: scheduleID,
			TeacherID:  teacherID,
			IsPrimary:  i == 0,
			SortOrder:  i,
		})
	}
	return assignments
}

func nonEmpty(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

// isoWeekday 周一=1 … 周日=7
func isoWeekday(t time.Time) int {
	if t.Weekday() == time.Sunday {
		return 7
	}
	return int(t.Weekday())
}

func toScheduleResponses(schedules []model.Schedule) []dto.ScheduleResponse {
	result := make([]dto.ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		result = append(result, *toScheduleResponse(&schedules[i]))
	}
	return result
}

func toScheduleResponse(s *model.Schedule) *dto.ScheduleResponse {
	resp := &dto.ScheduleResponse{
		ID:                s.ScheduleID,
		ClassID:           s.ClassID,
		PrimaryTeacherID:  s.TeacherID,
		Teachers:          toTeacherResponses(s.Teachers),
		DayOfWeek:         s.DayOfWeek,
		PeriodIndex:       s.PeriodIndex,
		StartTime:         s.StartTime,
		EndTime:           s.EndTime,
		ActivityType:      s.ActivityType,
		AttendanceEnabled: s.AttendanceEnabled,
		SpecialNote:       s.SpecialNote,
		IsTeamTaught:      s.IsTeamTaught,
		Status:            s.Status,
		CreatedAt:         s.CreatedAt.Format(timeLayout),
		UpdatedAt:         s.UpdatedAt.Format(timeLayout),
	}
	if s.Class != nil {
		resp.Class = &dto.ClassBrief{ID: s.Class.ClassID, Name: s.Class.Name, Level: s.Class.Level}
	}
	if s.Subject != nil {
		resp.Subject = &dto.SubjectBrief{ID: s.Subject.SubjectID, Name: s.Subject.Name, Code: s.Subject.Code, Color: s.Subject.Color}
	}
	if s.Room != nil {
		resp.Room = &dto.RoomBrief{ID: s.Room.RoomID, Name: s.Room.Name, Code: s.Room.Code}
	}
	return resp
}

func toTeacherResponses(assignments []model.ScheduleTeacher) []dto.ScheduleTeacherResponse {
	result := make([]dto.ScheduleTeacherResponse, 0, len(assignments))
	for _, a := range assignments {
		item := dto.ScheduleTeacherResponse{TeacherID: a.TeacherID, IsPrimary: a.IsPrimary}
		if a.Teacher != nil {
			item.Name = a.Teacher.Name
			item.NIP = a.Teacher.NIP
		}
		result = append(result, item)
	}
	return result
}
