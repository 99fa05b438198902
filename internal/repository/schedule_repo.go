package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"absenta/backend/internal/model"
)

// ScheduleFilter 课表列表查询条件（零值表示不过滤）
type ScheduleFilter struct {
	ClassID      string
	TeacherID    string // 主讲或协同教师
	DayOfWeek    *int
	ActivityType string
	Status       string
}

// ScheduleRepository 课表数据访问接口
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	// GetByIDForUpdate 在事务内加行锁读取
	GetByIDForUpdate(ctx context.Context, id string) (*model.Schedule, error)
	Update(ctx context.Context, schedule *model.Schedule) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ScheduleFilter, offset, limit int) ([]model.Schedule, int64, error)

	// ── 冲突扫描：同日有效条目，时间重叠由调用方判断 ──

	ListLessonsByClassDay(ctx context.Context, classID string, dayOfWeek int, excludeID string) ([]model.Schedule, error)
	ListLessonsByRoomDay(ctx context.Context, roomID string, dayOfWeek int, excludeID string) ([]model.Schedule, error)
	ListByTeacherDay(ctx context.Context, teacherID string, dayOfWeek int, excludeID string) ([]model.Schedule, error)

	// ── 矩阵 ──

	FindActiveCell(ctx context.Context, classID string, dayOfWeek, periodIndex int) (*model.Schedule, error)
	ListActiveByClasses(ctx context.Context, classIDs []string) ([]model.Schedule, error)
}

type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo 创建 ScheduleRepository 实例
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) Create(ctx context.Context, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(schedule).Error
}

func (r *scheduleRepo) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	if !isUUID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var schedule model.Schedule
	err := r.withDetails(r.db.WithContext(ctx)).
		Where("schedule_id = ?", id).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Schedule, error) {
	if !isUUID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("schedule_id = ?", id).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) Update(ctx context.Context, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).
		Model(&model.Schedule{}).
		Where("schedule_id = ?", schedule.ScheduleID).
		Updates(map[string]interface{}{
			"class_id":           schedule.ClassID,
			"subject_id":         schedule.SubjectID,
			"teacher_id":         schedule.TeacherID,
			"room_id":            schedule.RoomID,
			"day_of_week":        schedule.DayOfWeek,
			"period_index":       schedule.PeriodIndex,
			"start_time":         schedule.StartTime,
			"end_time":           schedule.EndTime,
			"activity_type":      schedule.ActivityType,
			"attendance_enabled": schedule.AttendanceEnabled,
			"special_note":       schedule.SpecialNote,
			"is_team_taught":     schedule.IsTeamTaught,
			"status":             schedule.Status,
			"updated_by":         schedule.UpdatedBy,
			"updated_at":         gorm.Expr("NOW()"),
		}).Error
}

func (r *scheduleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("schedule_id = ?", id).
		Delete(&model.Schedule{}).Error
}

func (r *scheduleRepo) List(ctx context.Context, filter ScheduleFilter, offset, limit int) ([]model.Schedule, int64, error) {
	var schedules []model.Schedule
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Schedule{})
	if filter.ClassID != "" {
		db = db.Where("class_id = ?", filter.ClassID)
	}
	if filter.TeacherID != "" {
		db = db.Where("(teacher_id = ? OR schedule_id IN (?))", filter.TeacherID,
			r.db.Model(&model.ScheduleTeacher{}).Select("schedule_id").Where("teacher_id = ?", filter.TeacherID))
	}
	if filter.DayOfWeek != nil {
		db = db.Where("day_of_week = ?", *filter.DayOfWeek)
	}
	if filter.ActivityType != "" {
		db = db.Where("activity_type = ?", filter.ActivityType)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.withDetails(db).Order("day_of_week ASC, start_time ASC, class_id ASC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	err := q.Find(&schedules).Error
	return schedules, total, err
}

func (r *scheduleRepo) ListLessonsByClassDay(ctx context.Context, classID string, dayOfWeek int, excludeID string) ([]model.Schedule, error) {
	var schedules []model.Schedule
	db := r.db.WithContext(ctx).
		Preload("Subject").
		Where("class_id = ? AND day_of_week = ? AND status = ? AND activity_type = ?",
			classID, dayOfWeek, model.ScheduleStatusActive, model.ActivityLesson)
	if excludeID != "" {
		db = db.Where("schedule_id <> ?", excludeID)
	}
	err := db.Order("start_time ASC").Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepo) ListLessonsByRoomDay(ctx context.Context, roomID string, dayOfWeek int, excludeID string) ([]model.Schedule, error) {
	var schedules []model.Schedule
	db := r.db.WithContext(ctx).
		Preload("Subject").
		Where("room_id = ? AND day_of_week = ? AND status = ? AND activity_type = ?",
			roomID, dayOfWeek, model.ScheduleStatusActive, model.ActivityLesson)
	if excludeID != "" {
		db = db.Where("schedule_id <> ?", excludeID)
	}
	err := db.Order("start_time ASC").Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepo) ListByTeacherDay(ctx context.Context, teacherID string, dayOfWeek int, excludeID string) ([]model.Schedule, error) {
	var schedules []model.Schedule
	assigned := r.db.Model(&model.ScheduleTeacher{}).Select("schedule_id").Where("teacher_id = ?", teacherID)
	db := r.db.WithContext(ctx).
		Preload("Subject").
		Where("(teacher_id = ? OR schedule_id IN (?))", teacherID, assigned).
		Where("day_of_week = ? AND status = ?", dayOfWeek, model.ScheduleStatusActive)
	if excludeID != "" {
		db = db.Where("schedule_id <> ?", excludeID)
	}
	err := db.Order("start_time ASC").Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepo) FindActiveCell(ctx context.Context, classID string, dayOfWeek, periodIndex int) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Where("class_id = ? AND day_of_week = ? AND period_index = ? AND status = ?",
			classID, dayOfWeek, periodIndex, model.ScheduleStatusActive).
		Order("updated_at DESC").
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) ListActiveByClasses(ctx context.Context, classIDs []string) ([]model.Schedule, error) {
	var schedules []model.Schedule
	if len(classIDs) == 0 {
		return schedules, nil
	}
	err := r.withDetails(r.db.WithContext(ctx)).
		Where("class_id IN ? AND status = ? AND period_index IS NOT NULL", classIDs, model.ScheduleStatusActive).
		Order("updated_at DESC").
		Find(&schedules).Error
	return schedules, err
}

// withDetails 预加载展示所需的关联（教师按主讲优先、录入顺序排列）
func (r *scheduleRepo) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Class").
		Preload("Subject").
		Preload("Room").
		Preload("Teacher").
		Preload("Teachers", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, sort_order ASC")
		}).
		Preload("Teachers.Teacher")
}

// isUUID 主键列为 uuid 类型，非法字符串直接查询会触发 22P02
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
