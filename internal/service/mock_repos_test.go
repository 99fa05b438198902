package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"absenta/backend/internal/model"
	"absenta/backend/internal/repository"
)

// ── 内存存储 ──
//
// 所有 mock 仓储共享一个 memStore；Atomic 在 fn 失败时恢复快照，
// 以便测试观察事务回滚。

type memStore struct {
	schedules   map[string]*model.Schedule
	assignments map[string]*model.ScheduleTeacher
	slots       []model.TimeSlotDefinition
	classes     map[string]*model.Class
	subjects    map[string]*model.Subject
	rooms       map[string]*model.Room
	teachers    map[string]*model.Teacher

	seq   int
	clock time.Time

	// errs 按操作名注入错误，如 "schedule.create"
	errs map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		schedules:   make(map[string]*model.Schedule),
		assignments: make(map[string]*model.ScheduleTeacher),
		classes:     make(map[string]*model.Class),
		subjects:    make(map[string]*model.Subject),
		rooms:       make(map[string]*model.Room),
		teachers:    make(map[string]*model.Teacher),
		clock:       time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		errs:        make(map[string]error),
	}
}

func (st *memStore) nextID(prefix string) string {
	st.seq++
	return fmt.Sprintf("%s-%03d", prefix, st.seq)
}

func (st *memStore) tick() time.Time {
	st.clock = st.clock.Add(time.Second)
	return st.clock
}

func (st *memStore) fail(op string) error {
	return st.errs[op]
}

type memSnapshot struct {
	schedules   map[string]model.Schedule
	assignments map[string]model.ScheduleTeacher
}

func (st *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		schedules:   make(map[string]model.Schedule, len(st.schedules)),
		assignments: make(map[string]model.ScheduleTeacher, len(st.assignments)),
	}
	for id, s := range st.schedules {
		snap.schedules[id] = *s
	}
	for id, a := range st.assignments {
		snap.assignments[id] = *a
	}
	return snap
}

func (st *memStore) restore(snap memSnapshot) {
	st.schedules = make(map[string]*model.Schedule, len(snap.schedules))
	for id, s := range snap.schedules {
		s := s
		st.schedules[id] = &s
	}
	st.assignments = make(map[string]*model.ScheduleTeacher, len(snap.assignments))
	for id, a := range snap.assignments {
		a := a
		st.assignments[id] = &a
	}
}

// repository 组装 Repository 聚合，事务失败时回滚内存状态
func (st *memStore) repository() *repository.Repository {
	repo := &repository.Repository{
		Schedule:        &mockScheduleRepo{st: st},
		ScheduleTeacher: &mockScheduleTeacherRepo{st: st},
		TimeSlot:        &mockTimeSlotRepo{st: st},
		Class:           &mockClassRepo{st: st},
		Teacher:         &mockTeacherRepo{st: st},
	}
	repo.Atomic = func(ctx context.Context, fn func(tx *repository.Repository) error) error {
		snap := st.snapshot()
		if err := fn(repo); err != nil {
			st.restore(snap)
			return err
		}
		return nil
	}
	return repo
}

// sortedAssignments 主讲在前，其余按录入顺序
func (st *memStore) sortedAssignments(scheduleID string) []model.ScheduleTeacher {
	var result []model.ScheduleTeacher
	for _, a := range st.assignments {
		if a.ScheduleID != scheduleID {
			continue
		}
		cp := *a
		if t, ok := st.teachers[cp.TeacherID]; ok {
			tc := *t
			cp.Teacher = &tc
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IsPrimary != result[j].IsPrimary {
			return result[i].IsPrimary
		}
		return result[i].SortOrder < result[j].SortOrder
	})
	return result
}

// hydrate 返回带关联的副本
func (st *memStore) hydrate(s *model.Schedule) model.Schedule {
	cp := *s
	if c, ok := st.classes[cp.ClassID]; ok {
		cc := *c
		cp.Class = &cc
	}
	if cp.SubjectID != nil {
		if sub, ok := st.subjects[*cp.SubjectID]; ok {
			sc := *sub
			cp.Subject = &sc
		}
	}
	if cp.RoomID != nil {
		if r, ok := st.rooms[*cp.RoomID]; ok {
			rc := *r
			cp.Room = &rc
		}
	}
	if cp.TeacherID != nil {
		if t, ok := st.teachers[*cp.TeacherID]; ok {
			tc := *t
			cp.Teacher = &tc
		}
	}
	cp.Teachers = st.sortedAssignments(cp.ScheduleID)
	return cp
}

// withSubject 冲突扫描只预加载科目
func (st *memStore) withSubject(s *model.Schedule) model.Schedule {
	cp := *s
	if cp.SubjectID != nil {
		if sub, ok := st.subjects[*cp.SubjectID]; ok {
			sc := *sub
			cp.Subject = &sc
		}
	}
	return cp
}

func (st *memStore) teaches(s *model.Schedule, teacherID string) bool {
	if s.TeacherID != nil && *s.TeacherID == teacherID {
		return true
	}
	for _, a := range st.assignments {
		if a.ScheduleID == s.ScheduleID && a.TeacherID == teacherID {
			return true
		}
	}
	return false
}

func sortByStart(list []model.Schedule) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].DayOfWeek != list[j].DayOfWeek {
			return list[i].DayOfWeek < list[j].DayOfWeek
		}
		if list[i].StartTime != list[j].StartTime {
			return list[i].StartTime < list[j].StartTime
		}
		return list[i].ClassID < list[j].ClassID
	})
}

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct {
	st *memStore
}

func (m *mockScheduleRepo) Create(_ context.Context, schedule *model.Schedule) error {
	if err := m.st.fail("schedule.create"); err != nil {
		return err
	}
	if schedule.ScheduleID == "" {
		schedule.ScheduleID = m.st.nextID("sch")
	}
	now := m.st.tick()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	cp := *schedule
	cp.Class, cp.Subject, cp.Teacher, cp.Room, cp.Teachers = nil, nil, nil, nil, nil
	m.st.schedules[cp.ScheduleID] = &cp
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id string) (*model.Schedule, error) {
	s, ok := m.st.schedules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.st.hydrate(s)
	return &cp, nil
}

func (m *mockScheduleRepo) GetByIDForUpdate(_ context.Context, id string) (*model.Schedule, error) {
	s, ok := m.st.schedules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockScheduleRepo) Update(_ context.Context, schedule *model.Schedule) error {
	if err := m.st.fail("schedule.update"); err != nil {
		return err
	}
	prev, ok := m.st.schedules[schedule.ScheduleID]
	if !ok {
		return nil
	}
	cp := *schedule
	cp.Class, cp.Subject, cp.Teacher, cp.Room, cp.Teachers = nil, nil, nil, nil, nil
	cp.CreatedAt = prev.CreatedAt
	cp.CreatedBy = prev.CreatedBy
	cp.UpdatedAt = m.st.tick()
	m.st.schedules[cp.ScheduleID] = &cp
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id string) error {
	delete(m.st.schedules, id)
	return nil
}

func (m *mockScheduleRepo) List(_ context.Context, f repository.ScheduleFilter, offset, limit int) ([]model.Schedule, int64, error) {
	var result []model.Schedule
	for _, s := range m.st.schedules {
		if f.ClassID != "" && s.ClassID != f.ClassID {
			continue
		}
		if f.TeacherID != "" && !m.st.teaches(s, f.TeacherID) {
			continue
		}
		if f.DayOfWeek != nil && s.DayOfWeek != *f.DayOfWeek {
			continue
		}
		if f.ActivityType != "" && s.ActivityType != f.ActivityType {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		result = append(result, m.st.hydrate(s))
	}
	sortByStart(result)

	total := int64(len(result))
	if limit > 0 {
		if offset >= len(result) {
			return []model.Schedule{}, total, nil
		}
		end := offset + limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}
	return result, total, nil
}

func (m *mockScheduleRepo) scan(day int, excludeID string, match func(s *model.Schedule) bool) []model.Schedule {
	var result []model.Schedule
	for _, s := range m.st.schedules {
		if s.DayOfWeek != day || s.Status != model.ScheduleStatusActive || s.ScheduleID == excludeID {
			continue
		}
		if match(s) {
			result = append(result, m.st.withSubject(s))
		}
	}
	sortByStart(result)
	return result
}

func (m *mockScheduleRepo) ListLessonsByClassDay(_ context.Context, classID string, day int, excludeID string) ([]model.Schedule, error) {
	if err := m.st.fail("schedule.scan"); err != nil {
		return nil, err
	}
	return m.scan(day, excludeID, func(s *model.Schedule) bool {
		return s.ClassID == classID && s.IsLesson()
	}), nil
}

func (m *mockScheduleRepo) ListLessonsByRoomDay(_ context.Context, roomID string, day int, excludeID string) ([]model.Schedule, error) {
	return m.scan(day, excludeID, func(s *model.Schedule) bool {
		return s.RoomID != nil && *s.RoomID == roomID && s.IsLesson()
	}), nil
}

func (m *mockScheduleRepo) ListByTeacherDay(_ context.Context, teacherID string, day int, excludeID string) ([]model.Schedule, error) {
	return m.scan(day, excludeID, func(s *model.Schedule) bool {
		return m.st.teaches(s, teacherID)
	}), nil
}

func (m *mockScheduleRepo) FindActiveCell(_ context.Context, classID string, day, period int) (*model.Schedule, error) {
	var found *model.Schedule
	for _, s := range m.st.schedules {
		if s.ClassID != classID || s.DayOfWeek != day || s.Status != model.ScheduleStatusActive {
			continue
		}
		if s.PeriodIndex == nil || *s.PeriodIndex != period {
			continue
		}
		if found == nil || s.UpdatedAt.After(found.UpdatedAt) {
			found = s
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *mockScheduleRepo) ListActiveByClasses(_ context.Context, classIDs []string) ([]model.Schedule, error) {
	wanted := make(map[string]bool, len(classIDs))
	for _, id := range classIDs {
		wanted[id] = true
	}
	var result []model.Schedule
	for _, s := range m.st.schedules {
		if wanted[s.ClassID] && s.Status == model.ScheduleStatusActive && s.PeriodIndex != nil {
			result = append(result, m.st.hydrate(s))
		}
	}
	return result, nil
}

// ── Mock ScheduleTeacherRepository ──

type mockScheduleTeacherRepo struct {
	st *memStore
}

func (m *mockScheduleTeacherRepo) BatchCreate(ctx context.Context, assignments []model.ScheduleTeacher) error {
	if err := m.st.fail("assignment.create"); err != nil {
		return err
	}
	for i := range assignments {
		if err := m.Create(ctx, &assignments[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockScheduleTeacherRepo) Create(_ context.Context, a *model.ScheduleTeacher) error {
	if err := m.st.fail("assignment.create"); err != nil {
		return err
	}
	if a.ScheduleTeacherID == "" {
		a.ScheduleTeacherID = m.st.nextID("st")
	}
	a.CreatedAt = m.st.tick()
	cp := *a
	cp.Teacher = nil
	m.st.assignments[cp.ScheduleTeacherID] = &cp
	return nil
}

func (m *mockScheduleTeacherRepo) ListBySchedule(_ context.Context, scheduleID string) ([]model.ScheduleTeacher, error) {
	return m.st.sortedAssignments(scheduleID), nil
}

func (m *mockScheduleTeacherRepo) Delete(_ context.Context, scheduleID, teacherID string) error {
	for id, a := range m.st.assignments {
		if a.ScheduleID == scheduleID && a.TeacherID == teacherID {
			delete(m.st.assignments, id)
		}
	}
	return nil
}

func (m *mockScheduleTeacherRepo) DeleteBySchedule(_ context.Context, scheduleID string) error {
	for id, a := range m.st.assignments {
		if a.ScheduleID == scheduleID {
			delete(m.st.assignments, id)
		}
	}
	return nil
}

func (m *mockScheduleTeacherRepo) SetPrimary(_ context.Context, scheduleID, teacherID string) error {
	for _, a := range m.st.assignments {
		if a.ScheduleID == scheduleID {
			a.IsPrimary = a.TeacherID == teacherID
		}
	}
	return nil
}

// ── Mock TimeSlotRepository ──

type mockTimeSlotRepo struct {
	st *memStore
}

func (m *mockTimeSlotRepo) List(_ context.Context, academicYear string, dayOfWeek *int) ([]model.TimeSlotDefinition, error) {
	var result []model.TimeSlotDefinition
	for _, s := range m.st.slots {
		if academicYear != "" && s.AcademicYear != academicYear {
			continue
		}
		if dayOfWeek != nil && s.DayOfWeek != *dayOfWeek {
			continue
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].PeriodIndex < result[j].PeriodIndex
	})
	return result, nil
}

func (m *mockTimeSlotRepo) GetByDayAndPeriod(_ context.Context, academicYear string, day, period int) (*model.TimeSlotDefinition, error) {
	for _, s := range m.st.slots {
		if s.AcademicYear == academicYear && s.DayOfWeek == day && s.PeriodIndex == period {
			cp := s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock ClassRepository ──

type mockClassRepo struct {
	st *memStore
}

func (m *mockClassRepo) ListActive(_ context.Context, level string) ([]model.Class, error) {
	var result []model.Class
	for _, c := range m.st.classes {
		if !c.IsActive {
			continue
		}
		if level == "" || c.Name == level || strings.HasPrefix(c.Name, level+" ") {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock TeacherRepository ──

type mockTeacherRepo struct {
	st *memStore
}

func (m *mockTeacherRepo) ListByIDs(_ context.Context, ids []string) ([]model.Teacher, error) {
	if err := m.st.fail("teacher.list"); err != nil {
		return nil, err
	}
	var result []model.Teacher
	for _, id := range ids {
		if t, ok := m.st.teachers[id]; ok && t.IsActive {
			result = append(result, *t)
		}
	}
	return result, nil
}

// ── Mock MatrixCache ──

type mockMatrixCache struct {
	gen   int64
	data  map[string][]byte
	bumps int
	sets  int
}

func newMockMatrixCache() *mockMatrixCache {
	return &mockMatrixCache{data: make(map[string][]byte)}
}

func (c *mockMatrixCache) MatrixGeneration(_ context.Context) (int64, error) {
	return c.gen, nil
}

func (c *mockMatrixCache) BumpMatrixGeneration(_ context.Context) error {
	c.gen++
	c.bumps++
	return nil
}

func (c *mockMatrixCache) GetMatrix(_ context.Context, key string, dst interface{}) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *mockMatrixCache) SetMatrix(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.sets++
	return nil
}
