package service

import (
	"time"

	"go.uber.org/zap"

	"absenta/backend/config"
	"absenta/backend/internal/dto"
	"absenta/backend/internal/model"
	"absenta/backend/internal/repository"
)

// ── 测试数据 ──

const (
	testYear = "2025/2026"

	class10A = "class-10a"
	class10B = "class-10b"
	class11A = "class-11a"

	teacherBudi = "teacher-budi"
	teacherSiti = "teacher-siti"
	teacherAndi = "teacher-andi"
	teacherGone = "teacher-gone" // 已停用

	subjectMath = "subject-math"
	subjectBio  = "subject-bio"

	roomR1 = "room-r1"
	roomR2 = "room-r2"

	monday  = 1
	tuesday = 2
)

type testEnv struct {
	st       *memStore
	repo     *repository.Repository
	cache    *mockMatrixCache
	schedule *scheduleService
	matrix   MatrixService
	timeSlot TimeSlotService
}

func newTestEnv() *testEnv {
	st := newMemStore()
	seedReference(st)

	repo := st.repository()
	cache := newMockMatrixCache()
	cfg := &config.ScheduleConfig{
		Timezone:       "Asia/Jakarta",
		AcademicYear:   testYear,
		MatrixCacheTTL: time.Minute,
	}
	logger := zap.NewNop()

	return &testEnv{
		st:       st,
		repo:     repo,
		cache:    cache,
		schedule: NewScheduleService(repo, cache, cfg, logger).(*scheduleService),
		matrix:   NewMatrixService(repo, cache, cfg, logger),
		timeSlot: NewTimeSlotService(repo, testYear, logger),
	}
}

func seedReference(st *memStore) {
	for _, c := range []model.Class{
		{ClassID: class10A, Name: "X IPA 1", Level: "X", IsActive: true},
		{ClassID: class10B, Name: "X IPA 2", Level: "X", IsActive: true},
		{ClassID: class11A, Name: "XI IPA 1", Level: "XI", IsActive: true},
		{ClassID: "class-old", Name: "X LAMA", Level: "X", IsActive: false},
	} {
		c := c
		st.classes[c.ClassID] = &c
	}
	for _, t := range []model.Teacher{
		{TeacherID: teacherBudi, Name: "Budi", IsActive: true},
		{TeacherID: teacherSiti, Name: "Siti", IsActive: true},
		{TeacherID: teacherAndi, Name: "Andi", IsActive: true},
		{TeacherID: teacherGone, Name: "Lama", IsActive: false},
	} {
		t := t
		st.teachers[t.TeacherID] = &t
	}
	st.subjects[subjectMath] = &model.Subject{SubjectID: subjectMath, Name: "Matematika", Code: "MTK", Color: "#FF0000"}
	st.subjects[subjectBio] = &model.Subject{SubjectID: subjectBio, Name: "Biologi", Code: "BIO", Color: "#00FF00"}
	st.rooms[roomR1] = &model.Room{RoomID: roomR1, Name: "R1", Code: "R1"}
	st.rooms[roomR2] = &model.Room{RoomID: roomR2, Name: "R2", Code: "R2"}
}

// seedCalendar 周一、周二各五节，第 4 节为课间休息
func seedCalendar(st *memStore) {
	periods := []struct {
		index      int
		start, end string
		slotType   string
		label      string
	}{
		{1, "07:00", "07:45", model.ActivityLesson, ""},
		{2, "07:45", "08:30", model.ActivityLesson, ""},
		{3, "08:30", "09:15", model.ActivityLesson, ""},
		{4, "09:15", "09:30", model.ActivityBreak, "Istirahat"},
		{5, "09:30", "10:15", model.ActivityLesson, ""},
	}
	for _, day := range []int{monday, tuesday} {
		for _, p := range periods {
			st.slots = append(st.slots, model.TimeSlotDefinition{
				TimeSlotID:      st.nextID("slot"),
				AcademicYear:    testYear,
				DayOfWeek:       day,
				PeriodIndex:     p.index,
				StartTime:       p.start,
				EndTime:         p.end,
				DurationMinutes: 45,
				SlotType:        p.slotType,
				Label:           p.label,
			})
		}
	}
}

// seedLesson 直接写入一条有效授课条目及教师分配
func (e *testEnv) seedLesson(classID string, day int, period *int, start, end string, roomID *string, teacherIDs ...string) string {
	subject := subjectMath
	s := &model.Schedule{
		ScheduleID:        e.st.nextID("seed"),
		ClassID:           classID,
		SubjectID:         &subject,
		RoomID:            roomID,
		DayOfWeek:         day,
		PeriodIndex:       period,
		StartTime:         start,
		EndTime:           end,
		ActivityType:      model.ActivityLesson,
		AttendanceEnabled: true,
		IsTeamTaught:      len(teacherIDs) > 1,
		Status:            model.ScheduleStatusActive,
	}
	if len(teacherIDs) > 0 {
		primary := teacherIDs[0]
		s.TeacherID = &primary
	}
	now := e.st.tick()
	s.CreatedAt, s.UpdatedAt = now, now
	e.st.schedules[s.ScheduleID] = s
	for _, a := range buildAssignments(s.ScheduleID, teacherIDs) {
		a := a
		a.ScheduleTeacherID = e.st.nextID("st")
		e.st.assignments[a.ScheduleTeacherID] = &a
	}
	return s.ScheduleID
}

func lessonRequest(classID string, day, period int, start, end string, teacherIDs ...string) *dto.CreateScheduleRequest {
	return &dto.CreateScheduleRequest{
		ClassID:      classID,
		SubjectID:    strPtr(subjectMath),
		DayOfWeek:    day,
		PeriodIndex:  intPtr(period),
		StartTime:    start,
		EndTime:      end,
		ActivityType: model.ActivityLesson,
		TeacherIDs:   teacherIDs,
	}
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func (e *testEnv) assignmentsOf(scheduleID string) []model.ScheduleTeacher {
	return e.st.sortedAssignments(scheduleID)
}
