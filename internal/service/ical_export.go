package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"absenta/backend/internal/model"
	"absenta/backend/internal/repository"
)

// ── iCalendar 导出 ──────────────────────────────────────────
//
// 每个有效课表条目导出为一个每周重复的 VEVENT，
// 首次发生日期锚定在本周（学校时区）对应的星期。
// ─────────────────────────────────────────────────────────────

const icalProductID = "-//Absenta//Weekly Timetable//ID"

func (s *scheduleService) ExportICal(ctx context.Context, identity Identity) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icalProductID)
	cal.SetXWRCalName("课表")
	cal.SetXWRTimezone(s.loc.String())

	filter, ok := identity.scope(repository.ScheduleFilter{Status: model.ScheduleStatusActive})
	if !ok {
		return []byte(cal.Serialize()), nil
	}

	schedules, _, err := s.repo.Schedule.List(ctx, filter, 0, 0)
	if err != nil {
		return nil, storageError(s.logger, "导出课表日历失败", err)
	}

	now := s.now().In(s.loc)
	monday := weekStart(now)
	for i := range schedules {
		sch := &schedules[i]
		date := monday.AddDate(0, 0, sch.DayOfWeek-1)
		start, err := atClock(date, sch.StartTime)
		if err != nil {
			continue
		}
		end, err := atClock(date, sch.EndTime)
		if err != nil {
			continue
		}

		event := cal.AddEvent(sch.ScheduleID + "@absenta")
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(icalSummary(sch))
		if sch.Room != nil {
			event.SetLocation(sch.Room.Name)
		}
		if names := teacherNames(sch); names != "" {
			event.SetDescription(names)
		}
		event.AddRrule("FREQ=WEEKLY")
	}

	return []byte(cal.Serialize()), nil
}

// weekStart 返回 t 所在周的周一零点
func weekStart(t time.Time) time.Time {
	day := isoWeekday(t)
	y, m, d := t.AddDate(0, 0, -(day - 1)).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// atClock 将 "HH:MM" 落到指定日期
func atClock(date time.Time, clock string) (time.Time, error) {
	if err := ValidateTimeFormat(clock); err != nil {
		return time.Time{}, err
	}
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return time.Time{}, err
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, h, m, 0, 0, date.Location()), nil
}

func icalSummary(s *model.Schedule) string {
	label := s.SubjectLabel()
	if s.Class != nil {
		return label + " · " + s.Class.Name
	}
	return label
}

func teacherNames(s *model.Schedule) string {
	names := make([]string, 0, len(s.Teachers))
	for _, a := range s.Teachers {
		if a.Teacher != nil {
			names = append(names, a.Teacher.Name)
		}
	}
	return strings.Join(names, ", ")
}
