package service

import (
	"context"
	"testing"

	"absenta/backend/internal/dto"
	"absenta/backend/internal/model"
)

func TestTimeSlotService_List(t *testing.T) {
	env := newTestEnv()
	seedCalendar(env.st)
	env.st.slots = append(env.st.slots, model.TimeSlotDefinition{
		TimeSlotID: "slot-prev", AcademicYear: "2024/2025", DayOfWeek: monday, PeriodIndex: 1,
		StartTime: "07:15", EndTime: "08:00", SlotType: model.ActivityLesson,
	})

	all, err := env.timeSlot.List(context.Background(), &dto.TimeSlotListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(all) != 10 {
		t.Errorf("默认学年应有 10 个节次，实际 %d", len(all))
	}
	if all[0].DayOfWeek != monday || all[0].PeriodIndex != 1 || all[9].DayOfWeek != tuesday {
		t.Error("应按星期、节次排序")
	}

	day := tuesday
	tue, _ := env.timeSlot.List(context.Background(), &dto.TimeSlotListRequest{DayOfWeek: &day})
	if len(tue) != 5 || tue[3].Label != "Istirahat" {
		t.Errorf("周二应有 5 节且第 4 节为休息，实际 %+v", tue)
	}

	prev, _ := env.timeSlot.List(context.Background(), &dto.TimeSlotListRequest{AcademicYear: "2024/2025"})
	if len(prev) != 1 || prev[0].StartTime != "07:15" {
		t.Errorf("指定学年应只返回该学年节次，实际 %+v", prev)
	}
}

func TestTimeSlotService_List_Empty(t *testing.T) {
	env := newTestEnv()

	slots, err := env.timeSlot.List(context.Background(), &dto.TimeSlotListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if slots == nil || len(slots) != 0 {
		t.Error("无数据时应返回空切片而非 nil")
	}
}
