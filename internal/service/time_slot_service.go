package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"absenta/backend/internal/dto"
	"absenta/backend/internal/repository"
)

// TimeSlotService 作息时间表查询接口（参考数据，只读）
type TimeSlotService interface {
	List(ctx context.Context, req *dto.TimeSlotListRequest) ([]dto.TimeSlotResponse, error)
}

type timeSlotService struct {
	repo         *repository.Repository
	academicYear string
	logger       *zap.Logger
}

// NewTimeSlotService 创建 TimeSlotService 实例
func NewTimeSlotService(repo *repository.Repository, academicYear string, logger *zap.Logger) TimeSlotService {
	return &timeSlotService{repo: repo, academicYear: academicYear, logger: logger}
}

func (s *timeSlotService) List(ctx context.Context, req *dto.TimeSlotListRequest) ([]dto.TimeSlotResponse, error) {
	year := strings.TrimSpace(req.AcademicYear)
	if year == "" {
		year = s.academicYear
	}

	slots, err := s.repo.TimeSlot.List(ctx, year, req.DayOfWeek)
	if err != nil {
		return nil, storageError(s.logger, "列出作息时间失败", err, zap.String("academic_year", year))
	}

	result := make([]dto.TimeSlotResponse, 0, len(slots))
	for _, slot := range slots {
		result = append(result, dto.TimeSlotResponse{
			ID:              slot.TimeSlotID,
			AcademicYear:    slot.AcademicYear,
			DayOfWeek:       slot.DayOfWeek,
			PeriodIndex:     slot.PeriodIndex,
			StartTime:       slot.StartTime,
			EndTime:         slot.EndTime,
			DurationMinutes: slot.DurationMinutes,
			SlotType:        slot.SlotType,
			Label:           slot.Label,
		})
	}
	return result, nil
}
