package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"absenta/backend/internal/dto"
	"absenta/backend/internal/service"
	"absenta/backend/pkg/response"
)

// ── 课表模块错误码 ──

const (
	codeBindFailed         = 14000
	codeInvalidTimeFormat  = 14001
	codeInvalidTimeOrder   = 14002
	codeRequiredField      = 14003
	codeMissingTeacher     = 14004
	codeLastTeacher        = 14005
	codeInvalidReference   = 14006
	codeClassConflict      = 14101
	codeTeacherConflict    = 14102
	codeRoomConflict       = 14103
	codeDuplicateTeacher   = 14104
	codeScheduleNotFound   = 14201
	codeAssignmentNotFound = 14202
	codeCalendarNotReady   = 14301
	codeTimeSlotUndefined  = 14302
)

// bindError 参数绑定失败：请求体超限返回 413，校验失败在 details 中列出字段
func bindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s:%s", fe.Field(), fe.Tag()))
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, codeBindFailed, "参数校验失败", strings.Join(fields, ","))
		return
	}
	response.BadRequest(c, codeBindFailed, "参数校验失败")
}

// handleScheduleError 统一处理课表模块业务错误
func handleScheduleError(c *gin.Context, err error) {
	var (
		changeErr *service.BatchChangeError
		conflict  *service.ConflictError
		reqErr    *service.RequiredFieldError
		missing   *service.MissingTeacherError
		storeErr  *service.StorageError
	)

	// 批量编辑：在 details 中标明失败的变更序号
	details := ""
	if errors.As(err, &changeErr) {
		details = fmt.Sprintf("change_index=%d", changeErr.Index)
	}

	switch {
	case errors.As(err, &storeErr):
		response.InternalErrorWithID(c, storeErr.CorrelationID)
	case errors.As(err, &conflict):
		response.ErrorWithData(c, http.StatusConflict, conflictCode(conflict.Type), conflict.Message, toConflictResponse(conflict))
	case errors.As(err, &reqErr):
		respond(c, http.StatusBadRequest, codeRequiredField, reqErr.Error(), details)
	case errors.As(err, &missing):
		respond(c, http.StatusBadRequest, codeMissingTeacher, missing.Error(), details)
	case errors.Is(err, service.ErrInvalidTimeFormat):
		respond(c, http.StatusBadRequest, codeInvalidTimeFormat, service.ErrInvalidTimeFormat.Error(), details)
	case errors.Is(err, service.ErrInvalidTimeOrder):
		respond(c, http.StatusBadRequest, codeInvalidTimeOrder, service.ErrInvalidTimeOrder.Error(), details)
	case errors.Is(err, service.ErrLastTeacher):
		respond(c, http.StatusBadRequest, codeLastTeacher, service.ErrLastTeacher.Error(), details)
	case errors.Is(err, service.ErrInvalidReference):
		respond(c, http.StatusBadRequest, codeInvalidReference, service.ErrInvalidReference.Error(), details)
	case errors.Is(err, service.ErrDuplicateAssignment):
		respond(c, http.StatusConflict, codeDuplicateTeacher, service.ErrDuplicateAssignment.Error(), details)
	case errors.Is(err, service.ErrScheduleNotFound):
		respond(c, http.StatusNotFound, codeScheduleNotFound, service.ErrScheduleNotFound.Error(), details)
	case errors.Is(err, service.ErrAssignmentNotFound):
		respond(c, http.StatusNotFound, codeAssignmentNotFound, service.ErrAssignmentNotFound.Error(), details)
	case errors.Is(err, service.ErrCalendarNotInitialized):
		respond(c, http.StatusConflict, codeCalendarNotReady, service.ErrCalendarNotInitialized.Error(), details)
	case errors.Is(err, service.ErrTimeSlotUndefined):
		respond(c, http.StatusBadRequest, codeTimeSlotUndefined, service.ErrTimeSlotUndefined.Error(), details)
	default:
		response.InternalError(c)
	}
}

func respond(c *gin.Context, status, code int, message, details string) {
	if details == "" {
		response.Error(c, status, code, message)
		return
	}
	response.ErrorWithDetails(c, status, code, message, details)
}

func conflictCode(t service.ConflictType) int {
	switch t {
	case service.ConflictTeacher:
		return codeTeacherConflict
	case service.ConflictRoom:
		return codeRoomConflict
	default:
		return codeClassConflict
	}
}

func toConflictResponse(e *service.ConflictError) dto.ConflictResponse {
	return dto.ConflictResponse{
		Type:         string(e.Type),
		TeacherID:    e.TeacherID,
		ScheduleID:   e.Conflict.ScheduleID,
		StartTime:    e.Conflict.StartTime,
		EndTime:      e.Conflict.EndTime,
		SubjectLabel: e.Conflict.SubjectLabel,
	}
}
