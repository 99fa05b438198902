package handler

import (
	"github.com/gin-gonic/gin"

	"absenta/backend/internal/dto"
	"absenta/backend/internal/service"
	"absenta/backend/pkg/response"
)

// MatrixHandler 课表矩阵 HTTP 处理器
type MatrixHandler struct {
	matrixSvc service.MatrixService
}

// NewMatrixHandler 创建 MatrixHandler
func NewMatrixHandler(matrixSvc service.MatrixService) *MatrixHandler {
	return &MatrixHandler{matrixSvc: matrixSvc}
}

// GetMatrix 班级 × 星期 × 节次矩阵
// GET /api/v1/schedule-matrix
func (h *MatrixHandler) GetMatrix(c *gin.Context) {
	var req dto.MatrixRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	matrix, err := h.matrixSvc.Build(c.Request.Context(), &req)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, matrix)
}

// ApplyBatch 批量编辑单日单元格，全部成功或全部回滚
// POST /api/v1/schedule-matrix/batch
func (h *MatrixHandler) ApplyBatch(c *gin.Context) {
	var req dto.MatrixBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.matrixSvc.ApplyBatch(c.Request.Context(), &req, callerID)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}
