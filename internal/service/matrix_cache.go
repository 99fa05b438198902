package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MatrixCache 课表矩阵缓存，由 pkg/redis.Client 实现；为 nil 时直接读库
type MatrixCache interface {
	MatrixGeneration(ctx context.Context) (int64, error)
	BumpMatrixGeneration(ctx context.Context) error
	GetMatrix(ctx context.Context, key string, dst interface{}) (bool, error)
	SetMatrix(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// invalidateMatrix 写入提交后调用；失败只记录告警，缓存最终随 TTL 过期
func invalidateMatrix(ctx context.Context, cache MatrixCache, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.BumpMatrixGeneration(ctx); err != nil {
		logger.Warn("矩阵缓存失效失败", zap.Error(err))
	}
}
