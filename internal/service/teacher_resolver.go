package service

import (
	"context"
	"strings"

	"absenta/backend/internal/repository"
)

// ── 教师分配解析 ──
//
// 外部输入的教师 ID 可能是数组、单个字段或逗号分隔字符串，
// 统一在边界处转为有序去重列表；首位即主讲教师。

// TeacherAssignment Derive 的结果
type TeacherAssignment struct {
	PrimaryID    *string
	IsTeamTaught bool
}

// TeacherResolver 教师 ID 归一化与存在性校验
type TeacherResolver struct {
	teachers repository.TeacherRepository
}

// NewTeacherResolver 创建 TeacherResolver
func NewTeacherResolver(teachers repository.TeacherRepository) *TeacherResolver {
	return &TeacherResolver{teachers: teachers}
}

// Normalize 优先使用列表输入；列表清洗后为空时回退到单个 ID。保持输入顺序并去重
func (r *TeacherResolver) Normalize(rawIDs []string, single string) []string {
	ids := splitIDs(rawIDs)
	if len(ids) == 0 {
		ids = splitIDs([]string{single})
	}
	return ids
}

// splitIDs 拆分逗号分隔的旧格式，去空白、去重
func splitIDs(source []string) []string {
	ids := make([]string, 0, len(source))
	seen := make(map[string]struct{}, len(source))
	for _, raw := range source {
		for _, part := range strings.Split(raw, ",") {
			id := strings.TrimSpace(part)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// ValidateExistence 一次批量查询，返回全部缺失的 ID
func (r *TeacherResolver) ValidateExistence(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	found, err := r.teachers.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}

	exists := make(map[string]struct{}, len(found))
	for _, t := range found {
		exists[t.TeacherID] = struct{}{}
	}

	var missing []string
	for _, id := range ids {
		if _, ok := exists[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &MissingTeacherError{IDs: missing}
	}
	return nil
}

// Derive 主讲为首位教师，多于一名即为团队教学
func (r *TeacherResolver) Derive(ids []string) TeacherAssignment {
	if len(ids) == 0 {
		return TeacherAssignment{}
	}
	primary := ids[0]
	return TeacherAssignment{PrimaryID: &primary, IsTeamTaught: len(ids) > 1}
}
