package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestTeacherResolver_Normalize(t *testing.T) {
	r := NewTeacherResolver(nil)

	tests := []struct {
		name   string
		raw    []string
		single string
		want   []string
	}{
		{"列表优先", []string{"t-1", "t-2"}, "t-9", []string{"t-1", "t-2"}},
		{"单个字段", nil, "t-9", []string{"t-9"}},
		{"逗号分隔", nil, "t-2, t-1 ,t-2", []string{"t-2", "t-1"}},
		{"列表内含逗号分隔", []string{"t-1,t-3", "t-1", " "}, "", []string{"t-1", "t-3"}},
		{"空输入", nil, "  ", []string{}},
		{"列表全为空白时回退单个字段", []string{"", " , "}, "t-9", []string{"t-9"}},
		{"列表有效时忽略单个字段", []string{"", "t-1"}, "t-9", []string{"t-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Normalize(tt.raw, tt.single)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("期望 %v，实际 %v", tt.want, got)
			}
		})
	}
}

func TestTeacherResolver_ValidateExistence_ReportsAllMissing(t *testing.T) {
	env := newTestEnv()
	r := NewTeacherResolver(env.repo.Teacher)

	err := r.ValidateExistence(context.Background(), []string{teacherBudi, "nope-1", teacherGone, "nope-2"})

	var missing *MissingTeacherError
	if !errors.As(err, &missing) {
		t.Fatalf("期望 MissingTeacherError，实际: %v", err)
	}
	want := []string{"nope-1", teacherGone, "nope-2"}
	if !reflect.DeepEqual(missing.IDs, want) {
		t.Errorf("期望缺失 %v，实际 %v", want, missing.IDs)
	}
}

func TestTeacherResolver_ValidateExistence_OK(t *testing.T) {
	env := newTestEnv()
	r := NewTeacherResolver(env.repo.Teacher)

	if err := r.ValidateExistence(context.Background(), []string{teacherBudi, teacherSiti}); err != nil {
		t.Errorf("期望校验通过，实际: %v", err)
	}
	if err := r.ValidateExistence(context.Background(), nil); err != nil {
		t.Errorf("空列表应直接通过，实际: %v", err)
	}
}

func TestTeacherResolver_Derive(t *testing.T) {
	r := NewTeacherResolver(nil)

	none := r.Derive(nil)
	if none.PrimaryID != nil || none.IsTeamTaught {
		t.Errorf("空列表期望无主讲、非团队教学，实际 %+v", none)
	}

	single := r.Derive([]string{"t-1"})
	if single.PrimaryID == nil || *single.PrimaryID != "t-1" || single.IsTeamTaught {
		t.Errorf("单教师期望主讲 t-1、非团队教学，实际 %+v", single)
	}

	team := r.Derive([]string{"t-2", "t-1"})
	if team.PrimaryID == nil || *team.PrimaryID != "t-2" || !team.IsTeamTaught {
		t.Errorf("多教师期望主讲 t-2、团队教学，实际 %+v", team)
	}
}
