package exam

import (
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/platedhq/plated/core"
)

func TestParseFocusKind(t *testing.T) {
	tests := []struct {
		in      string
		want    FocusKind
		wantErr bool
	}{
		{in: "subject", want: FocusSubject},
		{in: "unit", want: FocusUnit},
		{in: "chapter", want: FocusChapter},
		{in: "lesson", want: FocusLesson},
		{in: " Lesson ", want: FocusLesson},
		{in: "SUBJECT", want: FocusSubject},
		{in: "", wantErr: true},
		{in: "grade", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFocusKind(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseFocusKind(%q) expected error, got %q", tt.in, got)
				}
				if _, ok := err.(*core.ValidationError); !ok {
					t.Errorf("ParseFocusKind(%q) error = %T, want *core.ValidationError", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFocusKind(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFocusKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFocusKind_ExamDuration(t *testing.T) {
	tests := []struct {
		kind FocusKind
		want time.Duration
	}{
		{FocusSubject, 120 * time.Minute},
		{FocusUnit, 90 * time.Minute},
		{FocusChapter, 60 * time.Minute},
		{FocusLesson, 30 * time.Minute},
	}
	for _, tt := range tests {
		if got := tt.kind.ExamDuration(); got != tt.want {
			t.Errorf("%s.ExamDuration() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestExam_ScorePercentage(t *testing.T) {
	tests := []struct {
		name string
		ex   Exam
		want float64
	}{
		{name: "unsolved", ex: Exam{QuestionCount: 10}, want: 0},
		{name: "no questions", ex: Exam{Score: null.IntFrom(0)}, want: 0},
		{name: "7 of 10", ex: Exam{QuestionCount: 10, Score: null.IntFrom(7)}, want: 70},
		{name: "full marks", ex: Exam{QuestionCount: 25, Score: null.IntFrom(25)}, want: 100},
		{name: "zero score", ex: Exam{QuestionCount: 10, Score: null.IntFrom(0)}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ex.ScorePercentage(); got != tt.want {
				t.Errorf("ScorePercentage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExam_FocusKind(t *testing.T) {
	id := null.StringFrom("33333333-3333-4333-8333-333333333333")

	tests := []struct {
		name string
		ex   Exam
		want FocusKind
	}{
		{name: "subject", ex: Exam{SubjectID: id}, want: FocusSubject},
		{name: "unit", ex: Exam{UnitID: id}, want: FocusUnit},
		{name: "chapter", ex: Exam{ChapterID: id}, want: FocusChapter},
		{name: "lesson", ex: Exam{LessonID: id}, want: FocusLesson},
		{name: "none", ex: Exam{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ex.FocusKind(); got != tt.want {
				t.Errorf("FocusKind() = %q, want %q", got, tt.want)
			}
			if tt.want != "" && tt.ex.FocusID() != id.String {
				t.Errorf("FocusID() = %q, want %q", tt.ex.FocusID(), id.String)
			}
		})
	}
}

func TestQueryFilter_Clean(t *testing.T) {
	tests := []struct {
		name    string
		filter  QueryFilter
		want    string
		wantErr bool
	}{
		{name: "empty", filter: QueryFilter{}, want: ""},
		{name: "valid focus", filter: QueryFilter{Focus: "Chapter"}, want: "chapter"},
		{name: "unknown focus", filter: QueryFilter{Focus: "grade"}, wantErr: true},
		{name: "valid filter id", filter: QueryFilter{Focus: "chapter", FocusID: "33333333-3333-4333-8333-333333333333"}, want: "chapter"},
		{name: "malformed filter id", filter: QueryFilter{Focus: "chapter", FocusID: "abc"}, wantErr: true},
		{name: "malformed filter id without focus", filter: QueryFilter{FocusID: "abc"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Clean()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Clean() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Clean() unexpected error: %v", err)
			}
			if tt.filter.Focus != tt.want {
				t.Errorf("Clean() focus = %q, want %q", tt.filter.Focus, tt.want)
			}
		})
	}
}
