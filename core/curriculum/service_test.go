package curriculum_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/platedhq/plated/core/curriculum"
	inmemdb "github.com/platedhq/plated/storage/database/inmem"
	testutil "github.com/platedhq/plated/tests"
)

func TestService_CurrentSemester(t *testing.T) {
	today := time.Now().UTC()
	curriculumID := "11111111-1111-4111-8111-111111111111"

	active := curriculum.Semester{
		CurriculumID: curriculumID,
		Name:         curriculum.SemesterFirstTerm,
		StartsAt:     today.AddDate(0, -1, 0),
		EndsAt:       today.AddDate(0, 1, 0),
	}
	past := curriculum.Semester{
		CurriculumID: curriculumID,
		Name:         curriculum.SemesterSecondTerm,
		StartsAt:     today.AddDate(-1, 0, 0),
		EndsAt:       today.AddDate(0, -2, 0),
	}
	overlapping := curriculum.Semester{
		CurriculumID: curriculumID,
		Name:         curriculum.SemesterSummerCourse,
		StartsAt:     today.AddDate(0, 0, -7),
		EndsAt:       today.AddDate(0, 0, 7),
	}
	otherCurriculum := curriculum.Semester{
		CurriculumID: "99999999-9999-4999-8999-999999999999",
		Name:         curriculum.SemesterFirstTerm,
		StartsAt:     today.AddDate(0, -1, 0),
		EndsAt:       today.AddDate(0, 1, 0),
	}

	tests := []struct {
		name    string
		seed    []curriculum.Semester
		want    string // semester name
		wantErr error
	}{
		{name: "no semesters", wantErr: curriculum.ErrNoActiveSemester},
		{name: "none active", seed: []curriculum.Semester{past}, wantErr: curriculum.ErrNoActiveSemester},
		{name: "one active", seed: []curriculum.Semester{active, past}, want: active.Name},
		{name: "overlapping actives", seed: []curriculum.Semester{active, overlapping}, wantErr: curriculum.ErrNoActiveSemester},
		{name: "active in another curriculum", seed: []curriculum.Semester{otherCurriculum}, wantErr: curriculum.ErrNoActiveSemester},
		{name: "scoped per curriculum", seed: []curriculum.Semester{active, otherCurriculum}, want: active.Name},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := inmemdb.NewDB()
			for _, sem := range tt.seed {
				db.AddSemester(sem)
			}
			svc := curriculum.NewService(inmemdb.NewCurriculumRepository(db))

			sem, err := svc.CurrentSemester(context.Background(), curriculumID, today)
			if tt.wantErr != nil {
				if errors.Cause(err) != tt.wantErr {
					t.Fatalf("CurrentSemester() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CurrentSemester() failed: %v", err)
			}
			if sem.Name != tt.want {
				t.Errorf("CurrentSemester() = %s, want %s", sem.Name, tt.want)
			}
		})
	}
}

func TestSemester_Contains(t *testing.T) {
	sem := curriculum.Semester{
		StartsAt: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		day  time.Time
		want bool
	}{
		{name: "before", day: time.Date(2026, 1, 9, 23, 0, 0, 0, time.UTC), want: false},
		{name: "first day", day: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), want: true},
		{name: "first day, late", day: time.Date(2026, 1, 10, 23, 59, 0, 0, time.UTC), want: true},
		{name: "mid term", day: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC), want: true},
		{name: "last day", day: time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC), want: true},
		{name: "after", day: time.Date(2026, 6, 11, 0, 0, 0, 0, time.UTC), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sem.Contains(tt.day); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.day, got, tt.want)
			}
		})
	}
}

func TestService_QueryLessons_termScoping(t *testing.T) {
	db := inmemdb.NewDB()
	cur := testutil.SeedCurriculum(t, db)
	svc := curriculum.NewService(inmemdb.NewCurriculumRepository(db))

	// Lessons[0] is bound to the active semester; Lessons[1] has no term and
	// belongs to every semester.
	lessons, err := svc.QueryLessons(context.Background(), curriculum.LessonFilter{
		ChapterID:  cur.Chapter.ID,
		GradeID:    cur.GradeID,
		SemesterID: cur.Semester.ID,
	})
	if err != nil {
		t.Fatalf("QueryLessons() failed: %v", err)
	}
	if len(lessons) != 2 {
		t.Fatalf("QueryLessons() returned %d lessons, want 2", len(lessons))
	}

	// a different semester only sees the untermed lesson
	lessons, err = svc.QueryLessons(context.Background(), curriculum.LessonFilter{
		ChapterID:  cur.Chapter.ID,
		GradeID:    cur.GradeID,
		SemesterID: "99999999-9999-4999-8999-999999999999",
	})
	if err != nil {
		t.Fatalf("QueryLessons() failed: %v", err)
	}
	if len(lessons) != 1 || lessons[0].ID != cur.Lessons[1].ID {
		t.Fatalf("QueryLessons() = %+v, want only the untermed lesson", lessons)
	}
}

func TestChoice_Clean(t *testing.T) {
	body := "an answer"
	figure := "figures/x.png"

	newChoice := func(body, figure string) curriculum.Choice {
		var c curriculum.Choice
		if body != "" {
			c.Body.SetValid(body)
		}
		if figure != "" {
			c.Figure.SetValid(figure)
		}
		return c
	}

	tests := []struct {
		name    string
		choice  curriculum.Choice
		wantErr bool
	}{
		{name: "body only", choice: newChoice(body, "")},
		{name: "figure only", choice: newChoice("", figure)},
		{name: "both", choice: newChoice(body, figure), wantErr: true},
		{name: "neither", choice: newChoice("", ""), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.choice.Clean()
			if tt.wantErr && err == nil {
				t.Error("Clean() expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Clean() unexpected error: %v", err)
			}
		})
	}
}
