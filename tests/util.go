package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/platedhq/plated/core/curriculum"
	"github.com/platedhq/plated/core/student"
	inmemdb "github.com/platedhq/plated/storage/database/inmem"
)

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	name, uname, email, pwd, gradeID, curriculumID string,
	isActive bool,
) student.Student {
	t.Helper()

	tstamp := time.Now().UTC()
	st := student.Student{
		Name:         name,
		Username:     uname,
		Email:        email,
		IsActive:     isActive,
		GradeID:      gradeID,
		CurriculumID: curriculumID,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	}
	if pwd != "" {
		if err := st.SetPassword(pwd); err != nil {
			t.Fatalf("CreateStudent() failed: %v", err)
		}
	}
	st, err := repo.CreateStudent(context.Background(), st)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return st
}

// Curriculum is a small seeded content hierarchy:
// one subject > one unit > one chapter > two lessons, with an active semester.
type Curriculum struct {
	CurriculumID string
	GradeID      string
	Semester     curriculum.Semester
	Subject      curriculum.Subject
	Unit         curriculum.Unit
	Chapter      curriculum.Chapter
	Lessons      []curriculum.Lesson
}

func SeedCurriculum(t *testing.T, db *inmemdb.DB) Curriculum {
	t.Helper()

	curriculumID := "11111111-1111-4111-8111-111111111111"
	gradeID := "22222222-2222-4222-8222-222222222222"

	today := time.Now().UTC()
	sem := db.AddSemester(curriculum.Semester{
		CurriculumID: curriculumID,
		Name:         curriculum.SemesterFirstTerm,
		StartsAt:     today.AddDate(0, -1, 0),
		EndsAt:       today.AddDate(0, 1, 0),
	})

	subject := db.AddSubject(curriculum.Subject{Title: "Algebra"})
	unit := db.AddUnit(curriculum.Unit{SubjectID: subject.ID, Title: "Linear Equations", Number: 1})
	chapter := db.AddChapter(curriculum.Chapter{UnitID: unit.ID, Title: "Single Variable", Number: 1})

	lessons := []curriculum.Lesson{
		db.AddLesson(curriculum.Lesson{
			ChapterID:     chapter.ID,
			Title:         "Solving for x",
			SyllabusOrder: 1,
			GradeID:       gradeID,
			SemesterID:    null.StringFrom(sem.ID),
			CreatedAt:     today,
			UpdatedAt:     today,
		}),
		db.AddLesson(curriculum.Lesson{
			ChapterID:     chapter.ID,
			Title:         "Word Problems",
			SyllabusOrder: 2,
			GradeID:       gradeID,
			CreatedAt:     today,
			UpdatedAt:     today,
		}),
	}

	return Curriculum{
		CurriculumID: curriculumID,
		GradeID:      gradeID,
		Semester:     sem,
		Subject:      subject,
		Unit:         unit,
		Chapter:      chapter,
		Lessons:      lessons,
	}
}

// SeedQuestions adds `n` questions to the lesson, each with one correct and
// two wrong choices.
func SeedQuestions(t *testing.T, db *inmemdb.DB, lessonID string, n int) []curriculum.Question {
	t.Helper()

	now := time.Now().UTC()
	questions := make([]curriculum.Question, 0, n)
	for i := 0; i < n; i++ {
		q := db.AddQuestion(curriculum.Question{
			LessonID:   lessonID,
			Body:       "What is x?",
			Difficulty: curriculum.DifficultyMedium,
			CreatedAt:  now,
			UpdatedAt:  now,
			Choices: []curriculum.Choice{
				{Body: null.StringFrom("1"), IsCorrect: true, CreatedAt: now},
				{Body: null.StringFrom("2"), CreatedAt: now},
				{Body: null.StringFrom("3"), CreatedAt: now},
			},
		})
		questions = append(questions, q)
	}
	return questions
}
