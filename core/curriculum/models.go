package curriculum

import (
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/platedhq/plated/core"
)

// Question difficulties
const (
	DifficultyEasy     = "EASY"
	DifficultyMedium   = "MEDIUM"
	DifficultyHard     = "HARD"
	DifficultyVeryHard = "VERY_HARD"
)

// Semester terms. NoTerm is for grades with a single full-year term.
const (
	SemesterFirstTerm    = "FIRST_TERM"
	SemesterSecondTerm   = "SECOND_TERM"
	SemesterNoTerm       = "NO_TERM"
	SemesterSummerCourse = "SUMMER_COURSE"
)

var errChoiceContent = errors.New("a choice must hold either a body or a figure, not both, not neither")

type Curriculum struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type Grade struct {
	ID           string `db:"id" json:"id"`
	CurriculumID string `db:"curriculum_id" json:"curriculum_id"`
	Name         string `db:"name" json:"name"`
	StageOrder   int    `db:"stage_order" json:"stage_order"`
}

type Semester struct {
	ID           string    `db:"id" json:"id"`
	CurriculumID string    `db:"curriculum_id" json:"curriculum_id"`
	Name         string    `db:"name" json:"name"`
	StartsAt     time.Time `db:"starts_at" json:"starts_at"` // date, UTC
	EndsAt       time.Time `db:"ends_at" json:"ends_at"`     // date, UTC
}

// Contains reports whether `day` falls within the semester's date bounds (inclusive).
func (s Semester) Contains(day time.Time) bool {
	d := day.UTC()
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(s.StartsAt) && !d.After(s.EndsAt)
}

type Subject struct {
	ID      string      `db:"id" json:"id"`
	Title   string      `db:"title" json:"title"`
	Caption null.String `db:"caption" json:"caption"`
}

type Unit struct {
	ID        string `db:"id" json:"id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
	Title     string `db:"title" json:"title"`
	Number    int    `db:"number" json:"number"`
}

type Chapter struct {
	ID     string `db:"id" json:"id"`
	UnitID string `db:"unit_id" json:"unit_id"`
	Title  string `db:"title" json:"title"`
	Number int    `db:"number" json:"number"`
}

type Lesson struct {
	ID            string      `db:"id" json:"id"`
	ChapterID     string      `db:"chapter_id" json:"chapter_id"`
	Title         string      `db:"title" json:"title"`
	SyllabusOrder int         `db:"syllabus_order" json:"syllabus_order"`
	GradeID       string      `db:"grade_id" json:"grade_id"`
	SemesterID    null.String `db:"semester_id" json:"semester_id"` // null = "no term", always in scope
	Intro         null.String `db:"intro" json:"intro"`
	Goals         null.String `db:"goals" json:"goals"`
	Details       null.String `db:"details" json:"details"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"` // UTC
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"` // UTC
}

// InTerm reports whether the lesson is in scope for the given semester.
// Lessons without a term are always in scope.
func (l Lesson) InTerm(semesterID string) bool {
	return !l.SemesterID.Valid || l.SemesterID.String == semesterID
}

type Question struct {
	ID         string      `db:"id" json:"id"`
	LessonID   string      `db:"lesson_id" json:"lesson_id"`
	Body       string      `db:"body" json:"body"`
	Difficulty string      `db:"difficulty" json:"difficulty"`
	Solution   null.String `db:"solution" json:"-"`
	Figure     null.String `db:"figure" json:"figure"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"` // UTC
	UpdatedAt  time.Time   `db:"updated_at" json:"updated_at"` // UTC
	Choices    []Choice    `db:"-" json:"choices"`
}

// Choice returns the question's choice with the given ID.
func (q Question) Choice(id string) (Choice, bool) {
	for _, c := range q.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// CorrectChoice returns the question's correct choice. Exactly one choice per
// question is correct; the storage layer enforces this.
func (q Question) CorrectChoice() (Choice, bool) {
	for _, c := range q.Choices {
		if c.IsCorrect {
			return c, true
		}
	}
	return Choice{}, false
}

type Choice struct {
	ID         string      `db:"id" json:"id"`
	QuestionID string      `db:"question_id" json:"question_id"`
	Body       null.String `db:"body" json:"body"`
	Figure     null.String `db:"figure" json:"figure"`
	IsCorrect  bool        `db:"is_correct" json:"-"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"` // UTC
}

// Clean validates the content invariant: a choice holds either text or a
// figure reference, never both and never neither.
func (c Choice) Clean() error {
	if c.Body.Valid == c.Figure.Valid {
		return core.NewValidationError(errChoiceContent)
	}
	return nil
}
