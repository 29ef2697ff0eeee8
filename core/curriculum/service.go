package curriculum

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound         = errors.New("curriculum object not found")
	ErrNoActiveSemester = errors.New("no semester is currently active")
)

type (
	// LessonFilter narrows lessons to a curricular focus. At most one of
	// SubjectID/UnitID/ChapterID is set; GradeID and SemesterID always are.
	// Lessons with no term match any SemesterID.
	LessonFilter struct {
		SubjectID  string
		UnitID     string
		ChapterID  string
		GradeID    string
		SemesterID string
	}

	// ScopeOption is a focus object a student may generate an exam for.
	ScopeOption struct {
		ID    string `db:"id" json:"id"`
		Title string `db:"title" json:"title"`
	}

	Repository interface {
		GetSubject(ctx context.Context, id string) (Subject, error)
		GetUnit(ctx context.Context, id string) (Unit, error)
		GetChapter(ctx context.Context, id string) (Chapter, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		// QueryActiveSemesters returns the curriculum's semesters whose
		// [starts_at, ends_at] interval contains `day`.
		QueryActiveSemesters(ctx context.Context, curriculumID string, day time.Time) ([]Semester, error)
		QueryLessons(ctx context.Context, filter LessonFilter) ([]Lesson, error)
		// QueryQuestionsByLessonIDs returns all questions belonging to any of
		// the lessons, choices preloaded. Order is not significant.
		QueryQuestionsByLessonIDs(ctx context.Context, lessonIDs []string) ([]Question, error)
		// QueryScopeOptions returns the distinct focus objects of the given
		// kind (subject|unit|chapter|lesson) that have at least one lesson in
		// the grade and semester.
		QueryScopeOptions(ctx context.Context, kind, gradeID, semesterID string) ([]ScopeOption, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CurrentSemester resolves the curriculum's active semester for `day`,
// fresh on every call; date boundaries cross during long-running processes
// so the result is never cached. Zero or overlapping active semesters both
// mean no semester is active.
func (svc *Service) CurrentSemester(ctx context.Context, curriculumID string, day time.Time) (Semester, error) {
	sems, err := svc.repo.QueryActiveSemesters(ctx, curriculumID, day)
	if err != nil {
		return Semester{}, errors.Wrap(err, "querying active semesters")
	}
	if len(sems) != 1 {
		return Semester{}, ErrNoActiveSemester
	}
	return sems[0], nil
}

func (svc *Service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *Service) GetUnit(ctx context.Context, id string) (Unit, error) {
	return svc.repo.GetUnit(ctx, id)
}

func (svc *Service) GetChapter(ctx context.Context, id string) (Chapter, error) {
	return svc.repo.GetChapter(ctx, id)
}

func (svc *Service) GetLesson(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLesson(ctx, id)
}

func (svc *Service) QueryLessons(ctx context.Context, filter LessonFilter) ([]Lesson, error) {
	return svc.repo.QueryLessons(ctx, filter)
}

func (svc *Service) QueryQuestions(ctx context.Context, lessonIDs []string) ([]Question, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	return svc.repo.QueryQuestionsByLessonIDs(ctx, lessonIDs)
}

func (svc *Service) ScopeOptions(ctx context.Context, kind, gradeID, semesterID string) ([]ScopeOption, error) {
	return svc.repo.QueryScopeOptions(ctx, kind, gradeID, semesterID)
}
