package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/platedhq/plated/core"
	"github.com/platedhq/plated/core/curriculum"
)

type curriculumRepository struct {
	db core.DB
}

var _ curriculum.Repository = (*curriculumRepository)(nil)

func NewCurriculumRepository(db core.DB) *curriculumRepository {
	return &curriculumRepository{db: db}
}

func (repo curriculumRepository) GetSubject(ctx context.Context, id string) (curriculum.Subject, error) {
	if _, err := uuid.Parse(id); err != nil {
		return curriculum.Subject{}, curriculum.ErrNotFound
	}
	var subject curriculum.Subject
	err := sqlx.GetContext(ctx, repo.db, &subject, `SELECT * FROM subject WHERE id = $1`, id)
	if err != nil {
		return curriculum.Subject{}, trapNoRowsErr(err, curriculum.ErrNotFound, "getting subject")
	}
	return subject, nil
}

func (repo curriculumRepository) GetUnit(ctx context.Context, id string) (curriculum.Unit, error) {
	if _, err := uuid.Parse(id); err != nil {
		return curriculum.Unit{}, curriculum.ErrNotFound
	}
	var unit curriculum.Unit
	err := sqlx.GetContext(ctx, repo.db, &unit, `SELECT * FROM unit WHERE id = $1`, id)
	if err != nil {
		return curriculum.Unit{}, trapNoRowsErr(err, curriculum.ErrNotFound, "getting unit")
	}
	return unit, nil
}

func (repo curriculumRepository) GetChapter(ctx context.Context, id string) (curriculum.Chapter, error) {
	if _, err := uuid.Parse(id); err != nil {
		return curriculum.Chapter{}, curriculum.ErrNotFound
	}
	var chapter curriculum.Chapter
	err := sqlx.GetContext(ctx, repo.db, &chapter, `SELECT * FROM chapter WHERE id = $1`, id)
	if err != nil {
		return curriculum.Chapter{}, trapNoRowsErr(err, curriculum.ErrNotFound, "getting chapter")
	}
	return chapter, nil
}

func (repo curriculumRepository) GetLesson(ctx context.Context, id string) (curriculum.Lesson, error) {
	if _, err := uuid.Parse(id); err != nil {
		return curriculum.Lesson{}, curriculum.ErrNotFound
	}
	var lesson curriculum.Lesson
	err := sqlx.GetContext(ctx, repo.db, &lesson, `SELECT * FROM lesson WHERE id = $1`, id)
	if err != nil {
		return curriculum.Lesson{}, trapNoRowsErr(err, curriculum.ErrNotFound, "getting lesson")
	}
	return lesson, nil
}

func (repo curriculumRepository) QueryActiveSemesters(ctx context.Context, curriculumID string, day time.Time) ([]curriculum.Semester, error) {
	if _, err := uuid.Parse(curriculumID); err != nil {
		return nil, nil
	}
	var sems []curriculum.Semester
	err := sqlx.SelectContext(ctx, repo.db, &sems,
		`SELECT * FROM semester WHERE curriculum_id = $1 AND starts_at <= $2::date AND ends_at >= $2::date`,
		curriculumID, day.UTC(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying active semesters")
	}
	return sems, nil
}

func (repo curriculumRepository) QueryLessons(ctx context.Context, filter curriculum.LessonFilter) ([]curriculum.Lesson, error) {
	var (
		joins []string
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch {
	case filter.ChapterID != "":
		conds = append(conds, "l.chapter_id = "+arg(filter.ChapterID))
	case filter.UnitID != "":
		joins = append(joins, "JOIN chapter c ON c.id = l.chapter_id")
		conds = append(conds, "c.unit_id = "+arg(filter.UnitID))
	case filter.SubjectID != "":
		joins = append(joins,
			"JOIN chapter c ON c.id = l.chapter_id",
			"JOIN unit u ON u.id = c.unit_id",
		)
		conds = append(conds, "u.subject_id = "+arg(filter.SubjectID))
	}
	conds = append(conds, "l.grade_id = "+arg(filter.GradeID))
	// lessons without a term belong to every semester
	p := arg(filter.SemesterID)
	conds = append(conds, fmt.Sprintf("(l.semester_id = %s OR l.semester_id IS NULL)", p))

	query := "SELECT l.* FROM lesson l"
	if len(joins) > 0 {
		query += " " + strings.Join(joins, " ")
	}
	query += " WHERE " + strings.Join(conds, " AND ") + " ORDER BY l.syllabus_order"

	var lessons []curriculum.Lesson
	if err := sqlx.SelectContext(ctx, repo.db, &lessons, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	return lessons, nil
}

func (repo curriculumRepository) QueryQuestionsByLessonIDs(ctx context.Context, lessonIDs []string) ([]curriculum.Question, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	var questions []curriculum.Question
	err := sqlx.SelectContext(ctx, repo.db, &questions,
		`SELECT * FROM question WHERE lesson_id = ANY($1)`, pq.Array(lessonIDs),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	if err = loadChoices(ctx, repo.db, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// loadChoices attaches each question's choices, oldest first.
func loadChoices(ctx context.Context, exec core.DBExecutor, questions []curriculum.Question) error {
	if len(questions) == 0 {
		return nil
	}
	qIDs := make([]string, 0, len(questions))
	for _, q := range questions {
		qIDs = append(qIDs, q.ID)
	}

	var choices []curriculum.Choice
	err := sqlx.SelectContext(ctx, exec, &choices,
		`SELECT * FROM choice WHERE question_id = ANY($1) ORDER BY created_at`, pq.Array(qIDs),
	)
	if err != nil {
		return errors.Wrap(err, "querying choices")
	}

	byQuestion := make(map[string][]curriculum.Choice, len(questions))
	for _, c := range choices {
		byQuestion[c.QuestionID] = append(byQuestion[c.QuestionID], c)
	}
	for i := range questions {
		questions[i].Choices = byQuestion[questions[i].ID]
	}
	return nil
}

func (repo curriculumRepository) QueryScopeOptions(ctx context.Context, kind, gradeID, semesterID string) ([]curriculum.ScopeOption, error) {
	const lessonConds = "l.grade_id = $1 AND (l.semester_id = $2 OR l.semester_id IS NULL)"

	var query string
	switch kind {
	case "subject":
		query = `SELECT DISTINCT s.id, s.title FROM subject s
			JOIN unit u ON u.subject_id = s.id
			JOIN chapter c ON c.unit_id = u.id
			JOIN lesson l ON l.chapter_id = c.id
			WHERE ` + lessonConds + ` ORDER BY s.title`
	case "unit":
		query = `SELECT DISTINCT u.id, u.title FROM unit u
			JOIN chapter c ON c.unit_id = u.id
			JOIN lesson l ON l.chapter_id = c.id
			WHERE ` + lessonConds + ` ORDER BY u.title`
	case "chapter":
		query = `SELECT DISTINCT c.id, c.title FROM chapter c
			JOIN lesson l ON l.chapter_id = c.id
			WHERE ` + lessonConds + ` ORDER BY c.title`
	case "lesson":
		query = `SELECT l.id, l.title FROM lesson l
			WHERE ` + lessonConds + ` ORDER BY l.title`
	default:
		return nil, errors.Errorf("unknown focus kind %q", kind)
	}

	var opts []curriculum.ScopeOption
	if err := sqlx.SelectContext(ctx, repo.db, &opts, query, gradeID, semesterID); err != nil {
		return nil, errors.Wrap(err, "querying scope options")
	}
	return opts, nil
}
