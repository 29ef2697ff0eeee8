package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/platedhq/plated/core"
	"github.com/platedhq/plated/core/exam"
)

type examRepository struct {
	db core.DB
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db core.DB) *examRepository {
	return &examRepository{db: db}
}

// examCols selects an exam with its question count; listings do not load the
// question set itself.
const examCols = `SELECT e.*,
	(SELECT COUNT(*) FROM exam_question eq WHERE eq.exam_id = e.id) AS question_count
	FROM exam e`

func (repo examRepository) CreateExam(ctx context.Context, ex exam.Exam) (exam.Exam, error) {
	if ex.ID == "" {
		ex.ID = uuid.New().String()
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO exam (id, student_id, subject_id, unit_id, chapter_id, lesson_id, duration, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ex.ID, ex.StudentID, ex.SubjectID, ex.UnitID, ex.ChapterID, ex.LessonID, ex.Duration, ex.CreatedAt, ex.UpdatedAt,
	)
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "inserting exam")
	}

	for i, q := range ex.Questions {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO exam_question (exam_id, question_id, position) VALUES ($1, $2, $3)`,
			ex.ID, q.ID, i,
		)
		if err != nil {
			return exam.Exam{}, errors.Wrap(err, "attaching exam question")
		}
	}

	if err = tx.Commit(); err != nil {
		return exam.Exam{}, errors.Wrap(err, "committing exam")
	}
	ex.QuestionCount = len(ex.Questions)
	return ex, nil
}

func (repo examRepository) GetExam(ctx context.Context, id string) (exam.Exam, error) {
	if _, err := uuid.Parse(id); err != nil {
		return exam.Exam{}, exam.ErrNotFound
	}
	var ex exam.Exam
	err := sqlx.GetContext(ctx, repo.db, &ex, examCols+` WHERE e.id = $1`, id)
	if err != nil {
		return exam.Exam{}, trapNoRowsErr(err, exam.ErrNotFound, "getting exam")
	}

	// fixed question set, in presentation order
	err = sqlx.SelectContext(ctx, repo.db, &ex.Questions,
		`SELECT q.* FROM question q
		JOIN exam_question eq ON eq.question_id = q.id
		WHERE eq.exam_id = $1 ORDER BY eq.position`, ex.ID,
	)
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "querying exam questions")
	}
	if err = loadChoices(ctx, repo.db, ex.Questions); err != nil {
		return exam.Exam{}, err
	}
	return ex, nil
}

func (repo examRepository) QueryExams(ctx context.Context, studentID string, filter *exam.QueryFilter, page core.Pagination) ([]exam.Exam, int, error) {
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conds := []string{"e.student_id = " + arg(studentID)}
	if filter != nil {
		if kind, ok := filter.FocusKind(); ok {
			col := scopeColumn(kind)
			if filter.FocusID != "" {
				conds = append(conds, col+" = "+arg(filter.FocusID))
			} else {
				conds = append(conds, col+" IS NOT NULL")
			}
		}
		if filter.IsSolved != nil {
			if *filter.IsSolved {
				conds = append(conds, "e.solved_at IS NOT NULL")
			} else {
				conds = append(conds, "e.solved_at IS NULL")
			}
		}
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var count int
	if err := sqlx.GetContext(ctx, repo.db, &count, "SELECT COUNT(*) FROM exam e"+where, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting exams")
	}

	query := examCols + where +
		" ORDER BY " + core.DBOrdering{Field: "e.created_at"}.String() + ", e.id DESC" +
		" LIMIT " + arg(page.Limit()) + " OFFSET " + arg(page.Offset())
	var exams []exam.Exam
	if err := sqlx.SelectContext(ctx, repo.db, &exams, query, args...); err != nil {
		return nil, 0, errors.Wrap(err, "querying exams")
	}
	return exams, count, nil
}

func scopeColumn(kind exam.FocusKind) string {
	switch kind {
	case exam.FocusSubject:
		return "e.subject_id"
	case exam.FocusUnit:
		return "e.unit_id"
	case exam.FocusChapter:
		return "e.chapter_id"
	default:
		return "e.lesson_id"
	}
}

func (repo examRepository) GradeExam(ctx context.Context, examID string, answers []exam.StudentAnswer, score int, solvedAt time.Time) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, ans := range answers {
		if ans.ID == "" {
			ans.ID = uuid.New().String()
		}
		// one answer per (exam, student, question); a replay keeps the first
		_, err = tx.ExecContext(ctx,
			`INSERT INTO student_answer (id, exam_id, student_id, question_id, choice_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (exam_id, student_id, question_id) DO NOTHING`,
			ans.ID, ans.ExamID, ans.StudentID, ans.QuestionID, ans.ChoiceID, solvedAt,
		)
		if err != nil {
			return errors.Wrap(err, "inserting answer")
		}
	}

	// check-and-set on solved_at: the transition happens at most once
	res, err := tx.ExecContext(ctx,
		`UPDATE exam SET score = $2, solved_at = $3, updated_at = $3 WHERE id = $1 AND solved_at IS NULL`,
		examID, score, solvedAt,
	)
	if err != nil {
		return errors.Wrap(err, "solving exam")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "solving exam")
	} else if n == 0 {
		return exam.ErrExamSolved
	}

	return errors.Wrap(tx.Commit(), "committing grade")
}

func (repo examRepository) QueryAnswers(ctx context.Context, examID, studentID string) ([]exam.StudentAnswer, error) {
	var answers []exam.StudentAnswer
	err := sqlx.SelectContext(ctx, repo.db, &answers,
		`SELECT * FROM student_answer WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying answers")
	}
	return answers, nil
}

func (repo examRepository) DeleteExam(ctx context.Context, id string) error {
	// question links and answers cascade
	res, err := repo.db.ExecContext(ctx, `DELETE FROM exam WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting exam")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting exam")
	} else if n == 0 {
		return exam.ErrNotFound
	}
	return nil
}
