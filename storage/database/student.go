package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/platedhq/plated/core"
	"github.com/platedhq/plated/core/student"
)

type studentRepository struct {
	db core.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db core.DB) *studentRepository {
	return &studentRepository{db: db}
}

// studentCols selects a student with the curriculum resolved from the grade.
const studentCols = `SELECT s.*, g.curriculum_id FROM student s JOIN grade g ON g.id = s.grade_id`

func (repo studentRepository) CheckUsernameUniqueness(ctx context.Context, username, email string) error {
	var row struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	err := sqlx.GetContext(ctx, repo.db, &row,
		`SELECT username, email FROM student WHERE username = $1 OR (email = $2 AND $2 <> '') LIMIT 1`,
		username, email,
	)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return nil
		}
		return errors.Wrap(err, "checking username uniqueness")
	}
	if row.Username == username {
		return student.ErrUsernameExists
	}
	return student.ErrEmailExists
}

func (repo studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO student (id, name, username, email, is_active, grade_id, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		st.ID, st.Name, st.Username, st.Email, st.IsActive, st.GradeID, st.PasswordHash, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "creating student")
	}

	if err = sqlx.GetContext(ctx, repo.db, &st.CurriculumID,
		`SELECT curriculum_id FROM grade WHERE id = $1`, st.GradeID,
	); err != nil {
		return student.Student{}, errors.Wrap(err, "resolving student curriculum")
	}
	return st, nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return student.Student{}, student.ErrNotFound
	}
	var st student.Student
	err := sqlx.GetContext(ctx, repo.db, &st, studentCols+` WHERE s.id = $1`, id)
	if err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "getting student")
	}
	return st, nil
}

func (repo studentRepository) GetStudentByUsernameOrEmail(ctx context.Context, username string) (student.Student, error) {
	var st student.Student
	err := sqlx.GetContext(ctx, repo.db, &st,
		studentCols+` WHERE s.username = $1 OR (s.email = $1 AND s.email <> '')`, username,
	)
	if err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "getting student")
	}
	return st, nil
}

func (repo studentRepository) SetLastLogin(ctx context.Context, id string, t time.Time) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE student SET last_login = $2, updated_at = $2 WHERE id = $1`, id, t,
	)
	if err != nil {
		return errors.Wrap(err, "setting last login")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "setting last login")
	} else if n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo studentRepository) SetPassword(ctx context.Context, id string, hash []byte) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE student SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, hash, time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "setting password")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "setting password")
	} else if n == 0 {
		return student.ErrNotFound
	}
	return nil
}
