package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/platedhq/plated/core"
)

var (
	// errors
	ErrNotFound       = errors.New("student not found")
	ErrUsernameExists = errors.New("a student with this username already exists")
	ErrEmailExists    = errors.New("a student with this email already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string) error
		CreateStudent(ctx context.Context, st Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		GetStudentByUsernameOrEmail(ctx context.Context, username string) (Student, error)
		SetLastLogin(ctx context.Context, id string, t time.Time) error
		SetPassword(ctx context.Context, id string, hash []byte) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	st := Student{
		Name:      ns.Name,
		Username:  ns.Username,
		Email:     ns.Email,
		IsActive:  true,
		GradeID:   ns.GradeID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.SetPassword(ns.Password); err != nil {
		return Student{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateStudent(ctx, st)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (Student, error) {
	return svc.repo.GetStudentByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) SetLastLogin(ctx context.Context, st Student) (Student, error) {
	now := time.Now().UTC()
	if err := svc.repo.SetLastLogin(ctx, st.ID, now); err != nil {
		return Student{}, errors.Wrap(err, "setting last login")
	}
	st.LastLogin = now
	return st, nil
}
