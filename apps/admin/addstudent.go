package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/platedhq/plated/core"
	"github.com/platedhq/plated/core/student"
)

// addStudent enrolls a student, or resets their password if they already exist.
func (cli *commandLine) addStudent(uname, email, name, gradeID, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	st, err := cli.stRepo.GetStudentByUsernameOrEmail(ctx, uname)
	if err == nil {
		return cli.setPassword(st, pwd)
	}
	if errors.Cause(err) != student.ErrNotFound {
		return err
	}

	now := time.Now().UTC()
	st = student.Student{
		Name:      name,
		Username:  uname,
		Email:     email,
		IsActive:  true,
		GradeID:   gradeID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.stRepo.CreateStudent(ctx, st)
	return err
}
