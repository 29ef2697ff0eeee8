package main

import (
	"context"

	"github.com/platedhq/plated/core/student"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	st, err := cli.stRepo.GetStudentByUsernameOrEmail(context.Background(), uname)
	if err != nil {
		return err
	}
	return cli.setPassword(st, pwd)
}

func (cli *commandLine) setPassword(st student.Student, pwd string) error {
	if err := st.SetPassword(pwd); err != nil {
		return err
	}
	return cli.stRepo.SetPassword(context.Background(), st.ID, st.PasswordHash)
}
