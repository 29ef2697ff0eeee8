package main

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/platedhq/plated/core/student"
	inmemdb "github.com/platedhq/plated/storage/database/inmem"
	testutil "github.com/platedhq/plated/tests"
)

func mockPassword(pwd string) func() {
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	return func() { readPasswordFunc = orig }
}

func newTestCLI(db *inmemdb.DB) *commandLine {
	return &commandLine{
		db:     &sqlx.DB{},
		stRepo: inmemdb.NewStudentRepository(db),
	}
}

func TestCLI_run_help(t *testing.T) {
	defer mockPassword("")()
	cli := newTestCLI(inmemdb.NewDB())

	tests := []struct {
		name string
		args []string
	}{
		{name: "no command", args: []string{"admin"}},
		{name: "unknown command", args: []string{"admin", "frobnicate"}},
		{name: "migrate without subcommand", args: []string{"admin", "migrate"}},
		{name: "addstudent missing flags", args: []string{"admin", "addstudent", "-username", "janedoe"}},
		{name: "resetpassword missing username", args: []string{"admin", "resetpassword"}},
		{name: "resetpassword empty password", args: []string{"admin", "resetpassword", "-username", "janedoe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(tt.args); err != errHelp {
				t.Errorf("run(%v) error = %v, want errHelp", tt.args, err)
			}
		})
	}
}

func TestCLI_migrate(t *testing.T) {
	type call struct {
		command string
		dir     string
		args    []string
	}
	var got call
	origGoose := gooseRunFunc
	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		got = call{command: command, dir: dir, args: args}
		return nil
	}
	defer func() { gooseRunFunc = origGoose }()

	cli := newTestCLI(inmemdb.NewDB())

	tests := []struct {
		name string
		args []string
		want call
	}{
		{name: "up", args: []string{"admin", "migrate", "up"}, want: call{command: "up", dir: "migrations", args: []string{}}},
		{name: "down", args: []string{"admin", "migrate", "down"}, want: call{command: "down", dir: "migrations", args: []string{}}},
		{name: "status", args: []string{"admin", "migrate", "status"}, want: call{command: "status", dir: "migrations", args: []string{}}},
		{name: "up-to", args: []string{"admin", "migrate", "up-to", "00001"}, want: call{command: "up-to", dir: "migrations", args: []string{"00001"}}},
		{name: "create", args: []string{"admin", "migrate", "create", "add_exam_notes", "sql"}, want: call{command: "create", dir: "migrations", args: []string{"add_exam_notes", "sql"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(tt.args); err != nil {
				t.Fatalf("run(%v) failed: %v", tt.args, err)
			}
			if got.command != tt.want.command || got.dir != tt.want.dir {
				t.Errorf("migrate ran (%s, %s), want (%s, %s)", got.command, got.dir, tt.want.command, tt.want.dir)
			}
			if len(got.args) != len(tt.want.args) {
				t.Fatalf("migrate args = %v, want %v", got.args, tt.want.args)
			}
			for i := range got.args {
				if got.args[i] != tt.want.args[i] {
					t.Errorf("migrate args = %v, want %v", got.args, tt.want.args)
				}
			}
		})
	}
}

func TestCLI_addStudent(t *testing.T) {
	defer mockPassword("v3rys3cret")()

	db := inmemdb.NewDB()
	cli := newTestCLI(db)
	ctx := context.Background()
	gradeID := "22222222-2222-4222-8222-222222222222"

	args := []string{
		"admin", "addstudent",
		"-username", " JaneDoe ", "-name", "Jane Doe",
		"-grade", gradeID, "-email", "jane@test.cd",
	}
	if err := cli.run(args); err != nil {
		t.Fatalf("run(addstudent) failed: %v", err)
	}

	st, err := cli.stRepo.GetStudentByUsernameOrEmail(ctx, "janedoe")
	if err != nil {
		t.Fatalf("GetStudentByUsernameOrEmail() failed: %v", err)
	}
	if st.Username != "janedoe" {
		t.Errorf("username = %q, want cleaned %q", st.Username, "janedoe")
	}
	if !st.IsActive {
		t.Error("new student is not active")
	}
	if st.GradeID != gradeID {
		t.Errorf("gradeID = %q, want %q", st.GradeID, gradeID)
	}
	if err = st.CheckPassword("v3rys3cret"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}

	// running again for the same username resets the password instead
	restore := mockPassword("n3wp4ssword")
	if err := cli.run(args); err != nil {
		t.Fatalf("run(addstudent) again failed: %v", err)
	}
	restore()

	again, err := cli.stRepo.GetStudentByUsernameOrEmail(ctx, "janedoe")
	if err != nil {
		t.Fatalf("GetStudentByUsernameOrEmail() failed: %v", err)
	}
	if again.ID != st.ID {
		t.Errorf("re-running addstudent created a new student: %q != %q", again.ID, st.ID)
	}
	if err = again.CheckPassword("n3wp4ssword"); err != nil {
		t.Errorf("CheckPassword() after reset failed: %v", err)
	}
}

func TestCLI_resetPassword(t *testing.T) {
	defer mockPassword("n3wp4ssword")()

	db := inmemdb.NewDB()
	cli := newTestCLI(db)
	st := testutil.CreateStudent(t, cli.stRepo,
		"Jane Doe", "janedoe", "jane@test.cd", "0ldp4ssword",
		"22222222-2222-4222-8222-222222222222", "", true)

	for _, uname := range []string{"janedoe", "jane@test.cd"} {
		if err := cli.run([]string{"admin", "resetpassword", "-username", uname}); err != nil {
			t.Fatalf("run(resetpassword -username %s) failed: %v", uname, err)
		}
		got, err := cli.stRepo.GetStudentByID(context.Background(), st.ID)
		if err != nil {
			t.Fatalf("GetStudentByID() failed: %v", err)
		}
		if err = got.CheckPassword("n3wp4ssword"); err != nil {
			t.Errorf("CheckPassword() failed: %v", err)
		}
		if got.CheckPassword("0ldp4ssword") == nil {
			t.Error("old password still accepted")
		}
	}

	err := cli.run([]string{"admin", "resetpassword", "-username", "nobody"})
	if errors.Cause(err) != student.ErrNotFound {
		t.Errorf("run(resetpassword) error = %v, want ErrNotFound", err)
	}
}
