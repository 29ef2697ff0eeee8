package inmemdb

import (
	"context"
	"time"

	"github.com/platedhq/plated/core/student"
)

type studentRepository struct {
	db *DB
}

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckUsernameUniqueness(_ context.Context, username, email string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, st := range repo.db.students {
		if st.Username == username {
			return student.ErrUsernameExists
		}
		if email != "" && st.Email == email {
			return student.ErrEmailExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	st.ID = pk(st.ID)
	repo.db.students[st.ID] = &st
	return st, nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if st, ok := repo.db.students[id]; ok {
		return *st, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByUsernameOrEmail(_ context.Context, username string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, st := range repo.db.students {
		if st.Username == username || (st.Email != "" && st.Email == username) {
			return *st, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) SetLastLogin(_ context.Context, id string, t time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	st, ok := repo.db.students[id]
	if !ok {
		return student.ErrNotFound
	}
	st.LastLogin = t
	st.UpdatedAt = t
	return nil
}

func (repo *studentRepository) SetPassword(_ context.Context, id string, hash []byte) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	st, ok := repo.db.students[id]
	if !ok {
		return student.ErrNotFound
	}
	st.PasswordHash = hash
	st.UpdatedAt = time.Now().UTC()
	return nil
}
