// Package inmemdb provides map-backed repositories for tests.
package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/platedhq/plated/core/curriculum"
	"github.com/platedhq/plated/core/exam"
	"github.com/platedhq/plated/core/student"
)

type DB struct {
	mutex sync.RWMutex

	semesters map[string]*curriculum.Semester
	subjects  map[string]*curriculum.Subject
	units     map[string]*curriculum.Unit
	chapters  map[string]*curriculum.Chapter
	lessons   map[string]*curriculum.Lesson
	questions map[string]*curriculum.Question
	students  map[string]*student.Student
	exams     map[string]*exam.Exam
	answers   map[answerKey]*exam.StudentAnswer
}

// answerKey enforces the one-answer-per-question uniqueness grain.
type answerKey struct {
	examID     string
	studentID  string
	questionID string
}

func NewDB() *DB {
	return &DB{
		semesters: make(map[string]*curriculum.Semester),
		subjects:  make(map[string]*curriculum.Subject),
		units:     make(map[string]*curriculum.Unit),
		chapters:  make(map[string]*curriculum.Chapter),
		lessons:   make(map[string]*curriculum.Lesson),
		questions: make(map[string]*curriculum.Question),
		students:  make(map[string]*student.Student),
		exams:     make(map[string]*exam.Exam),
		answers:   make(map[answerKey]*exam.StudentAnswer),
	}
}

func pk(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	return id
}

// seed helpers

func (db *DB) AddSemester(s curriculum.Semester) curriculum.Semester {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	s.ID = pk(s.ID)
	db.semesters[s.ID] = &s
	return s
}

func (db *DB) AddSubject(s curriculum.Subject) curriculum.Subject {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	s.ID = pk(s.ID)
	db.subjects[s.ID] = &s
	return s
}

func (db *DB) AddUnit(u curriculum.Unit) curriculum.Unit {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	u.ID = pk(u.ID)
	db.units[u.ID] = &u
	return u
}

func (db *DB) AddChapter(c curriculum.Chapter) curriculum.Chapter {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	c.ID = pk(c.ID)
	db.chapters[c.ID] = &c
	return c
}

func (db *DB) AddLesson(l curriculum.Lesson) curriculum.Lesson {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	l.ID = pk(l.ID)
	db.lessons[l.ID] = &l
	return l
}

// AddQuestion stores the question with its choices embedded.
func (db *DB) AddQuestion(q curriculum.Question) curriculum.Question {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	q.ID = pk(q.ID)
	for i := range q.Choices {
		q.Choices[i].ID = pk(q.Choices[i].ID)
		q.Choices[i].QuestionID = q.ID
	}
	db.questions[q.ID] = &q
	return q
}

func (db *DB) AddStudent(st student.Student) student.Student {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	st.ID = pk(st.ID)
	db.students[st.ID] = &st
	return st
}
