package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/platedhq/plated/core/curriculum"
)

type curriculumRepository struct {
	db *DB
}

func NewCurriculumRepository(db *DB) curriculum.Repository {
	return &curriculumRepository{db: db}
}

func (repo *curriculumRepository) GetSubject(_ context.Context, id string) (curriculum.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.subjects[id]; ok {
		return *s, nil
	}
	return curriculum.Subject{}, curriculum.ErrNotFound
}

func (repo *curriculumRepository) GetUnit(_ context.Context, id string) (curriculum.Unit, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if u, ok := repo.db.units[id]; ok {
		return *u, nil
	}
	return curriculum.Unit{}, curriculum.ErrNotFound
}

func (repo *curriculumRepository) GetChapter(_ context.Context, id string) (curriculum.Chapter, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.chapters[id]; ok {
		return *c, nil
	}
	return curriculum.Chapter{}, curriculum.ErrNotFound
}

func (repo *curriculumRepository) GetLesson(_ context.Context, id string) (curriculum.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if l, ok := repo.db.lessons[id]; ok {
		return *l, nil
	}
	return curriculum.Lesson{}, curriculum.ErrNotFound
}

func (repo *curriculumRepository) QueryActiveSemesters(_ context.Context, curriculumID string, day time.Time) ([]curriculum.Semester, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var sems []curriculum.Semester
	for _, s := range repo.db.semesters {
		if s.CurriculumID == curriculumID && s.Contains(day) {
			sems = append(sems, *s)
		}
	}
	return sems, nil
}

// lessonInScope resolves the lesson's subject/unit/chapter chain against the filter.
func (repo *curriculumRepository) lessonInScope(l *curriculum.Lesson, filter curriculum.LessonFilter) bool {
	if l.GradeID != filter.GradeID || !l.InTerm(filter.SemesterID) {
		return false
	}
	switch {
	case filter.ChapterID != "":
		return l.ChapterID == filter.ChapterID
	case filter.UnitID != "":
		c, ok := repo.db.chapters[l.ChapterID]
		return ok && c.UnitID == filter.UnitID
	case filter.SubjectID != "":
		c, ok := repo.db.chapters[l.ChapterID]
		if !ok {
			return false
		}
		u, ok := repo.db.units[c.UnitID]
		return ok && u.SubjectID == filter.SubjectID
	}
	return true
}

func (repo *curriculumRepository) QueryLessons(_ context.Context, filter curriculum.LessonFilter) ([]curriculum.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var lessons []curriculum.Lesson
	for _, l := range repo.db.lessons {
		if repo.lessonInScope(l, filter) {
			lessons = append(lessons, *l)
		}
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].SyllabusOrder < lessons[j].SyllabusOrder })
	return lessons, nil
}

func (repo *curriculumRepository) QueryQuestionsByLessonIDs(_ context.Context, lessonIDs []string) ([]curriculum.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := make(map[string]bool, len(lessonIDs))
	for _, id := range lessonIDs {
		ids[id] = true
	}

	var questions []curriculum.Question
	for _, q := range repo.db.questions {
		if ids[q.LessonID] {
			questions = append(questions, *q)
		}
	}
	return questions, nil
}

func (repo *curriculumRepository) QueryScopeOptions(ctx context.Context, kind, gradeID, semesterID string) ([]curriculum.ScopeOption, error) {
	lessons, err := repo.QueryLessons(ctx, curriculum.LessonFilter{GradeID: gradeID, SemesterID: semesterID})
	if err != nil {
		return nil, err
	}

	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	seen := make(map[string]bool)
	var opts []curriculum.ScopeOption
	add := func(id, title string) {
		if !seen[id] {
			seen[id] = true
			opts = append(opts, curriculum.ScopeOption{ID: id, Title: title})
		}
	}

	for _, l := range lessons {
		chapter, ok := repo.db.chapters[l.ChapterID]
		if !ok {
			continue
		}
		switch kind {
		case "lesson":
			add(l.ID, l.Title)
		case "chapter":
			add(chapter.ID, chapter.Title)
		case "unit":
			if u, ok := repo.db.units[chapter.UnitID]; ok {
				add(u.ID, u.Title)
			}
		case "subject":
			if u, ok := repo.db.units[chapter.UnitID]; ok {
				if s, ok := repo.db.subjects[u.SubjectID]; ok {
					add(s.ID, s.Title)
				}
			}
		default:
			return nil, errors.Errorf("unknown focus kind %q", kind)
		}
	}

	sort.Slice(opts, func(i, j int) bool { return opts[i].Title < opts[j].Title })
	return opts, nil
}
