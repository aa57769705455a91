// Package memory provides mutex-guarded in-memory implementations of every
// repository. It backs the server in development when no database is
// configured and replaces Postgres in application and HTTP tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/alem-hub/study-progress-core/internal/domain/achievement"
	"github.com/alem-hub/study-progress-core/internal/domain/activity"
	"github.com/alem-hub/study-progress-core/internal/domain/exam"
	"github.com/alem-hub/study-progress-core/internal/domain/progress"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

type ledgerKey struct {
	userID shared.UserID
	date   time.Time
}

type unlockKey struct {
	userID shared.UserID
	typ    string
}

// Store holds all tables. A single mutex serialises every writer, which
// gives the same atomicity the Postgres repositories get from transactions.
type Store struct {
	mu sync.RWMutex

	exams     map[string]*exam.Exam
	questions map[string]*exam.Question
	attempts  map[string]*exam.Attempt

	ledger map[ledgerKey]*activity.Record

	definitions []achievement.Definition
	unlocks     map[unlockKey]achievement.Unlock

	courses     map[string]progress.Course
	enrollments []progress.Enrollment
	submissions []progress.Submission
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		exams:     make(map[string]*exam.Exam),
		questions: make(map[string]*exam.Question),
		attempts:  make(map[string]*exam.Attempt),
		ledger:    make(map[ledgerKey]*activity.Record),
		unlocks:   make(map[unlockKey]achievement.Unlock),
		courses:   make(map[string]progress.Course),
	}
}

// Exams returns the exam repository view of the store.
func (s *Store) Exams() *ExamRepository { return &ExamRepository{s: s} }

// Activity returns the ledger repository view of the store.
func (s *Store) Activity() *ActivityRepository { return &ActivityRepository{s: s} }

// Achievements returns the achievement repository view of the store.
func (s *Store) Achievements() *AchievementRepository { return &AchievementRepository{s: s} }

// Progress returns the enrollment/submission/course repository view of the store.
func (s *Store) Progress() *ProgressRepository { return &ProgressRepository{s: s} }

// ══════════════════════════════════════════════════════════════════════════════
// SEEDING (rows owned by external collaborators)
// ══════════════════════════════════════════════════════════════════════════════

// AddExam stores exam metadata.
func (s *Store) AddExam(e exam.Exam) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exams[e.ID] = &e
}

// AddQuestion stores a question.
func (s *Store) AddQuestion(q exam.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q.Options = append([]string(nil), q.Options...)
	s.questions[q.ID] = &q
}

// AddCourse stores a course.
func (s *Store) AddCourse(c progress.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[c.ID] = c
}

// AddEnrollment stores an enrollment, replacing any existing one for the
// same (student, course).
func (s *Store) AddEnrollment(e progress.Enrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.enrollments {
		if s.enrollments[i].StudentID == e.StudentID && s.enrollments[i].CourseID == e.CourseID {
			s.enrollments[i] = e
			return
		}
	}
	s.enrollments = append(s.enrollments, e)
}

// AddSubmission stores a submission.
func (s *Store) AddSubmission(sub progress.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, sub)
}

func sortDatesDesc(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
}
