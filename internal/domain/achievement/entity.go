// Package achievement contains achievement definitions, per-user unlocks and
// the pure functions that derive progress and eligibility from a user's
// aggregate metrics.
// This is a pure domain layer with zero external dependencies.
package achievement

import (
	"math"
	"strings"
	"time"

	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUIREMENT TYPES
// ══════════════════════════════════════════════════════════════════════════════

// RequirementType is the metric an achievement threshold is measured against.
type RequirementType string

const (
	RequirementLessons     RequirementType = "lessons"
	RequirementCourses     RequirementType = "courses"
	RequirementHours       RequirementType = "hours"
	RequirementAssignments RequirementType = "assignments"
	RequirementStreak      RequirementType = "streak"
	RequirementPerfectExam RequirementType = "perfect_exam"
)

// IsValid checks if the requirement type is known.
func (r RequirementType) IsValid() bool {
	switch r {
	case RequirementLessons, RequirementCourses, RequirementHours,
		RequirementAssignments, RequirementStreak, RequirementPerfectExam:
		return true
	default:
		return false
	}
}

// UnlocksOnActivity reports whether the activity-log trigger may persist an
// unlock for this requirement type.
// Streak and perfect_exam achievements are display-only: their progress is
// reported on read but they are never unlocked by the trigger path.
func (r RequirementType) UnlocksOnActivity() bool {
	switch r {
	case RequirementLessons, RequirementCourses, RequirementHours, RequirementAssignments:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEFINITIONS AND UNLOCKS
// ══════════════════════════════════════════════════════════════════════════════

// Definition describes an achievement. Seeded once at startup, read-only afterwards.
type Definition struct {
	Type             string
	Title            string
	Description      string
	Icon             string
	Color            string
	RequirementType  RequirementType
	RequirementValue int
}

// Validate checks the definition before it is seeded.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Type) == "" || strings.TrimSpace(d.Title) == "" {
		return shared.ErrInvalidDefinition
	}
	if !d.RequirementType.IsValid() {
		return shared.ErrUnknownRequirementType
	}
	return nil
}

// Unlock is the permanent record that a user met an achievement threshold.
// At most one exists per (user, type) and it is never cleared.
type Unlock struct {
	UserID     shared.UserID
	Type       string
	Unlocked   bool
	UnlockedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS, PROGRESS, ELIGIBILITY
// ══════════════════════════════════════════════════════════════════════════════

// Metrics are a user's aggregate counters, recomputed on every evaluation.
type Metrics struct {
	LessonsCompleted     int
	CoursesCompleted     int
	TotalHours           float64
	AssignmentsCompleted int
	Streak               int
	PerfectExam          bool
}

// Current returns the metric value a requirement type is measured against.
// For perfect_exam it is 1 when a perfect attempt exists, 0 otherwise.
func (m Metrics) Current(rt RequirementType) float64 {
	switch rt {
	case RequirementLessons:
		return float64(m.LessonsCompleted)
	case RequirementCourses:
		return float64(m.CoursesCompleted)
	case RequirementHours:
		return m.TotalHours
	case RequirementAssignments:
		return float64(m.AssignmentsCompleted)
	case RequirementStreak:
		return float64(m.Streak)
	case RequirementPerfectExam:
		if m.PerfectExam {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Progress returns the completion percentage of def for m, in [0, 100].
//
// Ratio types use round(min(100, 100*current/threshold)). perfect_exam
// bypasses the ratio: 100 when a perfect attempt exists, 0 otherwise.
// A threshold <= 0 counts as already met.
func Progress(def Definition, m Metrics) int {
	if def.RequirementType == RequirementPerfectExam {
		if m.PerfectExam {
			return 100
		}
		return 0
	}
	if def.RequirementValue <= 0 {
		return 100
	}

	ratio := 100 * m.Current(def.RequirementType) / float64(def.RequirementValue)
	if ratio < 0 || math.IsNaN(ratio) {
		ratio = 0
	}
	return int(math.Round(math.Min(100, ratio)))
}

// Eligible reports whether the trigger path should unlock def for m.
func Eligible(def Definition, m Metrics) bool {
	if !def.RequirementType.UnlocksOnActivity() {
		return false
	}
	return m.Current(def.RequirementType) >= float64(def.RequirementValue)
}

// View is one achievement as shown to a user.
type View struct {
	Definition
	Unlocked   bool
	UnlockedAt *time.Time
	Progress   int
}

// BuildViews joins definitions with a user's unlocks and metrics, keeping
// the order of defs.
func BuildViews(defs []Definition, unlocks []Unlock, m Metrics) []View {
	byType := make(map[string]Unlock, len(unlocks))
	for _, u := range unlocks {
		byType[u.Type] = u
	}

	views := make([]View, 0, len(defs))
	for _, def := range defs {
		v := View{Definition: def, Progress: Progress(def, m)}
		if u, ok := byType[def.Type]; ok && u.Unlocked {
			at := u.UnlockedAt
			v.Unlocked = true
			v.UnlockedAt = &at
		}
		views = append(views, v)
	}
	return views
}
