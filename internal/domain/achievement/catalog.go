package achievement

// DefaultCatalog returns the achievement definitions seeded at startup.
func DefaultCatalog() []Definition {
	return []Definition{
		{"first_lesson", "First Steps", "Complete your first lesson", "book-open", "#3B82F6", RequirementLessons, 1},
		{"lessons_10", "Quick Learner", "Complete 10 lessons", "zap", "#6366F1", RequirementLessons, 10},
		{"lessons_50", "Bookworm", "Complete 50 lessons", "library", "#8B5CF6", RequirementLessons, 50},
		{"course_complete", "Graduate", "Complete a course", "graduation-cap", "#10B981", RequirementCourses, 1},
		{"courses_5", "Scholar", "Complete 5 courses", "award", "#059669", RequirementCourses, 5},
		{"hours_10", "Dedicated", "Study for 10 hours", "clock", "#F59E0B", RequirementHours, 10},
		{"hours_50", "Marathoner", "Study for 50 hours", "timer", "#D97706", RequirementHours, 50},
		{"assignments_10", "Hard Worker", "Get 10 assignments graded", "clipboard-check", "#EC4899", RequirementAssignments, 10},
		{"streak_7", "On Fire", "Study 7 days in a row", "flame", "#EF4444", RequirementStreak, 7},
		{"streak_30", "Unstoppable", "Study 30 days in a row", "trending-up", "#DC2626", RequirementStreak, 30},
		{"perfect_exam", "Perfectionist", "Score 100% on an exam", "star", "#FACC15", RequirementPerfectExam, 1},
	}
}

// Find returns the definition with the given type.
func Find(defs []Definition, achievementType string) (Definition, bool) {
	for _, def := range defs {
		if def.Type == achievementType {
			return def, true
		}
	}
	return Definition{}, false
}
