package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: COURSE READ MODELS
// Rows written by the course collaborator. This core only reads them.
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS courses (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title VARCHAR(200) NOT NULL,
    teacher_id TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_courses_teacher_id ON courses(teacher_id);

CREATE TABLE IF NOT EXISTS enrollments (
    student_id TEXT NOT NULL,
    course_id UUID NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    progress INTEGER NOT NULL DEFAULT 0,
    enrolled_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (student_id, course_id),
    CONSTRAINT valid_progress CHECK (progress >= 0 AND progress <= 100)
);

CREATE INDEX IF NOT EXISTS idx_enrollments_course_id ON enrollments(course_id);

CREATE TABLE IF NOT EXISTS submissions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    assignment_id UUID NOT NULL,
    course_id UUID NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    student_id TEXT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    submitted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_submission_status CHECK (status IN ('pending', 'graded'))
);

CREATE INDEX IF NOT EXISTS idx_submissions_student_status ON submissions(student_id, status);
CREATE INDEX IF NOT EXISTS idx_submissions_course_id ON submissions(course_id);
`

const migration001Down = `
DROP TABLE IF EXISTS submissions;
DROP TABLE IF EXISTS enrollments;
DROP TABLE IF EXISTS courses;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: EXAMS, QUESTIONS, ATTEMPTS, ANSWERS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS exams (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    course_id UUID NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    title VARCHAR(200) NOT NULL,
    duration_minutes INTEGER NOT NULL DEFAULT 0,
    total_points INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS exam_questions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    exam_id UUID NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
    question TEXT NOT NULL,
    question_type VARCHAR(20) NOT NULL,
    options JSONB,
    correct_answer TEXT NOT NULL,
    points INTEGER NOT NULL DEFAULT 1,
    position INTEGER NOT NULL DEFAULT 0,

    CONSTRAINT valid_question_type CHECK (question_type IN ('multiple_choice', 'true_false', 'free_text')),
    CONSTRAINT valid_points CHECK (points >= 0)
);

CREATE INDEX IF NOT EXISTS idx_exam_questions_exam_id ON exam_questions(exam_id);

-- score, total_points and completed_at are NULL until the attempt is submitted
CREATE TABLE IF NOT EXISTS exam_attempts (
    id UUID PRIMARY KEY,
    exam_id UUID NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
    student_id TEXT NOT NULL,
    score DOUBLE PRECISION,
    total_points INTEGER,
    started_at TIMESTAMP WITH TIME ZONE NOT NULL,
    completed_at TIMESTAMP WITH TIME ZONE
);

CREATE INDEX IF NOT EXISTS idx_exam_attempts_exam_student ON exam_attempts(exam_id, student_id, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_exam_attempts_perfect ON exam_attempts(student_id)
    WHERE completed_at IS NOT NULL AND total_points > 0 AND score = total_points;

CREATE TABLE IF NOT EXISTS exam_answers (
    id UUID PRIMARY KEY,
    attempt_id UUID NOT NULL REFERENCES exam_attempts(id) ON DELETE CASCADE,
    question_id UUID NOT NULL REFERENCES exam_questions(id) ON DELETE CASCADE,
    answer TEXT NOT NULL,
    is_correct BOOLEAN NOT NULL,

    UNIQUE (attempt_id, question_id)
);
`

const migration002Down = `
DROP TABLE IF EXISTS exam_answers;
DROP TABLE IF EXISTS exam_attempts;
DROP TABLE IF EXISTS exam_questions;
DROP TABLE IF EXISTS exams;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: ACTIVITY LEDGER
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS activity_records (
    user_id TEXT NOT NULL,
    activity_date DATE NOT NULL,
    hours_spent DOUBLE PRECISION NOT NULL DEFAULT 0,
    lessons_completed INTEGER NOT NULL DEFAULT 0,
    assignments_completed INTEGER NOT NULL DEFAULT 0,
    exams_taken INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, activity_date),
    CONSTRAINT non_negative_activity CHECK (
        hours_spent >= 0 AND lessons_completed >= 0 AND
        assignments_completed >= 0 AND exams_taken >= 0
    )
);

CREATE INDEX IF NOT EXISTS idx_activity_records_qualifying ON activity_records(user_id, activity_date DESC)
    WHERE hours_spent > 0 OR lessons_completed > 0;
`

const migration003Down = `
DROP TABLE IF EXISTS activity_records;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS achievement_definitions (
    type VARCHAR(50) PRIMARY KEY,
    title VARCHAR(100) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    icon VARCHAR(50) NOT NULL DEFAULT '',
    color VARCHAR(20) NOT NULL DEFAULT '',
    requirement_type VARCHAR(20) NOT NULL,
    requirement_value INTEGER NOT NULL,
    position SERIAL,

    CONSTRAINT valid_requirement_type CHECK (
        requirement_type IN ('lessons', 'courses', 'hours', 'assignments', 'streak', 'perfect_exam')
    )
);

-- unlock rows are permanent; the unique key makes repeated unlocks no-ops
CREATE TABLE IF NOT EXISTS achievement_unlocks (
    user_id TEXT NOT NULL,
    achievement_type VARCHAR(50) NOT NULL REFERENCES achievement_definitions(type),
    unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, achievement_type)
);
`

const migration004Down = `
DROP TABLE IF EXISTS achievement_unlocks;
DROP TABLE IF EXISTS achievement_definitions;
`
