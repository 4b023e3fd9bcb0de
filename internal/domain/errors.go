package domain

import "errors"

var (
	// ErrQuizNotFound indicates a quiz ID could not be resolved.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrCourseNotFound indicates a course ID could not be resolved.
	ErrCourseNotFound = errors.New("course not found")
	// ErrUserNotFound indicates a user ID could not be resolved.
	ErrUserNotFound = errors.New("user not found")
	// ErrValidationRejected is returned when a quiz write is rejected as a
	// whole: zero valid questions after sanitization, or a time limit or
	// pass mark out of range. Nothing is partially saved.
	ErrValidationRejected = errors.New("quiz definition rejected")
	// ErrEnrollmentRequired is returned when quiz access is attempted
	// without a passing enrollment check.
	ErrEnrollmentRequired = errors.New("enrollment required")
	// ErrRetakeNotAllowed is returned when a graded quiz disallows retakes.
	ErrRetakeNotAllowed = errors.New("retakes not allowed for this quiz")
	// ErrAttemptNotFound is returned when an attempt has not been started.
	ErrAttemptNotFound = errors.New("quiz attempt not found")
	// ErrEmailTaken is returned on guest enrollment when the email already
	// belongs to an account; the caller should log in instead.
	ErrEmailTaken = errors.New("an account with this email already exists")
	// ErrEnrollmentInvalid is returned when a guest enrollment form is
	// missing required fields.
	ErrEnrollmentInvalid = errors.New("first name, last name and email are required for enrollment")
)
