package domain

import "errors"

var (
	// ErrJobNotFound is returned when no record exists for a job ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrNoTargetLanguages is returned when targetLanguages is empty or
	// contains an empty language identifier.
	ErrNoTargetLanguages = errors.New("targetLanguages must be a non-empty list of language identifiers")

	// ErrNoFields is returned when the submission carries no fields.
	ErrNoFields = errors.New("fields must be a non-empty list")

	// ErrEmptyFieldText is returned when a field has no text to translate.
	ErrEmptyFieldText = errors.New("field texttotranslate cannot be empty")

	// ErrMissingSourceLanguage is returned when the source language is absent.
	ErrMissingSourceLanguage = errors.New("language (source language) is required")

	// ErrPublishFailed is returned when the message broker publish fails.
	ErrPublishFailed = errors.New("failed to publish job to message queue")

	// ErrUserNotFound is returned when a user record does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when creating a user whose ID is taken.
	ErrUserExists = errors.New("user already exists")
)
