package database

import "errors"

var (
	ErrCaseNotFound      = errors.New("case not found")
	ErrMissingCaseID     = errors.New("case id is required")
	ErrEmptyUpdate       = errors.New("no fields to update")
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
)
