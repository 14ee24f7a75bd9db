package model

import "errors"

var (
	// Session related errors
	ErrNotLoggedIn      = errors.New("not logged in")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrEmptyUser        = errors.New("empty user record")

	// Gateway token errors
	ErrTokenInvalid = errors.New("token invalid")

	// Listing errors
	ErrArticleNotFound = errors.New("article not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
