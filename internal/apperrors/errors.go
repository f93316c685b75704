// Package apperrors defines the request failure categories surfaced by the
// proxy. Every failure is terminal for its request; categories are stable so
// transports can map them to their own status codes.
package apperrors

import (
	"errors"
	"fmt"
)

// Category classifies a request failure.
type Category string

const (
	CategorySpecDecode  Category = "spec_decode"
	CategoryFetch       Category = "fetch"
	CategoryImageDecode Category = "image_decode"
	CategoryTransform   Category = "transform"
	CategoryEncode      Category = "encode"
)

// Error is a categorised failure of one request.
type Error struct {
	Category Category
	Op       string // operation name
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error.
func New(category Category, op string, err error) *Error {
	return &Error{Category: category, Op: op, Err: err}
}

// Wrap is New that passes nil through.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(category, op, err)
}

// CategoryOf returns the category of err, or "" when err carries none.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	return err != nil && CategoryOf(err) == cat
}
