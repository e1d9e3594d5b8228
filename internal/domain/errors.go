package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrAssetNotFound = errors.New("asset not found")

// NetworkError means the catalog API produced no response at all
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// FetchError is a non-success answer from the catalog API. Message holds the
// server supplied message when there was one.
type FetchError struct {
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	return e.Message
}

// NotFoundError is a lookup miss inside a fetched collection
type NotFoundError struct {
	Resource string // "Category", "Subcategory"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// TimeoutError is returned when a fetch does not finish within the configured timeout
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out after %v", e.After)
}

// Message converts an error into the string kept in views. A nil error gives "".
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}
