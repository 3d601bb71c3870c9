package services

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a run is requested without any CEP
	ErrEmptyInput = errors.New("no CEPs to process")

	// ErrRunInProgress is returned when a run is requested while another one is active
	ErrRunInProgress = errors.New("a processing run is already in progress")

	// ErrCacheMiss is returned by the cache when a key is absent or expired
	ErrCacheMiss = errors.New("key not found")
)

// Messages recorded on lookup errors
const (
	MsgNotFound = "CEP not found"
	MsgTimeout  = "request timeout"
)

// StatusError is returned for non-2xx responses of the lookup service
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}
