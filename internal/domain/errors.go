package domain

import "errors"

var (
	// ErrEmptyStageID is returned when a session is started without a stage.
	ErrEmptyStageID = errors.New("stage id is empty")
	// ErrStageNotFound indicates the stage does not exist in the content store.
	ErrStageNotFound = errors.New("stage not found")
)
