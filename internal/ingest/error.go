package ingest

import (
	"errors"
	"fmt"
)

var (
	ErrClosed         = errors.New("ingester is closed")
	ErrDiskFull       = errors.New("event store disk is full")
	ErrInvalidPayload = errors.New("invalid event payload")
	ErrQueueFull      = errors.New("ingest queue is full")
	ErrTooLarge       = errors.New("event payload too large")
)

// processStage names the step at which processing an event failed. It is
// used as the reason tag of the failure metric.
type processStage string

const (
	stageDecode processStage = "decode"
	stageStore  processStage = "store"
)

type processError struct {
	stage processStage
	err   error
}

func (e processError) Error() string {
	return fmt.Sprintf("%s: %s", e.stage, e.err)
}

func (e processError) Unwrap() error {
	return e.err
}
