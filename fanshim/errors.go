package fanshim

import (
	"errors"
	"fmt"
)

var (
	ErrPinNotFound = errors.New("pin not found")
	ErrPinBusy     = errors.New("pin already claimed")
	ErrClosed      = errors.New("fanshim: device closed")
)

// AcquisitionError reports why Open or New could not take the board.
type AcquisitionError struct {
	// Pin is the line that failed, empty when the GPIO host itself failed.
	Pin string
	Err error
}

func (e *AcquisitionError) Error() string {
	if e.Pin == "" {
		return fmt.Sprintf("fanshim: acquire: %v", e.Err)
	}
	return fmt.Sprintf("fanshim: acquire %s: %v", e.Pin, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}
