package charger

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidChannel  = fmt.Errorf("%w: channel out of range", ErrInvalidArgument)
	ErrNotConnected    = errors.New("charger not connected")
)
