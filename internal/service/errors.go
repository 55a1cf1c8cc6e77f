package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned when an operation references an absent id.
	ErrNotFound = errors.New("task not found")

	// ErrInvalidArgument is returned for malformed ids and blank task text.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStorage wraps failures of the persisted storage slot.
	ErrStorage = errors.New("storage error")
)

// NotFound returns an ErrNotFound error naming id.
func NotFound(id ID) error {
	return fmt.Errorf("%w: %d", ErrNotFound, id)
}

// ParseID converts an untyped task reference into an ID.
// Integers and decimal strings are accepted; anything else, including
// fractional numbers and nil, fails with ErrInvalidArgument.
func ParseID(v any) (ID, error) {
	switch x := v.(type) {
	case ID:
		return x, nil
	case int:
		return ID(x), nil
	case int8:
		return ID(x), nil
	case int16:
		return ID(x), nil
	case int32:
		return ID(x), nil
	case int64:
		return ID(x), nil
	case uint8:
		return ID(x), nil
	case uint16:
		return ID(x), nil
	case uint32:
		return ID(x), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			break
		}
		return ID(x), nil
	case uint64:
		if x > math.MaxInt64 {
			break
		}
		return ID(x), nil
	case float32:
		if f := float64(x); f == math.Trunc(f) && math.Abs(f) <= 1<<24 {
			return ID(f), nil
		}
	case float64:
		// JSON numbers decode as float64.
		if x == math.Trunc(x) && math.Abs(x) <= 1<<53 {
			return ID(x), nil
		}
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err == nil {
			return ID(n), nil
		}
		return 0, fmt.Errorf("%w: invalid task id: %s", ErrInvalidArgument, x)
	}
	return 0, fmt.Errorf("%w: invalid task id: %v", ErrInvalidArgument, v)
}
