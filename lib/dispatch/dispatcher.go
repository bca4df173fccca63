package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ValentinKolb/dObs/lib/common"
	"github.com/lni/dragonboat/v4/logger"
)

// Logger is the logger of the dispatch package
var Logger = logger.GetLogger(common.LoggerDispatch)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Work is a unit of work executed on the owner goroutine.
// The context it receives identifies the owner (see IsOwner).
type Work func(ctx context.Context) error

// Dispatcher marshals work onto one owner goroutine.
type Dispatcher interface {
	// IsOwner reports whether ctx belongs to work currently run by this dispatcher.
	IsOwner(ctx context.Context) bool
	// Dispatch runs fn on the owner and blocks until it has completed.
	// If ctx already belongs to the owner, fn runs inline.
	Dispatch(ctx context.Context, p Priority, fn Work) error
}

// Invoke is Dispatch for work that produces a value.
func Invoke[R any](ctx context.Context, d Dispatcher, p Priority, fn func(ctx context.Context) (R, error)) (R, error) {
	var result R
	err := d.Dispatch(ctx, p, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}

// --------------------------------------------------------------------------
// Priority
// --------------------------------------------------------------------------

// Priority orders pending work of one dispatcher. Higher values run first.
type Priority uint8

const (
	PriorityIdle       Priority = iota // 0: runs when nothing else is pending
	PriorityBackground                 // 1: default
	PriorityNormal                     // 2
	PriorityHigh                       // 3: runs before everything else
)

const maxPriority = PriorityHigh

func (p Priority) String() string {
	switch p {
	case PriorityIdle:
		return "idle"
	case PriorityBackground:
		return "background"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return fmt.Sprintf("priority(%d)", uint8(p))
	}
}

// ParsePriority converts a priority name to a Priority
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(s) {
	case "idle":
		return PriorityIdle, nil
	case "background", "":
		return PriorityBackground, nil
	case "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	default:
		return 0, fmt.Errorf("invalid priority: %s. must be one of idle, background, normal, high", s)
	}
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrClosed is returned for work handed to a closed dispatcher
	ErrClosed = errors.New("dispatch: dispatcher closed")
	// ErrAlreadyRunning is returned by a second call to Loop.Run
	ErrAlreadyRunning = errors.New("dispatch: loop already running")
)

// PanicError is returned to the caller when its work panicked
type PanicError struct {
	Value any    // value passed to panic
	Stack []byte // stack of the goroutine that ran the work
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("dispatch: work panicked: %v", e.Value)
}

// Unwrap returns the panic value if it is an error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
