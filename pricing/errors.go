package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is wrapped by every input-related failure below
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConstruction: non-positive rate, spot or initial variance
	ErrConstruction = errors.New("invalid market state")

	// ErrParameter: non-positive alpha or grid step, non-positive or odd grid size
	ErrParameter = errors.New("invalid calculator parameter")

	// ErrFeasibility: the Andersen-Piterbarg moment condition fails for the
	// requested maturity and damping
	ErrFeasibility = errors.New("moment condition violated")

	// ErrTransform: the DFT engine rejected its input
	ErrTransform = errors.New("transform failed")
)

func invalid(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrInvalidArgument, kind, fmt.Sprintf(format, args...))
}
