package guard

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/safetyserv/safetyserv/metrics"
)

// ErrValidationFailed - returned (wrapped) by every validator which rejects its input.
var ErrValidationFailed = errors.New("validation failed")

// Messages returned by ValidateUserInput.
const (
	SafeInputMessage   = "입력이 안전합니다."
	UnsafeInputMessage = "위험한 입력이 감지되었습니다"
)

type Validator interface {
	Name() string
	// Validate returns nil when the text passes, or an error wrapping ErrValidationFailed when it doesn't.
	Validate(ctx context.Context, text string) error
}

// Guard - runs a chain of validators. The first failure stops the chain.
type Guard struct {
	validators []Validator
}

func New() *Guard {
	return &Guard{validators: make([]Validator, 0)}
}

func (g *Guard) UseMany(validators ...Validator) *Guard {
	g.validators = append(g.validators, validators...)
	return g
}

func (g *Guard) Validators() []Validator {
	return g.validators
}

func (g *Guard) Validate(ctx context.Context, text string) error {
	for _, v := range g.validators {
		if err := v.Validate(ctx, text); err != nil {
			metrics.RecordGuardValidation(v.Name(), false)
			if !errors.Is(err, ErrValidationFailed) {
				err = errors.Join(ErrValidationFailed, err)
			}
			return err
		}
		metrics.RecordGuardValidation(v.Name(), true)
	}
	return nil
}

// ValidateUserInput - runs the guard and renders the outcome as a user-facing message.
func ValidateUserInput(ctx context.Context, g *Guard, text string) (bool, string) {
	if err := g.Validate(ctx, text); err != nil {
		log.Printf("[guard] Input rejected: %s", err)
		return false, fmt.Sprintf("%s: %s", UnsafeInputMessage, err)
	}
	return true, SafeInputMessage
}

func failure(validator string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrValidationFailed, validator, fmt.Sprintf(format, args...))
}
