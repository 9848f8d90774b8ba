package enrollment

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrMissingToken means the caller supplied no enrollment token.
	ErrMissingToken = errors.New("enrollment: token required")
	// ErrSessionNotFound means no live session exists for the token.
	ErrSessionNotFound = errors.New("enrollment: session not found")
	// ErrEmailExists means the profile email already belongs to an account;
	// the caller should steer the user to sign-in instead of retrying.
	ErrEmailExists = errors.New("enrollment: email already registered")
	// ErrStepNotApplicable means the step is excluded by the enrollment flags.
	ErrStepNotApplicable = errors.New("enrollment: step not applicable")
	// ErrForwardBlocked means navigation tried to move past an incomplete step.
	ErrForwardBlocked = errors.New("enrollment: cannot move past an incomplete step")
	// ErrStepsIncomplete means commit was attempted before every applicable
	// step finished.
	ErrStepsIncomplete = errors.New("enrollment: steps incomplete")
)

// ValidationError reports per-field failures for one step. Other fields and
// other steps are untouched; the caller re-renders the step with the reasons.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("enrollment: invalid fields: %s", strings.Join(names, ", "))
}
