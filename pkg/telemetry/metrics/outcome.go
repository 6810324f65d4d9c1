package metrics

import (
	"errors"

	"mercator-hq/loadext/pkg/loadext"
)

// Outcome label values.
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid"
	OutcomeUnsupported = "unsupported"
	OutcomeToggleError = "toggle_error"
	OutcomeLoadError   = "load_error"
	OutcomeAborted     = "aborted"
	OutcomeError       = "error"
)

// Outcome classifies a loader error into a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, loadext.ErrBatchAborted):
		return OutcomeAborted
	case errors.Is(err, loadext.ErrUnsupportedPlatform):
		return OutcomeUnsupported
	case errors.Is(err, loadext.ErrInvalidPath), errors.Is(err, loadext.ErrInvalidEntryPoint):
		return OutcomeInvalid
	case loadext.IsLoadError(err):
		return OutcomeLoadError
	case loadext.IsToggleError(err):
		return OutcomeToggleError
	default:
		return OutcomeError
	}
}
