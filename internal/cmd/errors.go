package cmd

import (
	"fmt"

	"github.com/felixgeelhaar/docreview/internal/errors"
)

// requiredFlagError reports input that could not be prompted for.
func requiredFlagError(flags, example string) error {
	return errors.NewValidationError(fmt.Sprintf("%s required when not running in a terminal", flags)).
		WithSuggestion("Example: " + example)
}

// invalidValueError reports a flag or argument outside its allowed values.
func invalidValueError(field, value, validValues string) error {
	return errors.NewValidationError(fmt.Sprintf("invalid value for %s: %q", field, value)).
		WithSuggestion(fmt.Sprintf("Valid values: %s", validValues)).
		WithSuggestion("Run with --help to see all available options")
}
