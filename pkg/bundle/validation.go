package bundle

import (
	"os"
	"strconv"
	"strings"
)

// Exit codes for different error types
const (
	// The two fatal shim conditions both exit 1: self-location failure and
	// process-replacement failure share the external contract.
	ExitFailure = 1

	ExitPanic       = 101
	ExitBundleError = 102
	ExitVerifyError = 103
	ExitExecError   = 104
	ExitInvalidArgs = 105
	ExitIOError     = 106
)

// ValidationLevel represents different levels of integrity validation
type ValidationLevel int

const (
	ValidationStrict   ValidationLevel = iota // Default - full checks, fail on any issue
	ValidationStandard                        // Normal validation, warnings for minor issues
	ValidationRelaxed                         // Skip signature checks, warn on checksum mismatches
	ValidationMinimal                         // Only critical checks, continue on most warnings
	ValidationNone                            // Skip all validation (testing only)
)

// getValidationLevel determines the validation level from environment or defaults
func getValidationLevel() ValidationLevel {
	// Check APPSHIM_VALIDATION variable
	if val := os.Getenv("APPSHIM_VALIDATION"); val != "" {
		if level, ok := parseValidationLevel(val); ok {
			return level
		}
	}

	if level, ok := parseValidationLevel(DefaultValidationLevel); ok {
		return level
	}
	return ValidationStandard // Fallback to standard if invalid
}

func parseValidationLevel(val string) (ValidationLevel, bool) {
	switch strings.ToLower(val) {
	case "strict":
		return ValidationStrict, true
	case "standard":
		return ValidationStandard, true
	case "relaxed":
		return ValidationRelaxed, true
	case "minimal":
		return ValidationMinimal, true
	case "none":
		return ValidationNone, true
	}
	return ValidationStandard, false
}

// isEnvTrue checks if an environment variable is set to a true value
func isEnvTrue(key string) bool {
	val := os.Getenv(key)
	if val == "" {
		return false
	}

	valLower := strings.ToLower(val)
	if valLower == "on" || valLower == "yes" {
		return true
	}

	result, err := strconv.ParseBool(val)
	return err == nil && result
}
