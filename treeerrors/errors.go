package treeerrors

import (
	"errors"
	"strings"
)

// Request (R) Errors
var (
	ErrMalformedInstruction = errors.New("R1|MalformedInstruction: Instruction bytes do not decode to a known request kind.")
	ErrDecode               = errors.New("R2|Decode: Persisted region bytes do not decode to a valid tree.")
	ErrInsufficientFunds    = errors.New("R3|InsufficientFunds: Funding source cannot cover the required deposit.")
	ErrEmptyLeaves          = errors.New("R4|EmptyLeaves: A tree cannot be built or extended with zero leaves.")
	ErrAddressMismatch      = errors.New("R5|AddressMismatch: Asserted region address differs from the derived address.")
	ErrProvision            = errors.New("R6|Provision: Region could not be created and funded.")
	ErrGrow                 = errors.New("R7|Grow: Region could not be funded and resized.")
	ErrRegionExists         = errors.New("R8|RegionExists: A funded region already exists at the target address.")
	ErrRegionNotFound       = errors.New("R9|RegionNotFound: No region exists at the target address.")
	ErrResizeRejected       = errors.New("R10|ResizeRejected: The environment rejected the requested region length.")
	ErrUnauthorized         = errors.New("R11|Unauthorized: Funding source did not sign the invocation.")
	ErrIndexOutOfRange      = errors.New("R12|IndexOutOfRange: Leaf index is outside the tree.")
	ErrLengthMismatch       = errors.New("R13|LengthMismatch: Write length differs from the region length.")
	ErrRentOverflow         = errors.New("R14|RentOverflow: Minimum balance for the requested length overflows.")
)

// GetErrorName extracts the error name from the error message.
// Wrapped errors are resolved to the outermost sentinel they carry.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := sentinelString(err)
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	if len(parts) < 2 {
		return errStr
	}
	// Split on ':' to separate the error name from its description.
	nameParts := strings.SplitN(parts[1], ":", 2)
	return strings.TrimSpace(nameParts[0])
}

func GetErrorNames(errs []error) []string {
	errStrs := make([]string, len(errs))
	for i, err := range errs {
		errStrs[i] = GetErrorName(err)
	}
	return errStrs
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := sentinelString(err)
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	return strings.TrimSpace(parts[0])
}

// GetErrorCodeWithName returns the error code and name in the format "Code_ErrorName".
func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	name := GetErrorName(err)
	if code == "" || name == "" {
		return ""
	}
	return code + "_" + name
}

// GetErrorDesc extracts the error description from the error message.
func GetErrorDesc(err error) string {
	if err == nil {
		return ""
	}
	parts := strings.SplitN(sentinelString(err), ":", 2)
	if len(parts) < 2 {
		return "DESC NOT SET"
	}
	return strings.TrimSpace(parts[1])
}

var all = []error{
	ErrProvision, ErrGrow,
	ErrMalformedInstruction, ErrDecode, ErrInsufficientFunds, ErrEmptyLeaves,
	ErrAddressMismatch, ErrRegionExists, ErrRegionNotFound, ErrResizeRejected,
	ErrUnauthorized, ErrIndexOutOfRange, ErrLengthMismatch, ErrRentOverflow,
}

// sentinelString returns the message of the first known sentinel err wraps.
// Provision and Grow come first so that a grow failure caused by missing
// funds is still named Grow.
func sentinelString(err error) string {
	for _, s := range all {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}
