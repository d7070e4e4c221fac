package service

import "errors"

// Error is a rejected operation with a stable machine-readable code.
// Callers wrap the sentinels below with fmt.Errorf("%w: detail", ...) so
// errors.Is keeps working while the message carries context.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrContractNotFound         = &Error{Code: "CONTRACT_NOT_FOUND", Message: "contract not found"}
	ErrEmployeeNotFound         = &Error{Code: "EMPLOYEE_NOT_FOUND", Message: "employee not found"}
	ErrSiteNotFound             = &Error{Code: "SITE_NOT_FOUND", Message: "site not found"}
	ErrAlreadyAssigned          = &Error{Code: "ALREADY_ASSIGNED", Message: "worker already assigned to contract"}
	ErrInvalidStartDate         = &Error{Code: "INVALID_START_DATE", Message: "start date outside contract range"}
	ErrInvalidEndDate           = &Error{Code: "INVALID_END_DATE", Message: "end date outside contract range"}
	ErrConflictDateExceeded     = &Error{Code: "CONFLICT_DATE_EXCEEDED", Message: "end date exceeds site conflict date"}
	ErrInvalidTransition        = &Error{Code: "INVALID_TRANSITION", Message: "operation not allowed in current status"}
	ErrNumberGenerationConflict = &Error{Code: "NUMBER_GENERATION_CONFLICT", Message: "contract number collision, retry"}
	ErrInvalidInput             = &Error{Code: "INVALID_INPUT", Message: "invalid input"}
)

// Code extracts the machine-readable code from err, or "" when err is
// not a service error.
func Code(err error) string {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Code
	}
	return ""
}
