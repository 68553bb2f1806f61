package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and service errors
	ErrTimeout         = fmt.Errorf("request timed out")
	ErrRecordNotFound  = fmt.Errorf("record not found")
	ErrContactNotFound = fmt.Errorf("contact not found")
	ErrTaskNotFound    = fmt.Errorf("task not found")

	// Engine errors
	ErrNoSuchStatus    = fmt.Errorf("unknown status")
	ErrMutationPending = fmt.Errorf("mutation already pending for record")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
