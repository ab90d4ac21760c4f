package services

// Service errors
var (
	ErrResultsHidden = &ServiceError{Message: "results are not visible for this vote yet"}
)

// ServiceError represents a service-level error
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}
