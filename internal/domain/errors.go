package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// ServiceError representa una falla de transporte o una respuesta no exitosa del
// Question Service.
type ServiceError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("question service %s: status=%d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("question service %s: status=%d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("question service %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("question service %s failed", e.Op)
	}
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// ProtocolError representa una respuesta bien transportada pero con forma inválida.
type ProtocolError struct {
	Op     string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("question service %s: malformed response: %s", e.Op, e.Reason)
}
