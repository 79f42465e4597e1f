package connection

import (
	"errors"
	"fmt"
)

// ErrNoActiveConnection is returned by schema lookups while disconnected.
var ErrNoActiveConnection = errors.New("no active connection")

// AlreadyConnectedError occurs when a connection name is reused.
type AlreadyConnectedError struct {
	Name string
}

func (e *AlreadyConnectedError) Error() string {
	return fmt.Sprintf("connection '%s' already exists", e.Name)
}

// NotFoundError occurs when a connection name is unknown.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("connection '%s' not found", e.Name)
}

// InvalidURIError occurs when a connection string does not parse.
type InvalidURIError struct {
	Name string
	Err  error
}

func (e *InvalidURIError) Error() string {
	return fmt.Sprintf("invalid connection string for '%s': %v", e.Name, e.Err)
}

func (e *InvalidURIError) Unwrap() error {
	return e.Err
}

// ConnectError occurs when the deployment cannot be reached.
type ConnectError struct {
	Name  string
	Hosts []string
	Err   error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect '%s' (hosts: %v): %v", e.Name, e.Hosts, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
