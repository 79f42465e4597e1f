package lsp

import (
	"errors"
	"fmt"
)

// ErrNoConfiguredConnections is returned by mdb.connect without arguments
// when the configuration lists no connections.
var ErrNoConfiguredConnections = errors.New("no connections configured")

// UnknownCommandError is returned for workspace/executeCommand requests the
// server does not implement.
type UnknownCommandError struct {
	Command string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command: %s", e.Command)
}

// CommandArgumentError reports a missing or mistyped command argument.
type CommandArgumentError struct {
	Command string
	Index   int
	Message string
}

func (e *CommandArgumentError) Error() string {
	return fmt.Sprintf("command %s argument %d: %s", e.Command, e.Index, e.Message)
}
