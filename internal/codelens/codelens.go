// Package codelens builds the code lenses shown above playground code.
package codelens

import (
	"sync"

	"github.com/woxQAQ/mongodb-playground-lsp/pkg/protocol"
)

// Commands the lenses invoke. The language server executes mdb.connect
// without arguments; the client handles the others.
const (
	CommandRunSelectedPlaygroundBlocks = "mdb.runSelectedPlaygroundBlocks"
	CommandChangeActiveConnection      = "mdb.changeActiveConnection"
	CommandConnect                     = "mdb.connect"
)

// Command is what a lens runs when clicked.
type Command struct {
	Title     string
	Command   string
	Arguments []any
}

// Lens is a code lens anchored to a range.
type Lens struct {
	Range   protocol.Range
	Command *Command
}

// emitter fans change notifications out to listeners.
type emitter struct {
	mu        sync.Mutex
	listeners []func()
}

// OnDidChange registers fn to run whenever the provider's lenses change.
func (e *emitter) OnDidChange(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

func (e *emitter) fire() {
	e.mu.Lock()
	listeners := make([]func(), len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
