package codelens

import (
	"sync"

	"github.com/woxQAQ/mongodb-playground-lsp/pkg/protocol"
)

// RunSelectedTitle is the title of the partial execution lens.
const RunSelectedTitle = "► Run Selected Lines From Playground"

// PartialExecutionProvider offers to run the lines selected in a playground.
type PartialExecutionProvider struct {
	emitter

	mu         sync.RWMutex
	selections map[string]protocol.Range
}

func NewPartialExecutionProvider() *PartialExecutionProvider {
	return &PartialExecutionProvider{selections: make(map[string]protocol.Range)}
}

// Refresh records the selection of a document; nil clears it. Listeners
// are notified either way.
func (p *PartialExecutionProvider) Refresh(uri string, selection *protocol.Range) {
	p.mu.Lock()
	if selection == nil {
		delete(p.selections, uri)
	} else {
		p.selections[uri] = *selection
	}
	p.mu.Unlock()

	p.fire()
}

// Forget drops the selection of a closed document without notifying.
func (p *PartialExecutionProvider) Forget(uri string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.selections, uri)
}

// Notify re-fires listeners, e.g. after a configuration change.
func (p *PartialExecutionProvider) Notify() {
	p.fire()
}

// Provide returns the lens for uri, or nothing without a selection.
func (p *PartialExecutionProvider) Provide(uri string) []Lens {
	p.mu.RLock()
	selection, ok := p.selections[uri]
	p.mu.RUnlock()

	if !ok {
		return nil
	}

	return []Lens{{
		Range: selection,
		Command: &Command{
			Title:     RunSelectedTitle,
			Command:   CommandRunSelectedPlaygroundBlocks,
			Arguments: []any{RunSelectedTitle},
		},
	}}
}
