package codelens

import (
	"fmt"

	"github.com/woxQAQ/mongodb-playground-lsp/pkg/protocol"
)

// ActiveConnection reports the connection playgrounds run against.
type ActiveConnection interface {
	ActiveName() (string, bool)
}

// ActiveConnectionProvider shows the active connection at the top of a playground.
type ActiveConnectionProvider struct {
	emitter
	conns ActiveConnection
}

func NewActiveConnectionProvider(conns ActiveConnection) *ActiveConnectionProvider {
	return &ActiveConnectionProvider{conns: conns}
}

// Changed tells listeners the active connection moved.
func (p *ActiveConnectionProvider) Changed() {
	p.fire()
}

// Provide returns a single lens on the first line.
func (p *ActiveConnectionProvider) Provide(string) []Lens {
	cmd := &Command{
		Title:   "Disconnected. Click here to connect.",
		Command: CommandConnect,
	}
	if name, ok := p.conns.ActiveName(); ok {
		cmd = &Command{
			Title:   fmt.Sprintf("Currently connected to %s. Click here to change.", name),
			Command: CommandChangeActiveConnection,
		}
	}

	return []Lens{{Range: protocol.Range{}, Command: cmd}}
}
