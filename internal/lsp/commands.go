package lsp

import (
	"github.com/tliron/glsp"
	lsproto "github.com/tliron/glsp/protocol_3_16"
	"go.uber.org/zap"
)

// Commands accepted by workspace/executeCommand. The lens commands
// mdb.changeActiveConnection and mdb.runSelectedPlaygroundBlocks belong to
// the client and are not advertised.
const (
	CommandConnect             = "mdb.connect"
	CommandDisconnect          = "mdb.disconnect"
	CommandSetActiveConnection = "mdb.setActiveConnection"
	CommandListConnections     = "mdb.listConnections"
)

func commandNames() []string {
	return []string{
		CommandConnect,
		CommandDisconnect,
		CommandSetActiveConnection,
		CommandListConnections,
	}
}

// ConnectionList answers mdb.listConnections.
type ConnectionList struct {
	Connections []string `json:"connections"`
	Active      string   `json:"active,omitempty"`
}

func (s *Server) workspaceExecuteCommand(ctx *glsp.Context, params *lsproto.ExecuteCommandParams) (any, error) {
	s.logger.Info("Executing command", zap.String("command", params.Command))

	switch params.Command {
	case CommandConnect:
		if len(params.Arguments) == 0 {
			return nil, s.ConnectConfigured(s.ctx)
		}
		name, err := stringArg(params, 0)
		if err != nil {
			return nil, err
		}
		uri, err := stringArg(params, 1)
		if err != nil {
			return nil, err
		}
		return nil, s.conns.Connect(s.ctx, name, uri)

	case CommandDisconnect:
		name, err := stringArg(params, 0)
		if err != nil {
			return nil, err
		}
		return nil, s.conns.Disconnect(s.ctx, name)

	case CommandSetActiveConnection:
		name, err := stringArg(params, 0)
		if err != nil {
			return nil, err
		}
		return nil, s.conns.SetActive(name)

	case CommandListConnections:
		active, _ := s.conns.ActiveName()
		return ConnectionList{Connections: s.conns.List(), Active: active}, nil
	}

	return nil, &UnknownCommandError{Command: params.Command}
}

func stringArg(params *lsproto.ExecuteCommandParams, i int) (string, error) {
	if i >= len(params.Arguments) {
		return "", &CommandArgumentError{Command: params.Command, Index: i, Message: "missing"}
	}
	v, ok := params.Arguments[i].(string)
	if !ok || v == "" {
		return "", &CommandArgumentError{Command: params.Command, Index: i, Message: "must be a non-empty string"}
	}
	return v, nil
}
