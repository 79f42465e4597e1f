package lsp

import (
	"errors"

	"github.com/tliron/glsp"
	lsproto "github.com/tliron/glsp/protocol_3_16"
	"go.uber.org/zap"
)

const methodCodeLensRefresh = "workspace/codeLens/refresh"

func (s *Server) initialize(ctx *glsp.Context, params *lsproto.InitializeParams) (any, error) {
	clientName := ""
	if params.ClientInfo != nil {
		clientName = params.ClientInfo.Name
	}
	s.logger.Info("LSP client initializing", zap.String("client", clientName))

	refresh := false
	if ws := params.Capabilities.Workspace; ws != nil && ws.CodeLens != nil && ws.CodeLens.RefreshSupport != nil {
		refresh = *ws.CodeLens.RefreshSupport
	}
	s.mu.Lock()
	s.client = &client{call: ctx.Call, refreshLenses: refresh}
	s.mu.Unlock()

	syncKind := lsproto.TextDocumentSyncKindFull
	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &lsproto.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &lsproto.CompletionOptions{
		TriggerCharacters: s.config().Completion.TriggerCharacters,
	}
	capabilities.CodeLensProvider = &lsproto.CodeLensOptions{
		ResolveProvider: boolPtr(false),
	}
	capabilities.ExecuteCommandProvider = &lsproto.ExecuteCommandOptions{
		Commands: commandNames(),
	}

	return lsproto.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &lsproto.InitializeResultServerInfo{
			Name:    ServerName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *lsproto.InitializedParams) error {
	s.logger.Info("LSP client initialized")
	go func() {
		if err := s.ConnectConfigured(s.ctx); err != nil && !errors.Is(err, ErrNoConfiguredConnections) {
			s.logger.Debug("Some configured connections are unavailable", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	s.logger.Info("LSP client shutting down")
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *lsproto.SetTraceParams) error {
	lsproto.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *lsproto.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	s.documents.Set(uri, params.TextDocument.Text)
	s.logger.Debug("Document opened", zap.String("uri", uri), zap.Int("length", len(params.TextDocument.Text)))
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *lsproto.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	for _, change := range params.ContentChanges {
		if whole, ok := change.(lsproto.TextDocumentContentChangeEventWhole); ok {
			s.documents.Set(uri, whole.Text)
		}
	}
	s.logger.Debug("Document changed", zap.String("uri", uri), zap.Int("changes", len(params.ContentChanges)))
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *lsproto.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	s.documents.Remove(uri)
	s.partial.Forget(uri)
	s.logger.Debug("Document closed", zap.String("uri", uri))
	return nil
}

func (s *Server) textDocumentCompletion(ctx *glsp.Context, params *lsproto.CompletionParams) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic in completion handler",
				zap.Any("panic", r),
				zap.String("uri", string(params.TextDocument.URI)),
			)
			result = []lsproto.CompletionItem{}
			err = nil
		}
	}()

	uri := string(params.TextDocument.URI)
	text, ok := s.documents.Get(uri)
	if !ok {
		return []lsproto.CompletionItem{}, nil
	}

	items, err := s.engine.Complete(s.ctx, text, toPosition(params.Position))
	if err != nil {
		s.logger.Error("Completion error", zap.Error(err))
		return nil, err
	}

	s.logger.Debug("LSP completion result",
		zap.String("uri", uri),
		zap.Uint32("line", uint32(params.Position.Line)),
		zap.Uint32("character", uint32(params.Position.Character)),
		zap.Int("count", len(items)),
	)
	return completionItems(items), nil
}

func (s *Server) textDocumentCodeLens(ctx *glsp.Context, params *lsproto.CodeLensParams) ([]lsproto.CodeLens, error) {
	uri := string(params.TextDocument.URI)
	lenses := append(s.partial.Provide(uri), s.active.Provide(uri)...)
	return codeLenses(lenses), nil
}

func (s *Server) workspaceDidChangeConfiguration(ctx *glsp.Context, params *lsproto.DidChangeConfigurationParams) error {
	s.logger.Debug("Client configuration changed")
	s.partial.Notify()
	return nil
}
