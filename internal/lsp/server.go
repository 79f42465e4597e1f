// Package lsp serves MongoDB playgrounds over the Language Server Protocol.
package lsp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tliron/glsp"
	lsproto "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"go.uber.org/zap"

	// Routes glsp's own logging through commonlog's default backend.
	_ "github.com/tliron/commonlog/simple"

	"github.com/woxQAQ/mongodb-playground-lsp/internal/addon"
	"github.com/woxQAQ/mongodb-playground-lsp/internal/codelens"
	"github.com/woxQAQ/mongodb-playground-lsp/internal/completion"
	"github.com/woxQAQ/mongodb-playground-lsp/internal/config"
	"github.com/woxQAQ/mongodb-playground-lsp/internal/connection"
	"github.com/woxQAQ/mongodb-playground-lsp/internal/wasm"
)

// ServerName is reported to clients in the initialize response.
const ServerName = "mdb-lsp"

// Server is a playground language server session.
type Server struct {
	ctx     context.Context
	logger  *zap.Logger
	version string

	addons    *addon.Manager
	conns     *connection.Manager
	engine    *completion.Engine
	documents *DocumentStore
	partial   *codelens.PartialExecutionProvider
	active    *codelens.ActiveConnectionProvider

	handler lsproto.Handler
	glsp    *glspserver.Server

	mu     sync.Mutex
	cfg    *config.ServerConfig
	client *client
}

// client is the editor side of the session, known once it initializes.
type client struct {
	call          glsp.CallFunc
	refreshLenses bool
}

// Option configures a Server.
type Option func(*options)

type options struct {
	version  string
	connOpts []connection.Option
}

// WithVersion sets the version reported to clients.
func WithVersion(version string) Option {
	return func(o *options) { o.version = version }
}

// WithConnectionOptions passes options to the connection manager.
func WithConnectionOptions(opts ...connection.Option) Option {
	return func(o *options) { o.connOpts = append(o.connOpts, opts...) }
}

// NewServer builds every component of a session from cfg. ctx bounds the
// lifetime of background work such as connecting and add-on calls.
func NewServer(ctx context.Context, cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) (*Server, error) {
	o := &options{version: "dev"}
	for _, opt := range opts {
		opt(o)
	}

	wasmConfig := &wasm.RuntimeConfig{
		MemoryPages:      cfg.Wasm.MemoryPages,
		DebugEnabled:     cfg.Wasm.Debug,
		CacheDir:         cfg.Wasm.CacheDir,
		MaxInstances:     cfg.Wasm.MaxInstances,
		ExecutionTimeout: time.Duration(cfg.Wasm.ExecutionTimeout) * time.Second,
	}

	wasmRuntime, err := wasm.NewRuntime(ctx, logger, wasmConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Wasm runtime: %w", err)
	}

	addons := addon.NewManager(cfg.AddonPaths, wasmRuntime, wasm.NewHostFunctions(logger), logger)
	if err := addons.LoadAll(ctx); err != nil {
		wasmRuntime.Close(ctx)
		return nil, fmt.Errorf("failed to load add-ons: %w", err)
	}

	catalog, err := completion.DefaultCatalog()
	if err != nil {
		addons.Shutdown(ctx)
		return nil, err
	}

	documents, err := NewDocumentStore(cfg.Completion.MaxDocuments, logger)
	if err != nil {
		addons.Shutdown(ctx)
		return nil, err
	}

	conns := connection.NewManager(cfg, logger, o.connOpts...)

	s := &Server{
		ctx:       ctx,
		logger:    logger.With(zap.String("component", "lsp")),
		version:   o.version,
		cfg:       cfg,
		addons:    addons,
		conns:     conns,
		engine:    completion.NewEngine(catalog, conns, logger, addons),
		documents: documents,
		partial:   codelens.NewPartialExecutionProvider(),
		active:    codelens.NewActiveConnectionProvider(conns),
	}

	conns.OnChange(s.active.Changed)
	s.partial.OnDidChange(s.refreshCodeLenses)
	s.active.OnDidChange(s.refreshCodeLenses)

	s.handler = lsproto.Handler{
		Initialize:                      s.initialize,
		Initialized:                     s.initialized,
		Shutdown:                        s.shutdown,
		SetTrace:                        s.setTrace,
		TextDocumentDidOpen:             s.textDocumentDidOpen,
		TextDocumentDidChange:           s.textDocumentDidChange,
		TextDocumentDidClose:            s.textDocumentDidClose,
		TextDocumentCompletion:          s.textDocumentCompletion,
		TextDocumentCodeLens:            s.textDocumentCodeLens,
		WorkspaceExecuteCommand:         s.workspaceExecuteCommand,
		WorkspaceDidChangeConfiguration: s.workspaceDidChangeConfiguration,
	}
	s.glsp = glspserver.NewServer(&router{base: &s.handler, server: s}, ServerName, cfg.LogLevel == "debug")

	s.logger.Info("LSP server initialized",
		zap.Int("addons", addons.Registry().Count()),
		zap.Int("max_documents", cfg.Completion.MaxDocuments),
		zap.Uint32("wasm_memory_pages", cfg.Wasm.MemoryPages),
		zap.String("wasm_cache_dir", cfg.Wasm.CacheDir),
	)

	return s, nil
}

// ConnectConfigured opens the connections listed in the configuration that
// are not open yet. Each failure is logged and the others still connect;
// the failures are returned joined.
func (s *Server) ConnectConfigured(ctx context.Context) error {
	targets := s.config().Connections
	if len(targets) == 0 {
		return ErrNoConfiguredConnections
	}

	var errs []error
	for _, target := range targets {
		err := s.conns.Connect(ctx, target.Name, target.URI)
		var already *connection.AlreadyConnectedError
		if err == nil || errors.As(err, &already) {
			continue
		}
		s.logger.Warn("Failed to open configured connection",
			zap.String("name", target.Name),
			zap.Error(err),
		)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Reload applies a changed configuration. Only settings that can change
// within a session are honored; the rest take effect on restart.
func (s *Server) Reload(cfg *config.ServerConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	s.documents.Resize(cfg.Completion.MaxDocuments)
	s.logger.Info("Configuration reloaded")
	s.partial.Notify()
}

func (s *Server) config() *config.ServerConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// refreshCodeLenses asks the client to pull code lenses again.
func (s *Server) refreshCodeLenses() {
	s.mu.Lock()
	c := s.client
	s.mu.Unlock()

	if c == nil || !c.refreshLenses {
		return
	}
	go c.call(methodCodeLensRefresh, nil, nil)
}

// ServeStdio serves a single client over stdin and stdout until the
// connection ends or ctx is done.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("Serving LSP over stdio")
	return s.serve(ctx, s.glsp.RunStdio)
}

// ServeTCP listens on the given local port.
func (s *Server) ServeTCP(ctx context.Context, port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	s.logger.Info("Serving LSP over TCP", zap.String("address", addr))
	return s.serve(ctx, func() error { return s.glsp.RunTCP(addr) })
}

func (s *Server) serve(ctx context.Context, run func() error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Close gracefully shuts down the server.
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down LSP server")

	var errs []error
	if err := s.conns.Close(ctx); err != nil {
		s.logger.Error("Failed to close connections", zap.Error(err))
		errs = append(errs, err)
	}
	if err := s.addons.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	s.logger.Info("LSP server shutdown complete")
	return errors.Join(errs...)
}
