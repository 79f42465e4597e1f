package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	lsproto "github.com/tliron/glsp/protocol_3_16"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap/zaptest"

	"github.com/woxQAQ/mongodb-playground-lsp/internal/codelens"
	"github.com/woxQAQ/mongodb-playground-lsp/internal/config"
	"github.com/woxQAQ/mongodb-playground-lsp/internal/connection"
)

const (
	playgroundURI = "file:///work/playground.mongodb"
	localURI      = "mongodb://localhost:27017/shop"
)

type fakeClient struct {
	mu           sync.Mutex
	docs         []bson.Raw
	disconnected bool
}

func (f *fakeClient) Ping(context.Context) error { return nil }

func (f *fakeClient) ListDatabaseNames(context.Context) ([]string, error) {
	return []string{"admin", "shop"}, nil
}

func (f *fakeClient) ListCollectionNames(_ context.Context, db string) ([]string, error) {
	if db == "shop" {
		return []string{"orders"}, nil
	}
	return nil, nil
}

func (f *fakeClient) SampleDocuments(context.Context, string, string, int64) ([]bson.Raw, error) {
	return f.docs, nil
}

func (f *fakeClient) Disconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
	return nil
}

func newTestServer(t *testing.T, mutate func(*config.ServerConfig)) (*Server, *fakeClient) {
	t.Helper()

	cfg, err := config.LoadServerConfig("")
	require.NoError(t, err)
	cfg.AddonPaths = []string{t.TempDir()}
	if mutate != nil {
		mutate(cfg)
	}

	doc, err := bson.Marshal(bson.D{{Key: "_id", Value: 1}, {Key: "total", Value: 42}})
	require.NoError(t, err)
	fake := &fakeClient{docs: []bson.Raw{doc}}

	dial := func(_ context.Context, uri string) (connection.Client, error) {
		if uri != localURI {
			return nil, errors.New("unreachable")
		}
		return fake, nil
	}

	s, err := NewServer(context.Background(), cfg, zaptest.NewLogger(t),
		WithVersion("1.2.3"),
		WithConnectionOptions(connection.WithDialer(dial)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s, fake
}

func open(t *testing.T, s *Server, text string) {
	t.Helper()
	err := s.textDocumentDidOpen(&glsp.Context{}, &lsproto.DidOpenTextDocumentParams{
		TextDocument: lsproto.TextDocumentItem{
			URI:        playgroundURI,
			LanguageID: "javascript",
			Text:       text,
		},
	})
	require.NoError(t, err)
}

func complete(t *testing.T, s *Server, line, character uint32) []lsproto.CompletionItem {
	t.Helper()
	result, err := s.textDocumentCompletion(&glsp.Context{}, &lsproto.CompletionParams{
		TextDocumentPositionParams: lsproto.TextDocumentPositionParams{
			TextDocument: lsproto.TextDocumentIdentifier{URI: playgroundURI},
			Position:     lsproto.Position{Line: lsproto.UInteger(line), Character: lsproto.UInteger(character)},
		},
	})
	require.NoError(t, err)
	items, ok := result.([]lsproto.CompletionItem)
	require.True(t, ok, "unexpected result type %T", result)
	return items
}

func labels(items []lsproto.CompletionItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Label
	}
	return out
}

func find(items []lsproto.CompletionItem, label string) (lsproto.CompletionItem, bool) {
	for _, item := range items {
		if item.Label == label {
			return item, true
		}
	}
	return lsproto.CompletionItem{}, false
}

func connect(t *testing.T, s *Server) {
	t.Helper()
	_, err := s.workspaceExecuteCommand(&glsp.Context{}, &lsproto.ExecuteCommandParams{
		Command:   CommandConnect,
		Arguments: []any{"local", localURI},
	})
	require.NoError(t, err)
}

func TestInitialize(t *testing.T) {
	s, _ := newTestServer(t, nil)

	result, err := s.initialize(&glsp.Context{}, &lsproto.InitializeParams{})
	require.NoError(t, err)

	res, ok := result.(lsproto.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, res.ServerInfo)
	assert.Equal(t, ServerName, res.ServerInfo.Name)
	assert.Equal(t, "1.2.3", *res.ServerInfo.Version)

	caps := res.Capabilities
	require.NotNil(t, caps.CompletionProvider)
	assert.Equal(t, []string{".", "'", "\"", "`"}, caps.CompletionProvider.TriggerCharacters)

	syncOpts, ok := caps.TextDocumentSync.(*lsproto.TextDocumentSyncOptions)
	require.True(t, ok)
	assert.Equal(t, lsproto.TextDocumentSyncKindFull, *syncOpts.Change)
	assert.True(t, *syncOpts.OpenClose)

	assert.NotNil(t, caps.CodeLensProvider)
	require.NotNil(t, caps.ExecuteCommandProvider)
	assert.ElementsMatch(t,
		[]string{CommandConnect, CommandDisconnect, CommandSetActiveConnection, CommandListConnections},
		caps.ExecuteCommandProvider.Commands,
	)
}

func TestCompletionFromCatalog(t *testing.T) {
	s, _ := newTestServer(t, nil)
	open(t, s, "db.orders.find().")

	items := complete(t, s, 0, 17)
	got := labels(items)
	assert.Contains(t, got, "sort")
	assert.Contains(t, got, "limit")

	sortItem, ok := find(items, "sort")
	require.True(t, ok)
	require.NotNil(t, sortItem.Kind)
	assert.Equal(t, lsproto.CompletionItemKindMethod, *sortItem.Kind)
	assert.NotNil(t, sortItem.SortText)
	assert.NotNil(t, sortItem.Documentation)
}

func TestCompletionUnknownDocument(t *testing.T) {
	s, _ := newTestServer(t, nil)
	assert.Empty(t, complete(t, s, 0, 0))
}

func TestCompletionUsesActiveConnection(t *testing.T) {
	s, _ := newTestServer(t, nil)
	connect(t, s)

	open(t, s, "db.")
	items := complete(t, s, 0, 3)
	orders, ok := find(items, "orders")
	require.True(t, ok, "collections of the default database are offered, got %v", labels(items))
	assert.Equal(t, lsproto.CompletionItemKindFolder, *orders.Kind)

	open(t, s, "db.orders.find({ })")
	items = complete(t, s, 0, 17)
	assert.Contains(t, labels(items), "total")
}

func TestDidChangeAndClose(t *testing.T) {
	s, _ := newTestServer(t, nil)
	open(t, s, "const x = 1;")
	assert.Empty(t, complete(t, s, 0, 3))

	err := s.textDocumentDidChange(&glsp.Context{}, &lsproto.DidChangeTextDocumentParams{
		TextDocument: lsproto.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: lsproto.TextDocumentIdentifier{URI: playgroundURI},
		},
		ContentChanges: []any{
			lsproto.TextDocumentContentChangeEventWhole{Text: "db.orders.find()."},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, labels(complete(t, s, 0, 17)), "sort")

	err = s.textDocumentDidClose(&glsp.Context{}, &lsproto.DidCloseTextDocumentParams{
		TextDocument: lsproto.TextDocumentIdentifier{URI: playgroundURI},
	})
	require.NoError(t, err)
	assert.Empty(t, complete(t, s, 0, 17))
}

func TestCompletionIncludesAddons(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *config.ServerConfig) {
		cfg.AddonPaths = []string{"testdata/addons"}
	})
	open(t, s, "db.orders.")

	got := labels(complete(t, s, 0, 10))
	assert.Contains(t, got, "find")
	assert.Contains(t, got, "wasmItem")
}

func codeLens(t *testing.T, s *Server) []lsproto.CodeLens {
	t.Helper()
	lenses, err := s.textDocumentCodeLens(&glsp.Context{}, &lsproto.CodeLensParams{
		TextDocument: lsproto.TextDocumentIdentifier{URI: playgroundURI},
	})
	require.NoError(t, err)
	return lenses
}

func TestCodeLensFollowsSelection(t *testing.T) {
	s, _ := newTestServer(t, nil)
	r := &router{base: &s.handler, server: s}

	lenses := codeLens(t, s)
	require.Len(t, lenses, 1)
	assert.Equal(t, "Disconnected. Click here to connect.", lenses[0].Command.Title)
	assert.Equal(t, codelens.CommandConnect, lenses[0].Command.Command)

	params := json.RawMessage(`{"uri":"` + playgroundURI + `","range":{"start":{"line":1,"character":0},"end":{"line":2,"character":3}}}`)
	_, validMethod, validParams, err := r.Handle(&glsp.Context{Method: MethodSelectionChanged, Params: params})
	require.NoError(t, err)
	assert.True(t, validMethod)
	assert.True(t, validParams)

	lenses = codeLens(t, s)
	require.Len(t, lenses, 2)
	assert.Equal(t, codelens.RunSelectedTitle, lenses[0].Command.Title)
	assert.Equal(t, codelens.CommandRunSelectedPlaygroundBlocks, lenses[0].Command.Command)
	assert.Equal(t, lsproto.UInteger(1), lenses[0].Range.Start.Line)
	assert.Equal(t, lsproto.UInteger(3), lenses[0].Range.End.Character)

	connect(t, s)
	lenses = codeLens(t, s)
	require.Len(t, lenses, 2)
	assert.Equal(t, "Currently connected to local. Click here to change.", lenses[1].Command.Title)

	cleared := json.RawMessage(`{"uri":"` + playgroundURI + `","range":null}`)
	_, _, _, err = r.Handle(&glsp.Context{Method: MethodSelectionChanged, Params: cleared})
	require.NoError(t, err)
	assert.Len(t, codeLens(t, s), 1)
}

func TestRouterRejectsBadParams(t *testing.T) {
	s, _ := newTestServer(t, nil)
	r := &router{base: &s.handler, server: s}

	_, validMethod, validParams, err := r.Handle(&glsp.Context{
		Method: MethodSelectionChanged,
		Params: json.RawMessage(`{`),
	})
	assert.True(t, validMethod)
	assert.False(t, validParams)
	assert.Error(t, err)
}

func TestCodeLensRefreshRequested(t *testing.T) {
	s, _ := newTestServer(t, nil)

	var params lsproto.InitializeParams
	require.NoError(t, json.Unmarshal([]byte(`{"capabilities":{"workspace":{"codeLens":{"refreshSupport":true}}}}`), &params))

	calls := make(chan string, 8)
	ctx := &glsp.Context{Call: func(method string, _ any, _ any) { calls <- method }}
	_, err := s.initialize(ctx, &params)
	require.NoError(t, err)

	connect(t, s)

	select {
	case method := <-calls:
		assert.Equal(t, "workspace/codeLens/refresh", method)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a code lens refresh request")
	}
}

func TestNoRefreshWithoutClientSupport(t *testing.T) {
	s, _ := newTestServer(t, nil)

	calls := make(chan string, 8)
	ctx := &glsp.Context{Call: func(method string, _ any, _ any) { calls <- method }}
	_, err := s.initialize(ctx, &lsproto.InitializeParams{})
	require.NoError(t, err)

	require.NoError(t, s.workspaceDidChangeConfiguration(&glsp.Context{}, &lsproto.DidChangeConfigurationParams{}))

	select {
	case method := <-calls:
		t.Fatalf("unexpected call %s", method)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestExecuteCommands(t *testing.T) {
	s, fake := newTestServer(t, nil)
	connect(t, s)

	result, err := s.workspaceExecuteCommand(&glsp.Context{}, &lsproto.ExecuteCommandParams{Command: CommandListConnections})
	require.NoError(t, err)
	assert.Equal(t, ConnectionList{Connections: []string{"local"}, Active: "local"}, result)

	_, err = s.workspaceExecuteCommand(&glsp.Context{}, &lsproto.ExecuteCommandParams{
		Command:   CommandSetActiveConnection,
		Arguments: []any{"nope"},
	})
	var notFound *connection.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = s.workspaceExecuteCommand(&glsp.Context{}, &lsproto.ExecuteCommandParams{
		Command:   CommandDisconnect,
		Arguments: []any{"local"},
	})
	require.NoError(t, err)
	assert.True(t, fake.disconnected)

	result, err = s.workspaceExecuteCommand(&glsp.Context{}, &lsproto.ExecuteCommandParams{Command: CommandListConnections})
	require.NoError(t, err)
	assert.Equal(t, ConnectionList{Connections: []string{}}, result)
}

func TestExecuteCommandErrors(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		name   string
		params *lsproto.ExecuteCommandParams
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unknown command",
			params: &lsproto.ExecuteCommandParams{Command: "mdb.unknown"},
			check: func(t *testing.T, err error) {
				var target *UnknownCommandError
				assert.ErrorAs(t, err, &target)
			},
		},
		{
			name:   "missing argument",
			params: &lsproto.ExecuteCommandParams{Command: CommandConnect, Arguments: []any{"local"}},
			check: func(t *testing.T, err error) {
				var target *CommandArgumentError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, 1, target.Index)
			},
		},
		{
			name:   "no arguments and nothing configured",
			params: &lsproto.ExecuteCommandParams{Command: CommandConnect},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNoConfiguredConnections)
			},
		},
		{
			name:   "wrong argument type",
			params: &lsproto.ExecuteCommandParams{Command: CommandDisconnect, Arguments: []any{42.0}},
			check: func(t *testing.T, err error) {
				var target *CommandArgumentError
				assert.ErrorAs(t, err, &target)
			},
		},
		{
			name:   "unreachable deployment",
			params: &lsproto.ExecuteCommandParams{Command: CommandConnect, Arguments: []any{"remote", "mongodb://remote:27017"}},
			check: func(t *testing.T, err error) {
				var target *connection.ConnectError
				assert.ErrorAs(t, err, &target)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.workspaceExecuteCommand(&glsp.Context{}, tt.params)
			tt.check(t, err)
		})
	}
}

func TestConnectConfigured(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *config.ServerConfig) {
		cfg.Connections = []config.ConnectionTarget{
			{Name: "local", URI: localURI},
			{Name: "broken", URI: "mongodb://remote:27017"},
		}
	})

	err := s.ConnectConfigured(context.Background())
	var connErr *connection.ConnectError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "broken", connErr.Name)

	name, ok := s.conns.ActiveName()
	require.True(t, ok)
	assert.Equal(t, "local", name)
	assert.Equal(t, []string{"local"}, s.conns.List())

	// Open connections are skipped on the next attempt.
	err = s.ConnectConfigured(context.Background())
	var already *connection.AlreadyConnectedError
	assert.False(t, errors.As(err, &already))
	assert.Equal(t, []string{"local"}, s.conns.List())
}

func TestConnectConfiguredWithoutTargets(t *testing.T) {
	s, _ := newTestServer(t, nil)
	assert.ErrorIs(t, s.ConnectConfigured(context.Background()), ErrNoConfiguredConnections)
}

func TestCodeLensCommandsAreExecutable(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *config.ServerConfig) {
		cfg.Connections = []config.ConnectionTarget{{Name: "local", URI: localURI}}
	})
	r := &router{base: &s.handler, server: s}

	params := json.RawMessage(`{"uri":"` + playgroundURI + `","range":{"start":{"line":0,"character":0},"end":{"line":0,"character":3}}}`)
	_, _, _, err := r.Handle(&glsp.Context{Method: MethodSelectionChanged, Params: params})
	require.NoError(t, err)

	advertised := make(map[string]bool)
	for _, name := range commandNames() {
		advertised[name] = true
	}
	clientSide := map[string]bool{
		codelens.CommandRunSelectedPlaygroundBlocks: true,
		codelens.CommandChangeActiveConnection:      true,
	}

	run := func(lenses []lsproto.CodeLens) {
		t.Helper()
		for _, lens := range lenses {
			require.NotNil(t, lens.Command)
			cmd := lens.Command.Command
			if clientSide[cmd] {
				assert.False(t, advertised[cmd], "%s belongs to the client", cmd)
				continue
			}
			require.True(t, advertised[cmd], "lens command %s is not advertised", cmd)

			_, err := s.workspaceExecuteCommand(&glsp.Context{}, &lsproto.ExecuteCommandParams{
				Command:   cmd,
				Arguments: lens.Command.Arguments,
			})
			assert.NoError(t, err, "running lens %q", lens.Command.Title)
		}
	}

	disconnected := codeLens(t, s)
	require.Len(t, disconnected, 2)
	assert.Equal(t, codelens.CommandConnect, disconnected[1].Command.Command)
	run(disconnected)

	name, ok := s.conns.ActiveName()
	require.True(t, ok, "the connect lens opens the configured connection")
	assert.Equal(t, "local", name)

	connected := codeLens(t, s)
	require.Len(t, connected, 2)
	assert.Equal(t, codelens.CommandChangeActiveConnection, connected[1].Command.Command)
	run(connected)
}

func TestReload(t *testing.T) {
	s, _ := newTestServer(t, nil)

	for _, uri := range []string{"file:///a.mongodb", "file:///b.mongodb", "file:///c.mongodb"} {
		s.documents.Set(uri, "db.")
	}

	next := *s.config()
	next.Completion.MaxDocuments = 1
	s.Reload(&next)

	assert.Equal(t, 1, s.documents.Len())
	assert.Equal(t, 1, s.config().Completion.MaxDocuments)
}
