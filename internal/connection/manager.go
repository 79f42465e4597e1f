// Package connection keeps the named MongoDB connections of a session and
// serves schema lookups from the active one.
package connection

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"

	"github.com/woxQAQ/mongodb-playground-lsp/internal/config"
)

// DefaultDatabase is used when a connection string names no database.
const DefaultDatabase = "test"

// Connection is one open deployment.
type Connection struct {
	Name        string
	Database    string
	Hosts       []string
	ConnectedAt time.Time

	client Client
}

// Manager holds named connections. At most one is active.
type Manager struct {
	dial       Dialer
	timeout    time.Duration
	sampleSize int64
	logger     *zap.Logger

	mu        sync.RWMutex
	conns     map[string]*Connection
	order     []string
	active    string
	listeners []func()
}

// Option configures a Manager.
type Option func(*Manager)

// WithDialer replaces the driver, mainly for tests.
func WithDialer(d Dialer) Option {
	return func(m *Manager) { m.dial = d }
}

// WithTimeout overrides connection.timeout from the configuration.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// NewManager creates a manager with the driver settings from cfg.
func NewManager(cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		dial:       DialMongo,
		timeout:    time.Duration(cfg.Connection.Timeout) * time.Second,
		sampleSize: int64(cfg.Completion.FieldSampleSize),
		logger:     logger.With(zap.String("component", "connection-manager")),
		conns:      make(map[string]*Connection),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnChange registers fn to run after the set of connections or the active
// connection changes.
func (m *Manager) OnChange(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) notify() {
	m.mu.RLock()
	listeners := make([]func(), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

// Connect opens and pings a deployment. The first connection becomes active.
func (m *Manager) Connect(ctx context.Context, name, uri string) error {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return &InvalidURIError{Name: name, Err: err}
	}

	m.mu.RLock()
	_, exists := m.conns[name]
	m.mu.RUnlock()
	if exists {
		return &AlreadyConnectedError{Name: name}
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	m.logger.Info("Connecting", zap.String("name", name), zap.Strings("hosts", cs.Hosts))

	client, err := m.dial(ctx, uri)
	if err != nil {
		return &ConnectError{Name: name, Hosts: cs.Hosts, Err: err}
	}
	if err := client.Ping(ctx); err != nil {
		m.closeClient(context.WithoutCancel(ctx), name, client)
		return &ConnectError{Name: name, Hosts: cs.Hosts, Err: err}
	}

	database := cs.Database
	if database == "" {
		database = DefaultDatabase
	}
	conn := &Connection{
		Name:        name,
		Database:    database,
		Hosts:       cs.Hosts,
		ConnectedAt: time.Now(),
		client:      client,
	}

	m.mu.Lock()
	if _, exists := m.conns[name]; exists {
		m.mu.Unlock()
		m.closeClient(context.WithoutCancel(ctx), name, client)
		return &AlreadyConnectedError{Name: name}
	}
	m.conns[name] = conn
	m.order = append(m.order, name)
	if m.active == "" {
		m.active = name
	}
	m.mu.Unlock()

	m.logger.Info("Connected", zap.String("name", name), zap.String("database", database))
	m.notify()
	return nil
}

// Disconnect closes a connection. When it was active, the oldest remaining
// connection takes over.
func (m *Manager) Disconnect(ctx context.Context, name string) error {
	m.mu.Lock()
	conn, ok := m.conns[name]
	if !ok {
		m.mu.Unlock()
		return &NotFoundError{Name: name}
	}
	delete(m.conns, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.active == name {
		m.active = ""
		if len(m.order) > 0 {
			m.active = m.order[0]
		}
	}
	m.mu.Unlock()

	err := conn.client.Disconnect(ctx)
	if err != nil {
		m.logger.Warn("Disconnect failed", zap.String("name", name), zap.Error(err))
	} else {
		m.logger.Info("Disconnected", zap.String("name", name))
	}

	m.notify()
	return err
}

// closeClient releases a client that never became a connection.
func (m *Manager) closeClient(ctx context.Context, name string, client Client) {
	if err := client.Disconnect(ctx); err != nil {
		m.logger.Warn("Disconnect failed", zap.String("name", name), zap.Error(err))
	}
}

// withTimeout bounds a driver call by connection.timeout.
func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}

// SetActive makes name the active connection.
func (m *Manager) SetActive(name string) error {
	m.mu.Lock()
	if _, ok := m.conns[name]; !ok {
		m.mu.Unlock()
		return &NotFoundError{Name: name}
	}
	changed := m.active != name
	m.active = name
	m.mu.Unlock()

	if changed {
		m.logger.Info("Active connection changed", zap.String("name", name))
		m.notify()
	}
	return nil
}

// ActiveName returns the active connection name.
func (m *Manager) ActiveName() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active, m.active != ""
}

// List returns connection names in the order they were opened.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Close disconnects everything.
func (m *Manager) Close(ctx context.Context) error {
	var errs []error
	for _, name := range m.List() {
		if err := m.Disconnect(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) activeConn() (*Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == "" {
		return nil, ErrNoActiveConnection
	}
	return m.conns[m.active], nil
}

// DefaultDatabase returns the database of the active connection string,
// or "" while disconnected.
func (m *Manager) DefaultDatabase() string {
	conn, err := m.activeConn()
	if err != nil {
		return ""
	}
	return conn.Database
}

// DatabaseNames lists databases on the active deployment.
func (m *Manager) DatabaseNames(ctx context.Context) ([]string, error) {
	conn, err := m.activeConn()
	if err != nil {
		return nil, err
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return conn.client.ListDatabaseNames(ctx)
}

// CollectionNames lists the collections of database.
func (m *Manager) CollectionNames(ctx context.Context, database string) ([]string, error) {
	conn, err := m.activeConn()
	if err != nil {
		return nil, err
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	names, err := conn.client.ListCollectionNames(ctx, database)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// FieldNames returns the sorted union of top-level keys over a sample of
// the collection.
func (m *Manager) FieldNames(ctx context.Context, database, collection string) ([]string, error) {
	conn, err := m.activeConn()
	if err != nil {
		return nil, err
	}
	if m.sampleSize <= 0 {
		return nil, nil
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	docs, err := conn.client.SampleDocuments(ctx, database, collection, m.sampleSize)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var fields []string
	for _, doc := range docs {
		elems, err := doc.Elements()
		if err != nil {
			m.logger.Debug("Skipping malformed document", zap.Error(err))
			continue
		}
		for _, e := range elems {
			if key := e.Key(); !seen[key] {
				seen[key] = true
				fields = append(fields, key)
			}
		}
	}
	sort.Strings(fields)
	return fields, nil
}
