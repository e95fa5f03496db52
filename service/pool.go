package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"mongochat/cache"
	"mongochat/logger"
	"mongochat/validation"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
)

var (
	ErrInvalidURI       = errors.New("invalid MongoDB connection string")
	ErrAuthFailed       = errors.New("MongoDB authentication failed")
	ErrNoDatabase       = errors.New("no database name in request or connection string")
	ErrConnectionFailed = errors.New("could not connect to MongoDB")
)

const (
	serverSelectionTimeout = 5 * time.Second
	authFailedCode         = 18
)

// Pool keeps one *mongo.Client per connection string. Clients are evicted
// after the TTL passes without use and disconnected on eviction.
type Pool struct {
	clients *cache.Cache
	ttl     time.Duration
	timeout time.Duration
	log     *zap.Logger

	mu sync.Mutex
}

func NewPool(ttl, timeout time.Duration, log *zap.Logger) *Pool {
	p := &Pool{
		clients: cache.NewWithTTL(ttl, time.Minute),
		ttl:     ttl,
		timeout: timeout,
		log:     log,
	}
	p.clients.OnEvicted(func(key string, value interface{}) {
		client, ok := value.(*mongo.Client)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Warn("failed to disconnect pooled client", zap.String("key", key[:12]), zap.Error(err))
			return
		}
		log.Debug("disconnected pooled client", zap.String("key", key[:12]))
	})
	return p
}

// Fingerprint identifies a connection URI without keeping its credentials.
func Fingerprint(uri string) string {
	sum := sha256.Sum256([]byte(uri))
	return hex.EncodeToString(sum[:])
}

// ResolveDatabase validates the URI and picks the database name: the explicit
// name wins over the one in the URI path.
func ResolveDatabase(uri, dbName string) (string, error) {
	if err := validation.ValidateMongoURI(uri); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	cs, err := connstring.ParseAndValidate(strings.TrimSpace(uri))
	if err != nil {
		return "", classifyOpenError(err)
	}

	name := strings.TrimSpace(dbName)
	if name == "" {
		name = cs.Database
	}
	if name == "" {
		return "", ErrNoDatabase
	}
	if err := validation.ValidateDatabaseName(name); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidURI, name)
	}
	return name, nil
}

// Verify connects, pings the primary and keeps the client in the pool. It
// returns the resolved database name.
func (p *Pool) Verify(ctx context.Context, uri, dbName string) (string, error) {
	name, err := ResolveDatabase(uri, dbName)
	if err != nil {
		return "", err
	}

	client, err := p.client(ctx, uri)
	if err != nil {
		return "", err
	}

	pingCtx, cancel := context.WithTimeout(ctx, serverSelectionTimeout+time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		// a failed client is not worth keeping
		p.clients.Delete(Fingerprint(uri))
		return "", classifyConnectError(err)
	}

	p.log.Info("verified MongoDB connection", zap.String("host", logger.RedactURI(uri)), zap.String("db", name))
	return name, nil
}

// Database returns a handle on dbName through a pooled client.
func (p *Pool) Database(ctx context.Context, uri, dbName string) (Database, error) {
	client, err := p.client(ctx, uri)
	if err != nil {
		return nil, err
	}
	return NewMongoDatabase(client.Database(dbName), p.timeout, p.log), nil
}

func (p *Pool) client(ctx context.Context, uri string) (*mongo.Client, error) {
	key := Fingerprint(uri)

	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.clients.Get(key); ok {
		client := v.(*mongo.Client)
		// refresh the TTL; Set does not trigger eviction
		p.clients.Set(key, client, p.ttl)
		return client, nil
	}

	opts := options.Client().
		ApplyURI(strings.TrimSpace(uri)).
		SetServerSelectionTimeout(serverSelectionTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, classifyOpenError(err)
	}
	p.clients.Set(key, client, p.ttl)
	p.log.Debug("opened MongoDB client", zap.String("host", logger.RedactURI(uri)), zap.Int("pooled", p.clients.Count()))
	return client, nil
}

// Size reports the number of pooled clients.
func (p *Pool) Size() int {
	return p.clients.Count()
}

// Close disconnects every pooled client, including expired ones the janitor
// has not reached.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clients.DeleteExpired()
	for _, key := range p.clients.Keys() {
		p.clients.Delete(key)
	}
}

// classifyOpenError separates a malformed URI from one the driver could not
// resolve, e.g. a mongodb+srv host whose SRV lookup failed.
func classifyOpenError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	if strings.Contains(strings.ToLower(err.Error()), "lookup ") {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidURI, err)
}

func classifyConnectError(err error) error {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == authFailedCode {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "auth error") || strings.Contains(msg, "authentication failed") {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
}
