// Package store provides the document store that submissions are persisted to.
//
// A DocumentStore groups documents into named collections and assigns each
// new document a generated identifier. Drivers exist for PostgreSQL (one
// JSONB table per collection), Redis, DynamoDB and process memory; Open picks
// one from the configured URL.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverDynamoDB = "dynamodb"
	DriverMemory   = "memory"
)

// Common errors for store operations.
var (
	ErrNotInitialized    = errors.New("document store not initialized")
	ErrUnknownDriver     = errors.New("unknown store driver")
	ErrInvalidCollection = errors.New("invalid collection name")
)

// DocumentStore persists documents into named collections.
type DocumentStore interface {
	// Create stores fields as a new document and returns its identifier.
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)

	// ListCollections returns the known collection names in sorted order.
	ListCollections(ctx context.Context) ([]string, error)

	// Name identifies the underlying database.
	Name() string

	Ping(ctx context.Context) error
	Close() error
}

// Options configures Open.
type Options struct {
	URL    string
	Name   string
	Driver string
	Logger *slog.Logger
}

// Open connects to the store described by opts. It returns a nil store and a
// nil error when no URL is configured, so callers must treat the store as
// optional.
func Open(ctx context.Context, opts Options) (DocumentStore, error) {
	if opts.URL == "" && opts.Driver != DriverMemory {
		return nil, nil
	}

	driver, err := DetectDriver(opts.Driver, opts.URL)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("opening document store", "driver", driver, "name", opts.Name)

	// Typed nil pointers must not leak out as non-nil interfaces.
	switch driver {
	case DriverPostgres:
		s, err := NewPostgres(ctx, opts.URL, opts.Name)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverRedis:
		s, err := NewRedis(ctx, opts.URL, opts.Name)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverDynamoDB:
		s, err := NewDynamo(ctx, opts.URL, opts.Name)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return NewMemory(opts.Name), nil
	}
}

// DetectDriver resolves the driver name. An explicit driver wins; otherwise
// the URL scheme decides.
func DetectDriver(driver, rawURL string) (string, error) {
	if driver != "" {
		switch d := strings.ToLower(driver); d {
		case DriverPostgres, DriverRedis, DriverDynamoDB, DriverMemory:
			return d, nil
		default:
			return "", fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: unparseable database URL", ErrUnknownDriver)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return DriverPostgres, nil
	case "redis", "rediss":
		return DriverRedis, nil
	case "dynamodb":
		return DriverDynamoDB, nil
	case "memory":
		return DriverMemory, nil
	default:
		return "", fmt.Errorf("%w: scheme %q", ErrUnknownDriver, u.Scheme)
	}
}

var collectionPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// ValidateCollection rejects names that cannot be used as a table or key segment.
func ValidateCollection(name string) error {
	if !collectionPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	return nil
}

// NewID returns a new document identifier.
func NewID() string {
	return ulid.Make().String()
}

// stamp copies fields and adds creation and update timestamps.
func stamp(fields map[string]any, now time.Time) map[string]any {
	doc := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		doc[k] = v
	}
	now = now.UTC()
	doc["created_at"] = now
	doc["updated_at"] = now
	return doc
}
