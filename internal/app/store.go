package app

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/law-makers/lotwatch/internal/store"
	"github.com/law-makers/lotwatch/internal/store/jsonfile"
	"github.com/law-makers/lotwatch/internal/store/postgres"
	"github.com/law-makers/lotwatch/internal/store/sqlite"
)

// Backend names the store implementation a DSN selects.
type Backend string

const (
	BackendJSON     Backend = "json"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// ParseDSN picks a backend for dsn and returns the location to hand it.
//
//	postgres://... or postgresql://...  -> postgres, dsn unchanged
//	sqlite://path or *.db / *.sqlite     -> sqlite file at path
//	anything else                        -> directory of JSON collections
func ParseDSN(dsn string) (Backend, string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return BackendPostgres, dsn
	case strings.HasPrefix(dsn, "sqlite://"):
		return BackendSQLite, strings.TrimPrefix(dsn, "sqlite://")
	}
	switch strings.ToLower(filepath.Ext(dsn)) {
	case ".db", ".sqlite", ".sqlite3":
		return BackendSQLite, dsn
	}
	return BackendJSON, dsn
}

// OpenStore opens the backend named by dsn.
func OpenStore(ctx context.Context, dsn string) (store.Store, error) {
	backend, loc := ParseDSN(dsn)
	var (
		s   store.Store
		err error
	)
	switch backend {
	case BackendPostgres:
		s, err = postgres.New(ctx, loc)
	case BackendSQLite:
		s, err = sqlite.New(loc)
	default:
		s, err = jsonfile.New(loc)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", backend, err)
	}
	return s, nil
}

// RedactDSN hides any password in a URL-style DSN.
func RedactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
