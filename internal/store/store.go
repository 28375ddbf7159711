// Package store persists accepted connections to a durable append-only log
// and replays that log to rebuild graph state.
//
// The default backend is a plain text file with one "addressA,addressB" line
// per connection, no header and no escaping. A SQLite backend with the same
// contract lives in the sqlite subpackage.
package store

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"netwatch/internal/config"
	"netwatch/internal/domain"
	"netwatch/internal/store/sqlite"
)

// Sink receives each replayed record in store order
type Sink func(a, b string)

// Log is the persistence contract shared by every backend
type Log interface {
	// Append durably records one connection
	Append(ctx context.Context, a, b string) error
	// Replay feeds every well-formed record to sink and returns how many
	// parsed. A store that does not exist yet replays zero records.
	Replay(ctx context.Context, sink Sink) (int, error)
	// Location describes where records are kept
	Location() string
	Close() error
}

// Open creates the log selected by cfg
func Open(cfg config.StoreConfig) (Log, error) {
	switch cfg.Backend {
	case config.BackendCSV, "":
		return NewFileLog(cfg.Path), nil
	case config.BackendSQLite:
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &sqliteLog{db}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Dump writes every record to w in wire format. File logs are copied
// verbatim, malformed lines included.
func Dump(ctx context.Context, l Log, w io.Writer) error {
	if wt, ok := l.(io.WriterTo); ok {
		_, err := wt.WriteTo(w)
		return err
	}

	var werr error
	_, err := l.Replay(ctx, func(a, b string) {
		if werr == nil {
			_, werr = fmt.Fprintf(w, "%s,%s\n", a, b)
		}
	})
	if err != nil {
		return err
	}
	return werr
}

// ParseRecord splits one log line into its two addresses.
//
// The first field is everything before the first comma and must not be
// empty. The second field skips leading whitespace and ends at the next
// whitespace or end of line.
func ParseRecord(line string) (string, string, error) {
	i := strings.IndexByte(line, ',')
	if i <= 0 {
		return "", "", fmt.Errorf("%w: %q", domain.ErrMalformedRecord, line)
	}

	a := line[:i]
	b := strings.TrimLeftFunc(line[i+1:], unicode.IsSpace)
	if j := strings.IndexFunc(b, unicode.IsSpace); j >= 0 {
		b = b[:j]
	}
	if b == "" {
		return "", "", fmt.Errorf("%w: %q", domain.ErrMalformedRecord, line)
	}

	return a, b, nil
}

// FormatRecord renders a record as a log line. Addresses that would not
// parse back to the same pair are refused.
func FormatRecord(a, b string) (string, error) {
	if a == "" || b == "" ||
		strings.ContainsRune(a, ',') ||
		strings.ContainsAny(a, "\r\n") ||
		strings.IndexFunc(b, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%w: %q,%q", domain.ErrMalformedRecord, a, b)
	}
	return a + "," + b + "\n", nil
}

// sqliteLog adapts the sqlite repository to Log
type sqliteLog struct {
	*sqlite.Repository
}

func (l *sqliteLog) Replay(ctx context.Context, sink Sink) (int, error) {
	return l.Repository.Replay(ctx, sink)
}
