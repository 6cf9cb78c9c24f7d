// Package pagination implements opaque keyset cursors for list endpoints.
//
// A cursor encodes the (createdAt, id) pair of the last row on a page so
// the next request can resume after it without offset scans.
package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidCursor is returned by Decode for cursors that are not ours.
var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is the decoded position within a result set ordered by
// (created_at DESC, id DESC).
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Encode serializes a row key into an opaque, URL-safe token.
func Encode(createdAt time.Time, id string) string {
	raw := fmt.Sprintf("%d|%s", createdAt.UnixNano(), id)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode. An empty token decodes to a
// nil cursor, meaning "start from the newest row".
func Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	nanos, id, ok := strings.Cut(string(raw), "|")
	if !ok {
		return nil, ErrInvalidCursor
	}
	ts, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &Cursor{CreatedAt: time.Unix(0, ts).UTC(), ID: id}, nil
}

// ComputePage trims a slice fetched with limit+1 rows down to limit and
// reports whether more rows remain, along with the cursor for the next
// page. extractKey returns the (createdAt, id) of an item.
func ComputePage[T any](items []T, limit int, extractKey func(T) (time.Time, string)) ([]T, string, bool) {
	if len(items) <= limit {
		return items, "", false
	}
	items = items[:limit]
	createdAt, id := extractKey(items[len(items)-1])
	return items, Encode(createdAt, id), true
}
