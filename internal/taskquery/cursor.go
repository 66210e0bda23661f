package taskquery

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// cursorVersion tags the serialized representation so the codec can change
// it later: tokens from an older representation fail decoding cleanly as
// ErrInvalidCursor instead of being misread.
const cursorVersion = 1

// Cursor marks a position in a keyset traversal: the sort-key value of the
// last row on the previous page, plus that row's ID to break ties when the
// sort key is not unique. It represents a position, not a row reference:
// a cursor stays valid after the row it was derived from is deleted.
type Cursor struct {
	SortValue time.Time
	ID        uuid.UUID
}

// cursorPayload is the wire form of a cursor. Callers only ever see the
// base64 token; the layout is free to change alongside cursorVersion.
type cursorPayload struct {
	Version   int    `json:"v"`
	SortValue string `json:"s"`
	ID        string `json:"id"`
}

// EncodeCursor serializes a sort-key value and row ID into an opaque token.
func EncodeCursor(sortValue time.Time, id uuid.UUID) string {
	payload := cursorPayload{
		Version:   cursorVersion,
		SortValue: sortValue.UTC().Format(time.RFC3339Nano),
		ID:        id.String(),
	}

	// Marshaling a struct of strings cannot fail.
	raw, _ := json.Marshal(payload)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses an opaque token back into a Cursor.
// Any malformed token (bad base64, bad JSON, unknown version, unparseable
// timestamp or ID) fails with an error wrapping ErrInvalidCursor.
// Decoding an encoded cursor yields exactly the original pair.
func DecodeCursor(token string) (*Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed token encoding", ErrInvalidCursor)
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed token payload", ErrInvalidCursor)
	}

	if payload.Version != cursorVersion {
		return nil, fmt.Errorf("%w: unsupported token version %d", ErrInvalidCursor, payload.Version)
	}

	sortValue, err := time.Parse(time.RFC3339Nano, payload.SortValue)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed sort value", ErrInvalidCursor)
	}

	id, err := uuid.Parse(payload.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed row ID", ErrInvalidCursor)
	}

	return &Cursor{SortValue: sortValue.UTC(), ID: id}, nil
}
