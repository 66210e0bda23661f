package assistant

import "errors"

// ErrEmptyQuery is returned when the free-text query is blank or
// whitespace-only. An unrecognized query is NOT an error: it resolves to
// the "unknown" intent carrying a help narrative.
var ErrEmptyQuery = errors.New("query cannot be empty")
