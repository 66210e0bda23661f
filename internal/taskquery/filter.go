// Package taskquery compiles task listing parameters into a canonical
// filter specification and provides the opaque pagination cursor codec.
// Compilation is pure: it never touches the store.
package taskquery

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// SortField identifies the column a listing is ordered by.
// Only whitelisted fields are accepted; everything else is an invalid query.
type SortField string

// Accepted sort fields
const (
	SortByDeadline  SortField = "deadline"
	SortByCreatedAt SortField = "created_at"
)

// SortOrder identifies the scan direction of a listing.
type SortOrder string

// Accepted sort directions
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Listing limits
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds the raw, optional listing inputs as they arrive at the
// boundary. Empty strings mean "absent".
type Params struct {
	Limit        string
	Status       string
	AssigneeID   string
	CreatedByID  string
	DeadlineFrom string
	DeadlineTo   string
	Search       string
	SortBy       string
	SortOrder    string
}

// FilterSpec is the canonical, order-independent predicate set plus sort
// choice compiled from a request. All predicates compose by logical AND;
// the free-text search is itself an OR over title and description.
// A FilterSpec is request-local and never persisted.
type FilterSpec struct {
	Status        *domain.TaskStatus
	ExcludeStatus *domain.TaskStatus
	AssigneeID    *uuid.UUID
	CreatedByID   *uuid.UUID
	DeadlineFrom  *time.Time // inclusive lower bound
	DeadlineTo    *time.Time // inclusive upper bound
	DeadlineLT    *time.Time // strict upper bound, used by derived predicates like "overdue"
	Search        string     // case-insensitive substring over title OR description

	SortBy    SortField
	SortOrder SortOrder
	Limit     int
}

// Compile validates the raw parameters and produces a canonical FilterSpec.
// It collects every offending field rather than failing fast; the returned
// error is an *InvalidQueryError wrapping ErrInvalidQuery.
func Compile(p Params) (*FilterSpec, error) {
	invalid := &InvalidQueryError{}

	spec := &FilterSpec{
		SortBy:    SortByDeadline,
		SortOrder: SortDesc,
		Limit:     DefaultLimit,
	}

	if p.Limit != "" {
		limit, err := strconv.Atoi(p.Limit)
		if err != nil || limit < 1 || limit > MaxLimit {
			invalid.add("limit", fmt.Sprintf("must be an integer between 1 and %d", MaxLimit))
		} else {
			spec.Limit = limit
		}
	}

	if p.Status != "" {
		status := domain.TaskStatus(p.Status)
		if !status.IsValid() {
			invalid.add("status", "must be one of: todo, in_progress, done")
		} else {
			spec.Status = &status
		}
	}

	if p.AssigneeID != "" {
		id, err := uuid.Parse(p.AssigneeID)
		if err != nil {
			invalid.add("assignee_id", "must be a valid UUID")
		} else {
			spec.AssigneeID = &id
		}
	}

	if p.CreatedByID != "" {
		id, err := uuid.Parse(p.CreatedByID)
		if err != nil {
			invalid.add("created_by_id", "must be a valid UUID")
		} else {
			spec.CreatedByID = &id
		}
	}

	if p.DeadlineFrom != "" {
		from, err := time.Parse(time.RFC3339, p.DeadlineFrom)
		if err != nil {
			invalid.add("deadline_from", "must be an RFC 3339 timestamp")
		} else {
			from = from.UTC()
			spec.DeadlineFrom = &from
		}
	}

	if p.DeadlineTo != "" {
		to, err := time.Parse(time.RFC3339, p.DeadlineTo)
		if err != nil {
			invalid.add("deadline_to", "must be an RFC 3339 timestamp")
		} else {
			to = to.UTC()
			spec.DeadlineTo = &to
		}
	}

	if spec.DeadlineFrom != nil && spec.DeadlineTo != nil &&
		spec.DeadlineFrom.After(*spec.DeadlineTo) {
		invalid.add("deadline_from", "must not be after deadline_to")
	}

	if search := strings.TrimSpace(p.Search); search != "" {
		spec.Search = search
	}

	if p.SortBy != "" {
		switch SortField(p.SortBy) {
		case SortByDeadline, SortByCreatedAt:
			spec.SortBy = SortField(p.SortBy)
		default:
			invalid.add("sort_by", "must be one of: deadline, created_at")
		}
	}

	if p.SortOrder != "" {
		switch SortOrder(p.SortOrder) {
		case SortAsc, SortDesc:
			spec.SortOrder = SortOrder(p.SortOrder)
		default:
			invalid.add("sort_order", "must be one of: asc, desc")
		}
	}

	if err := invalid.orNil(); err != nil {
		return nil, err
	}

	return spec, nil
}
