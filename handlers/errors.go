package handlers

import "errors"

// Sentinel errors services return so handlers can map them to HTTP
// statuses without string matching.
var (
	ErrNotFound              = errors.New("not found")
	ErrNotEditable           = errors.New("quote request is not editable")
	ErrNotDeletable          = errors.New("quote request cannot be deleted in its current status")
	ErrNotApproved           = errors.New("only approved quote requests can be converted")
	ErrNoEmailAddress        = errors.New("Supplier does not have an email address")
	ErrConflictRequiresMerge = errors.New("target quote request already has an email thread for this supplier")
	ErrNotOrphaned           = errors.New("email thread is not orphaned")
)
