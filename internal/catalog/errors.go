package catalog

import "errors"

var (
	// ErrParentNotFound means the immediate parent a node was to be created
	// under (or read through) does not exist.
	ErrParentNotFound = errors.New("parent not found")

	// ErrReferenceSync means a parent's child-id array did not reflect a
	// write that the store accepted. It signals a potential integrity
	// violation and is always surfaced, never swallowed.
	ErrReferenceSync = errors.New("parent reference array out of sync")

	// ErrMissingAncestor means a media path could not be derived because a
	// required ancestor customId was absent.
	ErrMissingAncestor = errors.New("missing ancestor custom id")
)
