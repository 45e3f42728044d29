// Package apperr defines the closed error taxonomy of the core. Services
// return (possibly wrapped) sentinels from this package; the HTTP layer maps
// them to status codes and the envelope's error field with KindOf.
package apperr

import "errors"

// Kind is the machine-readable error category surfaced to API callers.
type Kind string

const (
	KindUnauthorized       Kind = "Unauthorized"
	KindNotFound           Kind = "NotFound"
	KindCircularReference  Kind = "CircularReference"
	KindDepthLimitExceeded Kind = "DepthLimitExceeded"
	KindNameConflict       Kind = "NameConflict"
	KindQuotaExceeded      Kind = "QuotaExceeded"
	KindAlreadyLinked      Kind = "AlreadyLinked"
	KindNotAuthorized      Kind = "NotAuthorized"
	KindStorageUnavailable Kind = "StorageUnavailable"
	KindInternal           Kind = "Internal"
)

var (
	// ErrUnauthorized: the caller has no role that permits the operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound: folder, link, file or workspace does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCircularReference: a move would make a folder its own descendant.
	ErrCircularReference = errors.New("circular reference")

	// ErrDepthLimitExceeded: the tree would exceed the maximum depth.
	ErrDepthLimitExceeded = errors.New("depth limit exceeded")

	// ErrNameConflict: a sibling name collision could not be resolved.
	ErrNameConflict = errors.New("name conflict")

	// ErrQuotaExceeded: the workspace storage limit blocks the write.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrAlreadyLinked: the folder already has an active link.
	ErrAlreadyLinked = errors.New("folder already linked")

	// ErrNotAuthorized: the email is not on the allow-list for the link.
	ErrNotAuthorized = errors.New("email not authorized")

	// ErrStorageUnavailable: the object storage backend failed.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// KindOf categorizes err, unwrapping as needed. Unknown errors are internal
// and must never leak details to the caller.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrCircularReference):
		return KindCircularReference
	case errors.Is(err, ErrDepthLimitExceeded):
		return KindDepthLimitExceeded
	case errors.Is(err, ErrNameConflict):
		return KindNameConflict
	case errors.Is(err, ErrQuotaExceeded):
		return KindQuotaExceeded
	case errors.Is(err, ErrAlreadyLinked):
		return KindAlreadyLinked
	case errors.Is(err, ErrNotAuthorized):
		return KindNotAuthorized
	case errors.Is(err, ErrStorageUnavailable):
		return KindStorageUnavailable
	default:
		return KindInternal
	}
}
