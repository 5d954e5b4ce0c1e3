package feature

import stderrors "errors"

// Invariant violations. These mean the engine's own bookkeeping is wrong;
// callers abort the turn instead of recovering.
var (
	ErrStaleHandle           = stderrors.New("stale feature handle")
	ErrInconsistentOpenCount = stderrors.New("inconsistent open edge count")
	ErrOrphanNode            = stderrors.New("linked node disagrees with its partner")
	ErrPartitionMismatch     = stderrors.New("feature partition disagrees with node connectivity")
)

// Recoverable occupant errors.
var (
	ErrFeatureRetired  = stderrors.New("feature already scored")
	ErrTokenNotAllowed = stderrors.New("token kind not allowed on this feature")
	ErrDuplicateToken  = stderrors.New("token already deployed")
	ErrTokenNotFound   = stderrors.New("token not on this feature")
)
