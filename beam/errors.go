package beam

import "errors"

// Sentinel errors surfaced to callers of Send and Receive. Callers should
// compare with errors.Is, since some are wrapped with additional context.
var (
	// ErrAgain is returned by a non-blocking Send that found no space, or a
	// non-blocking Receive that found nothing to deliver.
	ErrAgain = errors.New("beam: again")

	// ErrTimedOut is returned when a blocking wait exceeded Config.Timeout.
	ErrTimedOut = errors.New("beam: timed out")

	// ErrAborted is returned by any operation observed after Abort.
	ErrAborted = errors.New("beam: connection aborted")

	// ErrEOF is returned by Receive once the stream is closed, drained, and
	// the end-of-stream marker has already been delivered.
	ErrEOF = errors.New("beam: end of file")

	// ErrConnReset is returned by Proxy.Read once its source chunk has been
	// purged or its beam destroyed.
	ErrConnReset = errors.New("beam: connection reset")

	// errNotImplemented is unexported: decompressChunkInPlace returns it
	// when no zstd decoder is available, and Receive then hands the
	// consumer an error-metadata chunk whose Err field carries it.
	errNotImplemented = errors.New("beam: not implemented")

	// ErrBookkeeping signals that Proxy cleanup could not find its source
	// chunk in hold — an internal invariant violation. The
	// emitted-notification path logs a warning, moves the orphaned chunk
	// into purge, and passes this error to the beam's onBookkeepingError
	// hook when one is set (an unexported field, so only code inside this
	// package can install it).
	ErrBookkeeping = errors.New("beam: emitted chunk not found in hold")

	// ErrOutOfMemory is returned when an arena has no more room for a
	// borrowed-bytes allocation.
	ErrOutOfMemory = errors.New("beam: arena out of memory")
)
