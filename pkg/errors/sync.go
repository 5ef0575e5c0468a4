package errors

// Clock-sync status failures are advisory. Callers degrade to an
// unavailable SyncStatus rather than failing a request, so every
// constructor here produces warning severity.

// SyncUnavailable reports that neither the shared-memory segment nor
// the peer-query tool produced a usable sample.
func SyncUnavailable() MCPError {
	return NewError(CodeSyncUnavailable, "clock-sync status unavailable",
		CategorySync, SeverityWarning)
}

// SegmentTorn reports that the SHM sequence counters never settled
// within the bounded retry budget.
func SegmentTorn(attempts int) MCPError {
	return NewErrorf(CodeSegmentTorn, CategorySync, SeverityWarning,
		"shared-memory segment torn after %d attempts", attempts)
}

// SegmentUnavailable reports that the SHM segment could not be
// attached at all.
func SegmentUnavailable(err error) MCPError {
	return WrapError(err, CodeSyncUnavailable, "shared-memory segment unavailable",
		CategorySync, SeverityWarning)
}

// PeerQueryFailed reports an ntpq invocation that errored, timed out,
// or produced unparsable output.
func PeerQueryFailed(err error) MCPError {
	return WrapError(err, CodePeerQueryFailed, "peer query failed",
		CategorySync, SeverityWarning)
}
