// Package core holds the types shared by every plancore package: the classified
// error taxonomy and the opaque score contract.
//
// # Error Classification
//
// Errors are classified by how the caller must react:
//
//   - Configuration: the descriptor table is invalid. Raised at build time, before solving.
//   - Usage: the calling move or listener broke the notification contract. Abort the move.
//   - LookupMiss: an external object has no working counterpart.
//
// None of them are retryable; this core performs no retries. Use the predicates to inspect:
//
//	if core.IsUsageError(err) {
//	    // abort the current move, report err (carries entity and variable)
//	}
//
// # Scores
//
// Score is opaque to the core. SimpleScore is a ready-made single-level implementation
// used by tests and small domains.
package core
