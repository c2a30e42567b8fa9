package audit

import "context"

// NoOpStore is the safe default used when a database can't be opened. It
// mirrors the teacher framework's NoOpExecutionStore: every call succeeds
// silently rather than surfacing an error the caller would have to handle.
type NoOpStore struct{}

// NewNoOpStore builds a store that discards everything.
func NewNoOpStore() *NoOpStore { return &NoOpStore{} }

func (n *NoOpStore) RecordAttempt(ctx context.Context, a AttemptRecord) error     { return nil }
func (n *NoOpStore) UpsertRunMetadata(ctx context.Context, m RunMetadata) error   { return nil }
func (n *NoOpStore) Close() error                                                { return nil }

var _ Store = (*NoOpStore)(nil)

// Backed reports whether the write actually reached a backing database, in
// case a caller wants to WARN once rather than treating the fallback as
// inherently suspicious. NoOpStore is never backed by anything.
func (n *NoOpStore) Backed() bool { return false }
