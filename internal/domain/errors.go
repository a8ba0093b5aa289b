package domain

import "errors"

// ErrSchemaMismatch reports a vector collection that already exists with a
// different dimension than the embedder produces. It requires operator
// intervention and must never be auto-retried.
var ErrSchemaMismatch = errors.New("vector collection dimension mismatch")
