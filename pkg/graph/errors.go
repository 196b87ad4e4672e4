package graph

import "errors"

// Error taxonomy shared by the graph store, the extraction pipeline and the
// HTTP layer. Handlers map these onto response statuses; best-effort
// enrichment steps (extraction, concept derivation) absorb
// ErrUpstreamUnavailable at their own boundary instead of propagating it.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("not found")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
