package plan

import "errors"

// Error sentinels private to the plan builder and query surface. The
// builder also propagates strategy.Err* and reference.Err* directly (via
// %w), so callers can errors.Is against either package.
var (
	// ErrDuplicateArtifact is returned when two rules or symlinks in the same
	// sample would resolve to the same output path (spec.md §9 open question,
	// resolved: a strategy's duplicate out_name is legal DSL, but the plan
	// builder rejects the collision it causes).
	ErrDuplicateArtifact = errors.New("plan: duplicate artifact path within sample")

	// ErrDanglingSymlink is returned when a symlink's link_src names no
	// earlier rule's out_name in the same sample.
	ErrDanglingSymlink = errors.New("plan: symlink source does not match any map rule")

	// ErrUnknownArtifact is returned by the query surface for any path or key
	// the plan does not recognise.
	ErrUnknownArtifact = errors.New("plan: unknown artifact")

	// ErrInvalidChain guards an internal consistency assumption: every rule's
	// input_name is either the sample's left token or "not_" + an earlier
	// rule's out_name in the same sample. strategy.Parse only ever produces
	// such chains, so this should be unreachable; it exists so a future
	// change to the parser's chaining logic fails loudly here instead of
	// producing a plan with a broken input_path.
	//
	// Build also returns it when no symlink of a sample resolves to the final
	// token. That case is reachable: a label that contains "final" without
	// being exactly "final" (e.g. "final_x") stops Parse from synthesising a
	// final symlink, yet its own link name is not the final token.
	ErrInvalidChain = errors.New("plan: rule input does not chain to an earlier rule in this sample")
)
