package search

// State describes the engine's index lifecycle.
type State int32

const (
	// StateEmpty means no index has been built yet.
	StateEmpty State = iota
	// StateBuilding means the first index build is in progress.
	StateBuilding
	// StateReady means a snapshot is live and serving queries.
	StateReady
	// StateRefreshing means a rebuild is running; the previous snapshot
	// keeps serving until the swap.
	StateRefreshing
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}
