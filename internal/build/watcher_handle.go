package build

import (
	"sync/atomic"

	"forge/internal/watcher"
)

// curWatcher is the process-scoped, consume-once slot external watch-mode
// code sets before calling Build: a mutable single-slot cell the Build
// Orchestrator drains and clears so one watcher handoff can never leak
// into a later, unrelated build.
var curWatcher atomic.Pointer[watcher.Watcher]

// SetWatcher publishes w as the watcher the next Build call should adopt.
// Re-architecting this as an explicit Build parameter is tracked as a
// known legacy shape — see DESIGN.md.
func SetWatcher(w *watcher.Watcher) {
	curWatcher.Store(w)
}

// takeWatcher atomically reads and clears the current watcher handle.
func takeWatcher() *watcher.Watcher {
	return curWatcher.Swap(nil)
}
