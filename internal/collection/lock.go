package collection

import "sync"

// rwLock is the single per-collection readers-writer lock guarding both
// the store view and the attached indexes together, so a search never
// observes a partial create/update/delete. get/list/search take the
// shared side; create/update/delete/add_index/startup_rebuild take the
// exclusive side. No operation holds this lock across a call to the
// embedding provider — embedding happens in the caller before a chunk
// ever reaches the collection.
type rwLock struct {
	sync.RWMutex
}
