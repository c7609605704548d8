// Package iocache persists per-file counts and run history in SQL databases.
package iocache

import (
	"sync"

	"github.com/huangsam/reddot/internal/contract"
)

// CacheStoreManager manages the count cache and history stores.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	counts       contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetCountStore returns the count CacheStore, or nil when caching is disabled.
func (mgr *CacheStoreManager) GetCountStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.counts
}

// GetHistoryStore returns the HistoryStore, or nil when history is disabled.
func (mgr *CacheStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
