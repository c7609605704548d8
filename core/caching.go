package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/schema"
)

// currentCacheVersion defines the version of the cached FileRecord layout
const currentCacheVersion = 1

// cacheTTL is how long a cached count stays valid.
const cacheTTL = 30 * 24 * time.Hour

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string) *schema.FileRecord {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version == currentCacheVersion {
		entryTimestamp := time.Unix(ts, 0)
		if time.Since(entryTimestamp) <= cacheTTL {
			var result schema.FileRecord
			if err := json.Unmarshal(data, &result); err == nil {
				return &result // Cache hit
			}
		}
	}

	return nil // Cache miss (stale or version mismatch)
}

// storeRecord saves a freshly computed record. Failures only cost a future recount.
func storeRecord(store contract.CacheStore, key string, record schema.FileRecord) {
	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
		contract.LogWarn("Failed to cache count for "+record.FileName, err)
	}
}

// generateCacheKey identifies a file by its location, size and modification time
// together with the red rule, so editing either one invalidates the entry.
func generateCacheKey(path string, info os.FileInfo, rule schema.RedRule) string {
	key := fmt.Sprintf("%s:%d:%d:%s",
		path,
		info.Size(),
		info.ModTime().UnixNano(),
		rule.String(),
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
