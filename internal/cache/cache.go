// Package cache defines the byte cache used for ephemeral gateway state.
// Two backends exist: memory (single replica) and redis (shared).
package cache

import "time"

type Cache interface {
	Get(key string) (value []byte, ok bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
}
