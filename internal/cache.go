package internal

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache holds read-only discovery results (org listings, region lists) for
// the lifetime of a single invocation. Mutating calls are never cached, and
// nothing is persisted to disk: every run starts from a fresh snapshot.
var Cache = cache.New(120*time.Minute, 0)
