package main

import (
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// WallClock is the wall clock
var WallClock = clockwork.NewRealClock()

// UnFqdn drops the trailing dot of a fully qualified domain name
func UnFqdn(s string) string {
	return strings.TrimSuffix(s, ".")
}

func makeResultCache(maxCount int, expire time.Duration) *MemoryResultCache {
	return &MemoryResultCache{
		Backend:  make(map[string]*Mesg),
		Expire:   expire,
		Maxcount: maxCount,
	}
}

func makeListCache() *MemoryListCache {
	return &MemoryListCache{Backend: make(map[string]bool)}
}

func makeCheckLog(maxCount int) *MemoryCheckLog {
	return &MemoryCheckLog{Backend: make([]CheckLogEntry, 0), Maxcount: maxCount}
}
