package contentsync

import (
	"time"

	"gorm.io/gorm"
)

// StartScheduler runs the synchronization pass every interval in a
// background goroutine. The first pass happens after one full interval, not
// at startup, so boot stays fast even on large content trees.
func StartScheduler(db *gorm.DB, dir string, interval time.Duration, opts Options) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		for {
			time.Sleep(interval)
			if _, err := Sync(db, dir, opts); err != nil {
				logf("scheduled content sync failed: %v", err)
			}
		}
	}()
}
