package ledger

import (
	"time"

	"go.uber.org/zap"
)

// evictLocked drops the entry with the oldest write time. This is least
// recently written, not least recently used: reads never refresh an entry.
// Ties on writtenAt fall back to insertion order.
func (l *Ledger) evictLocked() {
	var (
		victim string
		oldest *entry
	)
	for key, e := range l.entries {
		if oldest == nil || e.writtenAt.Before(oldest.writtenAt) ||
			(e.writtenAt.Equal(oldest.writtenAt) && e.seq < oldest.seq) {
			victim, oldest = key, e
		}
	}
	if oldest == nil {
		return
	}

	delete(l.entries, victim)
	l.evictions.Inc()
	l.notify(func(o Observer) { o.Evicted() })
	l.logger.Debug("cache entry evicted",
		zap.String("key", victim),
		zap.Time("written_at", oldest.writtenAt),
		zap.Int("capacity", l.capacity),
	)
}

// Sweep removes every expired entry and returns how many were dropped.
func (l *Ledger) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, e := range l.entries {
		if e.expired(now) {
			delete(l.entries, key)
			removed++
		}
	}
	if removed > 0 {
		l.expirations.Add(int64(removed))
		l.notify(func(o Observer) { o.Size(len(l.entries)) })
	}
	return removed
}

func (l *Ledger) sweepLoop() {
	ticker := time.NewTicker(l.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				l.logger.Debug("swept expired cache entries", zap.Int("count", n))
			}
		}
	}
}
