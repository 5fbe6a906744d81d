package room

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweep purges rooms idle for longer than the retention window from memory
// and expired entries from the store. It returns how many live rooms went.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	now := m.now()

	m.mu.Lock()
	slots := make([]*slot, 0, len(m.rooms))
	for _, sl := range m.rooms {
		slots = append(slots, sl)
	}
	m.mu.Unlock()

	purged := 0
	for _, sl := range slots {
		sl.mu.Lock()
		if sl.room != nil && now.Sub(sl.room.UpdatedAt) > m.retention {
			if err := m.destroy(ctx, sl); err != nil {
				sl.mu.Unlock()
				return purged, err
			}
			purged++
		}
		sl.mu.Unlock()
	}

	n, err := m.store.Sweep(ctx, now)
	if err != nil {
		return purged, err
	}
	if purged > 0 || n > 0 {
		m.log.Info("sweep finished", zap.Int("rooms", purged), zap.Int("expired_keys", n))
	}
	return purged, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := m.Sweep(ctx); err != nil {
				m.log.Error("sweep failed", zap.Error(err))
			}
		}
	}
}
