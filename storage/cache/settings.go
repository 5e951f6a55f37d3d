// Package cache wraps stores with short-lived in-process caching.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/trezcool/mahudhurio/core"
)

const settingsKey = "attendance_settings"

// DefaultSettingsTTL bounds how stale a cached settings read can be.
const DefaultSettingsTTL = 5 * time.Minute

type settingsStore struct {
	inner core.SettingsStore
	cache *gocache.Cache
}

var _ core.SettingsStore = (*settingsStore)(nil) // interface compliance check

// NewSettingsStore decorates inner with a TTL cache. Saves write through and
// invalidate so the next Load sees fresh values.
func NewSettingsStore(inner core.SettingsStore, ttl time.Duration) *settingsStore {
	if ttl <= 0 {
		ttl = DefaultSettingsTTL
	}
	return &settingsStore{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (st *settingsStore) Load(ctx context.Context) (core.Settings, error) {
	if v, ok := st.cache.Get(settingsKey); ok {
		return v.(core.Settings), nil
	}
	s, err := st.inner.Load(ctx)
	if err != nil {
		return core.Settings{}, err
	}
	st.cache.SetDefault(settingsKey, s)
	return s, nil
}

func (st *settingsStore) Save(ctx context.Context, s core.Settings) error {
	if err := st.inner.Save(ctx, s); err != nil {
		return err
	}
	st.cache.Delete(settingsKey)
	return nil
}
