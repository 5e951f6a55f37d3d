package inmemdb

import (
	"context"

	"github.com/trezcool/mahudhurio/core"
)

type settingsStore struct {
	db *DB
}

var _ core.SettingsStore = (*settingsStore)(nil) // interface compliance check

func NewSettingsStore(db *DB) *settingsStore {
	return &settingsStore{db: db}
}

func (st settingsStore) Load(ctx context.Context) (core.Settings, error) {
	st.db.mu.RLock()
	defer st.db.mu.RUnlock()
	return st.db.settings, nil
}

func (st settingsStore) Save(ctx context.Context, s core.Settings) error {
	st.db.mu.Lock()
	defer st.db.mu.Unlock()
	st.db.settings = s
	return nil
}
