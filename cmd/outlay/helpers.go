package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"outlay/internal/config"
	"outlay/internal/ledger"
	"outlay/internal/notify"
	"outlay/internal/storage"
)

// initLedger initializes storage (with auto-migration) and builds the ledger
// core on top of it. The returned cleanup closes both.
func initLedger(ctx context.Context) (*ledger.Ledger, func(), error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDBPath
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	notifier := notify.New()
	l := ledger.New(store, notifier)

	cleanup := func() {
		notifier.Close()
		_ = store.Close()
	}
	return l, cleanup, nil
}
