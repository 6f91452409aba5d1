// Package testutil holds the fixtures shared by package tests.
package testutil

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
	logsvc "github.com/trezcool/coursework/services/logger"
	"github.com/trezcool/coursework/storage"
	boltdb "github.com/trezcool/coursework/storage/database/bolt"
)

// NewConfig returns the configuration used by tests: bolt storage, no external services.
func NewConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		Build:            "test",
		AppName:          "Masomo",
		Debug:            true,
		TestMode:         true,
		SecretKey:        "test-secret-key",
		DefaultFromEmail: "Masomo <noreply@localhost>",
		Server: core.ServerConfig{
			Host:               "localhost",
			ReadTimeout:        5 * time.Second,
			WriteTimeout:       5 * time.Second,
			ShutdownTimeout:    5 * time.Second,
			JWTExpirationDelta: time.Hour,
			DisableReqLogs:     true,
		},
		Database: core.DatabaseConfig{Engine: "bolt"},
		Reminder: core.ReminderConfig{Schedule: "@hourly", Window: 24 * time.Hour},
	}
}

// NewLogger returns a logger that discards its output and never reports to Rollbar.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(ioutil.Discard, "TEST", conf)
	logger.Enable(false)
	return logger
}

// NewValidator returns a validator with every custom tag and translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	submission.InitValidators(validate, translator)
	return validate, translator
}

// OpenBoltDB opens a fresh bolt store in a temporary directory, closed when the test ends.
func OpenBoltDB(t *testing.T) *storage.Repositories {
	t.Helper()
	db, err := boltdb.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenBoltDB() failed: %v", err)
	}
	repos := storage.NewBolt(db)
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

func CreateUser(t *testing.T, repo user.Repository, name, role string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr, err := repo.CreateUser(context.Background(), user.User{
		ID:        core.NewID(),
		Name:      name,
		Username:  name,
		Email:     name + "@example.com",
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// EventRecorder is an EventPublisher keeping every published event.
type EventRecorder struct {
	mu     sync.Mutex
	events []core.Event
}

var _ core.EventPublisher = (*EventRecorder)(nil)

func (r *EventRecorder) Publish(_ context.Context, events ...core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

// Names returns the names of the published events, in order.
func (r *EventRecorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		names = append(names, ev.Name)
	}
	return names
}
