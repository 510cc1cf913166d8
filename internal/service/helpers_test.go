package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Skotchmaster/security_backend/internal/hash"
	"github.com/Skotchmaster/security_backend/internal/models"
	"github.com/Skotchmaster/security_backend/internal/mykafka"
	"github.com/Skotchmaster/security_backend/internal/repo"
	"github.com/Skotchmaster/security_backend/internal/token"
)

var testKey = []byte(strings.Repeat("k", token.MinKeyBytes))

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}))
	return db
}

type published struct {
	Topic string
	Key   string
	Event mykafka.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, _ := event.(mykafka.Event)
	p.events = append(p.events, published{Topic: topic, Key: key, Event: ev})
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event.Type)
	}
	return out
}

// memStore is a map-backed UserStore.
type memStore struct {
	mu    sync.Mutex
	users map[string]models.User
	err   error
}

func newMemStore() *memStore {
	return &memStore{users: map[string]models.User{}}
}

func (m *memStore) FindCredentialByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[username]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	return &u, nil
}

func (m *memStore) SaveCredentialRecord(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.users[u.Username]; ok {
		return repo.ErrUserAlreadyExist
	}
	u.ID = uint(len(m.users) + 1)
	m.users[u.Username] = *u
	return nil
}

var errStoreDown = errors.New("store down")

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func newAuth(t *testing.T, store UserStore) (*AuthService, *recordingPublisher, *testClock) {
	t.Helper()

	clock := &testClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	tokens, err := token.New(testKey, 5*time.Hour, "test", token.WithClock(clock.Now))
	require.NoError(t, err)
	hasher, err := hash.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	pub := &recordingPublisher{}
	svc, err := NewAuthService(store, hasher, tokens, pub)
	require.NoError(t, err)
	return svc, pub, clock
}
