package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/score-leaderboard/internal/database/dbtest"
)

func newTestUserRepo(t *testing.T) *UserRepo {
	t.Helper()
	return NewUserRepo(dbtest.Open(t), bcrypt.MinCost)
}

func TestRegisterReturnsStoredUser(t *testing.T) {
	repo := newTestUserRepo(t)
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)
	repo.Now = func() time.Time { return now }

	u, err := repo.Register(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("id = 0, want assigned id")
	}
	if u.Username != "alice" {
		t.Fatalf("username = %q, want alice", u.Username)
	}
	if !u.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", u.CreatedAt, now)
	}
	if u.PasswordHash == "secret" || !strings.HasPrefix(u.PasswordHash, "$2") {
		t.Fatalf("password hash = %q, want bcrypt hash", u.PasswordHash)
	}

	got, err := repo.Get(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != u.ID || got.Username != u.Username || got.PasswordHash != u.PasswordHash {
		t.Fatalf("get = %+v, want %+v", got, u)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("get created_at = %v, want %v", got.CreatedAt, now)
	}
}

func TestRegisterValidation(t *testing.T) {
	repo := newTestUserRepo(t)
	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "short username", username: "ab", password: "secret"},
		{name: "empty username", username: "", password: "secret"},
		{name: "long username", username: strings.Repeat("u", MaxUsernameLen+1), password: "secret"},
		{name: "long multibyte username", username: strings.Repeat("ñ", MaxUsernameLen+1), password: "secret"},
		{name: "short password", username: "alice", password: "abc"},
		{name: "password over bcrypt limit", username: "alice", password: strings.Repeat("p", 73)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := repo.Register(context.Background(), tc.username, tc.password)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want %v", err, ErrValidation)
			}
		})
	}
}

func TestRegisterCountsCharactersNotBytes(t *testing.T) {
	repo := newTestUserRepo(t)
	if _, err := repo.Register(context.Background(), "ñoñ", "pass"); err != nil {
		t.Fatalf("register three-rune username: %v", err)
	}
	if _, err := repo.Register(context.Background(), "ññ", "pass"); !errors.Is(err, ErrValidation) {
		t.Fatalf("two-rune username err = %v, want %v", err, ErrValidation)
	}
}

func TestRegisterAcceptsMaxLengthUsername(t *testing.T) {
	repo := newTestUserRepo(t)
	name := strings.Repeat("ñ", MaxUsernameLen)
	u, err := repo.Register(context.Background(), name, "secret")
	if err != nil {
		t.Fatalf("register %d-rune username: %v", MaxUsernameLen, err)
	}
	if u.Username != name {
		t.Fatalf("username = %q, want %q", u.Username, name)
	}
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	repo := newTestUserRepo(t)
	if _, err := repo.Register(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := repo.Register(context.Background(), "alice", "different")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second register err = %v, want %v", err, ErrConflict)
	}
}

func TestRegisterUsernameIsCaseSensitive(t *testing.T) {
	repo := newTestUserRepo(t)
	if _, err := repo.Register(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if _, err := repo.Register(context.Background(), "Alice", "secret"); err != nil {
		t.Fatalf("register Alice: %v", err)
	}
}

func TestRegisterConcurrentSameUsername(t *testing.T) {
	repo := newTestUserRepo(t)
	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Register(context.Background(), "racer", "secret")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("register: %v", err)
			}
		}()
	}
	wg.Wait()
	if ok != 1 || conflicts != n-1 {
		t.Fatalf("ok = %d, conflicts = %d, want 1 and %d", ok, conflicts, n-1)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newTestUserRepo(t)
	u, err := repo.Register(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := repo.Authenticate(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("id = %d, want %d", got.ID, u.ID)
	}

	if _, err := repo.Authenticate(context.Background(), "alice", "wrong"); !errors.Is(err, ErrAuth) {
		t.Fatalf("wrong password err = %v, want %v", err, ErrAuth)
	}
	if _, err := repo.Authenticate(context.Background(), "bob", "secret"); !errors.Is(err, ErrAuth) {
		t.Fatalf("unknown user err = %v, want %v", err, ErrAuth)
	}
	if _, err := repo.Authenticate(context.Background(), "ALICE", "secret"); !errors.Is(err, ErrAuth) {
		t.Fatalf("different case err = %v, want %v", err, ErrAuth)
	}
}

func TestGetUnknownUser(t *testing.T) {
	repo := newTestUserRepo(t)
	if _, err := repo.Get(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, ErrNotFound)
	}
}
