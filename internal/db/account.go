package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/aethermoor/worldserver/internal/model"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

const (
	maxLoginFailures  = 5
	lockoutDuration   = 15 * time.Minute
	perFailureBackoff = 500 * time.Millisecond
)

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "123456": {}, "12345678": {},
	"qwerty123": {}, "letmein1": {}, "admin123": {}, "welcome1": {},
}

// loginAttempts tracks consecutive failures per username. It is a plain
// mutex-guarded map rather than something routed through the world lock,
// since login happens before a session is bound to any world state.
type loginAttempts struct {
	mu    sync.Mutex
	byUser map[string]*attemptState
}

type attemptState struct {
	failures    int
	lockedUntil time.Time
}

func newLoginAttempts() *loginAttempts {
	return &loginAttempts{byUser: make(map[string]*attemptState)}
}

func (l *loginAttempts) lockedUntil(username string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.byUser[username]
	if !ok {
		return time.Time{}, false
	}
	return st.lockedUntil, st.failures >= maxLoginFailures && time.Now().Before(st.lockedUntil)
}

func (l *loginAttempts) recordFailure(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.byUser[username]
	if !ok {
		st = &attemptState{}
		l.byUser[username] = st
	}
	st.failures++
	if st.failures >= maxLoginFailures {
		st.lockedUntil = time.Now().Add(lockoutDuration)
	}
}

func (l *loginAttempts) recordSuccess(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.byUser, username)
}

// Accounts wraps account-related PersistenceStore operations.
type Accounts struct {
	store    *Store
	attempts *loginAttempts
}

// NewAccounts returns an Accounts handle bound to store.
func NewAccounts(store *Store) *Accounts {
	return &Accounts{store: store, attempts: newLoginAttempts()}
}

// ValidateLogin checks username/password and returns the account ID, or 0 if
// invalid. Enforces the per-account lockout and per-failure backoff.
func (a *Accounts) ValidateLogin(ctx context.Context, username, password string) (int64, error) {
	username = strings.ToLower(username)

	if _, locked := a.attempts.lockedUntil(username); locked {
		return 0, nil
	}

	acc, err := a.getAccount(ctx, username)
	if err != nil {
		return 0, err
	}
	if acc == nil {
		time.Sleep(perFailureBackoff)
		a.attempts.recordFailure(username)
		return 0, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		time.Sleep(perFailureBackoff)
		a.attempts.recordFailure(username)
		return 0, nil
	}

	a.attempts.recordSuccess(username)
	if _, err := a.store.pool.Exec(ctx,
		`UPDATE accounts SET last_login = now() WHERE id = $1`, acc.ID,
	); err != nil {
		return 0, fmt.Errorf("updating last_login for account %d: %w", acc.ID, err)
	}
	return acc.ID, nil
}

// CreateAccount validates the username/password and inserts a new account
// with an adaptive, salted bcrypt hash.
func (a *Accounts) CreateAccount(ctx context.Context, username, password string) (bool, error) {
	if !usernamePattern.MatchString(username) {
		return false, nil
	}
	if !isAcceptablePassword(password) {
		return false, nil
	}

	username = strings.ToLower(username)
	existing, err := a.getAccount(ctx, username)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hashing password for %q: %w", username, err)
	}

	_, err = a.store.pool.Exec(ctx,
		`INSERT INTO accounts (username, password_hash) VALUES ($1, $2)`,
		username, string(hash),
	)
	if err != nil {
		return false, fmt.Errorf("creating account %q: %w", username, err)
	}
	return true, nil
}

func isAcceptablePassword(password string) bool {
	if len(password) < 6 {
		return false
	}
	if _, common := commonPasswords[strings.ToLower(password)]; common {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}
	return hasLetter && hasDigit
}

func (a *Accounts) getAccount(ctx context.Context, username string) (*model.Account, error) {
	var acc model.Account
	err := a.store.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at, COALESCE(last_login, created_at)
		 FROM accounts WHERE username = $1`, username,
	).Scan(&acc.ID, &acc.Username, &acc.PasswordHash, &acc.CreatedAt, &acc.LastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying account %q: %w", username, err)
	}
	return &acc, nil
}
