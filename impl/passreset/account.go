package passreset

import (
	"context"
	"strings"
	"sync"
	"vetgate/entity"
)

// StaticAccount is the Accounts backend for the admin realm: one fixed
// account loaded from configuration. The password can be changed at runtime
// through the reset flow; the change is process-local and reverts to the
// configured value on restart, matching the memory token store's guarantees.
type StaticAccount struct {
	mu       sync.RWMutex
	username string
	email    string
	password string
}

func NewStaticAccount(username, email, password string) *StaticAccount {
	return &StaticAccount{
		username: username,
		email:    strings.ToLower(strings.TrimSpace(email)),
		password: password,
	}
}

func (a *StaticAccount) EmailExists(_ context.Context, email string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.email != "" && strings.EqualFold(email, a.email), nil
}

func (a *StaticAccount) SetPassword(_ context.Context, email, newPassword string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !strings.EqualFold(email, a.email) {
		return entity.ErrNotFound
	}
	a.password = newPassword
	return nil
}

// Check compares submitted credentials against the current account state.
func (a *StaticAccount) Check(username, password string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return username == a.username && password != "" && password == a.password
}

func (a *StaticAccount) Username() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.username
}
