package passreset

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"vetgate/entity"
	"vetgate/lib/sl"

	"github.com/google/uuid"
)

// TokenStore is the storage port for reset tokens. Two implementations exist:
// MemoryStore (process-local, admin realm) and the MySQL-backed store (clinic
// realm). The manager logic is identical over both.
type TokenStore interface {
	SaveResetToken(ctx context.Context, t *entity.ResetToken) error
	// GetResetToken returns entity.ErrNotFound for unknown tokens.
	GetResetToken(ctx context.Context, token string) (*entity.ResetToken, error)
	// ConsumeResetToken atomically spends a valid token and returns it.
	// A consumed, expired or unknown token yields the matching tagged error;
	// a second consume of the same token can never succeed.
	ConsumeResetToken(ctx context.Context, token string, now time.Time) (*entity.ResetToken, error)
	DeleteStaleResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// Accounts resolves and updates the accounts a token family belongs to.
type Accounts interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	SetPassword(ctx context.Context, email, newPassword string) error
}

type Sender interface {
	Send(to, subject, htmlBody string) error
}

// Manager runs the issued → {consumed | expired} token state machine for one
// account realm. Terminal either way; no resurrection.
type Manager struct {
	realm    entity.Realm
	store    TokenStore
	accounts Accounts
	mail     Sender
	resetUrl string
	ttl      time.Duration
	now      func() time.Time
	log      *slog.Logger
}

func New(realm entity.Realm, store TokenStore, accounts Accounts, ttl time.Duration, log *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{
		realm:    realm,
		store:    store,
		accounts: accounts,
		ttl:      ttl,
		now:      time.Now,
		log:      log.With(sl.Module("passreset." + string(realm))),
	}
}

// SetMailer enables reset-link delivery. resetUrl is the page the token is
// appended to.
func (m *Manager) SetMailer(mail Sender, resetUrl string) {
	m.mail = mail
	m.resetUrl = resetUrl
}

// Request issues a token for a recognized address. Unknown addresses return
// success with an empty token so callers cannot enumerate accounts.
func (m *Manager) Request(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	known, err := m.accounts.EmailExists(ctx, email)
	if err != nil {
		m.log.Error("resolve account", sl.Err(err))
		return "", err
	}
	if !known {
		m.log.With(sl.Secret("email", email)).Debug("reset requested for unknown address")
		return "", nil
	}

	now := m.now()
	tok := &entity.ResetToken{
		Token:     uuid.NewString(),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err = m.store.SaveResetToken(ctx, tok); err != nil {
		m.log.Error("save reset token", sl.Err(err))
		return "", err
	}
	m.log.With(sl.Secret("token", tok.Token)).Info("reset token issued")

	if m.mail != nil {
		go func() {
			link := fmt.Sprintf("%s?token=%s", m.resetUrl, tok.Token)
			body := fmt.Sprintf("<p>A password reset was requested for this address.</p><p><a href=%q>Reset password</a></p><p>The link expires in %s.</p>", link, m.ttl)
			if err := m.mail.Send(email, "Password reset", body); err != nil {
				m.log.Error("send reset email", sl.Err(err))
			}
		}()
	}
	return tok.Token, nil
}

// Verify is a pure read of the validity predicate, used to gate rendering of
// the reset form. It does not consume.
func (m *Manager) Verify(ctx context.Context, tokenValue string) error {
	tok, err := m.store.GetResetToken(ctx, tokenValue)
	if err != nil {
		return err
	}
	if tok.Used {
		return entity.ErrConsumed
	}
	if !m.now().Before(tok.ExpiresAt) {
		return entity.ErrExpired
	}
	return nil
}

// Reset consumes the token and applies the new password to the owning
// account. Double submit of the same token fails with the generic invalid
// error: consumption happens before the password write and is atomic.
func (m *Manager) Reset(ctx context.Context, tokenValue, newPassword string) error {
	tok, err := m.store.ConsumeResetToken(ctx, tokenValue, m.now())
	if err != nil {
		if !entity.IsInvalidToken(err) {
			m.log.Error("consume reset token", sl.Err(err))
		}
		return err
	}
	if err = m.accounts.SetPassword(ctx, tok.Email, newPassword); err != nil {
		m.log.Error("set password", sl.Secret("email", tok.Email), sl.Err(err))
		return err
	}
	m.log.With(sl.Secret("email", tok.Email)).Info("password reset")
	return nil
}

// Cleanup sweeps expired and used tokens on demand.
func (m *Manager) Cleanup(ctx context.Context) (int64, error) {
	n, err := m.store.DeleteStaleResetTokens(ctx, m.now())
	if err != nil {
		m.log.Error("cleanup reset tokens", sl.Err(err))
		return 0, err
	}
	return n, nil
}
