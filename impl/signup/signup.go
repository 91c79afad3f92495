package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"vetgate/entity"
	"vetgate/lib/sl"
	"vetgate/lib/token"
)

// Database defines the storage operations the signup code manager depends on.
// Implemented by internal/database/mysql.go.
type Database interface {
	// ClinicByEmail returns entity.ErrNotFound when no clinic has the address.
	ClinicByEmail(ctx context.Context, email string) (*entity.Clinic, error)
	SaveSignupCode(ctx context.Context, code *entity.SignupCode) error
	GetSignupCode(ctx context.Context, code string) (*entity.SignupCode, error)
	// RegisterClinic marks the code used and inserts the clinic in a single
	// transaction. Consumption is a conditional update, so a code is spent
	// exactly once even under concurrent registration attempts.
	RegisterClinic(ctx context.Context, code string, clinic *entity.Clinic, now time.Time) (*entity.Clinic, error)
	ListSignupCodes(ctx context.Context) ([]*entity.SignupCode, error)
	DeleteStaleSignupCodes(ctx context.Context, now time.Time) (int64, error)
}

type Sender interface {
	Send(to, subject, htmlBody string) error
}

type Notifier interface {
	SendMessage(msg string)
}

// Manager owns the one-time signup codes that pre-authorize clinic
// registration. A code is the pre-image of a clinic: it carries the name and
// email the future account must register with.
type Manager struct {
	db     Database
	tokens *token.Source
	ttl    time.Duration
	mail   Sender
	notify Notifier
	now    func() time.Time
	log    *slog.Logger
}

func New(db Database, tokens *token.Source, ttl time.Duration, log *slog.Logger) *Manager {
	if tokens == nil {
		tokens = token.NewSource(token.CharsetBase36, 8)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		db:     db,
		tokens: tokens,
		ttl:    ttl,
		now:    time.Now,
		log:    log.With(sl.Module("signup")),
	}
}

func (m *Manager) SetMailer(mail Sender) {
	m.mail = mail
}

func (m *Manager) SetNotifier(notify Notifier) {
	m.notify = notify
}

// Issue creates a signup code for a clinic that does not exist yet. Fails
// with a conflict before any write when the email is already registered.
func (m *Manager) Issue(ctx context.Context, clinicName, clinicEmail, createdBy string) (*entity.SignupCode, error) {
	clinicEmail = strings.ToLower(strings.TrimSpace(clinicEmail))
	_, err := m.db.ClinicByEmail(ctx, clinicEmail)
	if err == nil {
		return nil, fmt.Errorf("clinic with email %s %w", clinicEmail, entity.ErrConflict)
	}
	if !errors.Is(err, entity.ErrNotFound) {
		m.log.Error("check clinic email", sl.Err(err))
		return nil, err
	}

	value, err := m.tokens.Generate()
	if err != nil {
		return nil, err
	}
	now := m.now()
	code := &entity.SignupCode{
		Code:        value,
		ClinicName:  strings.TrimSpace(clinicName),
		ClinicEmail: clinicEmail,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
	}
	if err = m.db.SaveSignupCode(ctx, code); err != nil {
		m.log.Error("save signup code", sl.Err(err))
		return nil, err
	}
	m.log.With(
		slog.String("clinic_email", clinicEmail),
		slog.String("created_by", createdBy),
	).Info("signup code issued")

	m.sendMail(code.ClinicEmail, "Your clinic signup code",
		fmt.Sprintf("<p>Hello %s,</p><p>Your signup code is <b>%s</b>. It is valid for %d hours.</p>",
			code.ClinicName, code.Code, int(m.ttl.Hours())))
	if m.notify != nil {
		m.notify.SendMessage(fmt.Sprintf("signup code issued for %s (%s) by %s",
			code.ClinicName, code.ClinicEmail, createdBy))
	}

	return code, nil
}

// Verify exposes the issued name and email for registration form pre-fill.
// It does not consume the code; the registration step re-validates.
func (m *Manager) Verify(ctx context.Context, code string) (*entity.SignupCode, error) {
	row, err := m.db.GetSignupCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if row.Used {
		return nil, entity.ErrConsumed
	}
	if !m.now().Before(row.ExpiresAt) {
		return nil, entity.ErrExpired
	}
	return row, nil
}

// Consume registers the clinic and spends the code. The supplied name and
// email must match the issued ones (case-insensitive); on mismatch the code
// stays unused. Consumption and the clinic insert commit together.
func (m *Manager) Consume(ctx context.Context, reg *entity.ClinicRegistration) (*entity.Clinic, error) {
	row, err := m.Verify(ctx, reg.Code)
	if err != nil {
		return nil, err
	}
	if !row.Matches(reg.ClinicName, reg.Email) {
		return nil, fmt.Errorf("registration details do not match the issued code: %w", entity.ErrValidation)
	}

	now := m.now()
	clinic := &entity.Clinic{
		Name:      row.ClinicName,
		Email:     row.ClinicEmail,
		Phone:     strings.TrimSpace(reg.Phone),
		Address:   strings.TrimSpace(reg.Address),
		Country:   strings.TrimSpace(reg.Country),
		Password:  reg.Password,
		CreatedAt: now,
	}
	created, err := m.db.RegisterClinic(ctx, row.Code, clinic, now)
	if err != nil {
		if entity.IsInvalidToken(err) || errors.Is(err, entity.ErrConflict) {
			return nil, err
		}
		m.log.Error("register clinic", slog.String("clinic_email", clinic.Email), sl.Err(err))
		return nil, err
	}
	m.log.With(
		slog.Int64("clinic_id", created.Id),
		slog.String("clinic_email", created.Email),
	).Info("clinic registered")

	m.sendMail(created.Email, "Welcome to VetGate",
		fmt.Sprintf("<p>Hello %s,</p><p>Your clinic account is ready. You can sign in with this address.</p>", created.Name))
	if m.notify != nil {
		m.notify.SendMessage(fmt.Sprintf("clinic registered: %s (%s)", created.Name, created.Email))
	}

	return created, nil
}

func (m *Manager) List(ctx context.Context) ([]*entity.SignupCode, error) {
	return m.db.ListSignupCodes(ctx)
}

// Cleanup deletes expired and used codes.
func (m *Manager) Cleanup(ctx context.Context) (int64, error) {
	n, err := m.db.DeleteStaleSignupCodes(ctx, m.now())
	if err != nil {
		m.log.Error("cleanup signup codes", sl.Err(err))
		return 0, err
	}
	return n, nil
}

// sendMail delivers fire-and-forget: a failed email never blocks or rolls
// back the business operation that triggered it.
func (m *Manager) sendMail(to, subject, body string) {
	if m.mail == nil {
		return
	}
	go func() {
		if err := m.mail.Send(to, subject, body); err != nil {
			m.log.Error("send email", slog.String("to", to), sl.Err(err))
		}
	}()
}
