package checkin

import (
	"context"
	"log/slog"
	"time"
	"vetgate/entity"
	"vetgate/lib/sl"
	"vetgate/lib/token"
)

// codePrefix is printed on clinic signage; owners type the full code.
const codePrefix = "PET"

// Database defines the storage operations the check-in code manager depends on.
// Implemented by internal/database/mysql.go.
type Database interface {
	// RotateCheckInCode deactivates every active code for the clinic and
	// inserts the new one in a single transaction.
	RotateCheckInCode(ctx context.Context, code *entity.CheckInCode) (*entity.CheckInCode, error)
	// GetCheckInCode returns the newest row matching the code,
	// or entity.ErrNotFound.
	GetCheckInCode(ctx context.Context, code string) (*entity.CheckInCode, error)
	SetCheckInCodeActive(ctx context.Context, id int64, active bool) error
	DeleteCheckInCode(ctx context.Context, id int64) error
	ListCheckInCodes(ctx context.Context, clinicId int64) ([]*entity.CheckInCode, error)
	// DeleteStaleCheckInCodes removes expired and deactivated rows.
	DeleteStaleCheckInCodes(ctx context.Context, now time.Time) (int64, error)
}

// Manager owns the daily check-in code lifecycle for clinics. Codes are
// rotated, never updated in place: generating a new code supersedes the old
// ones by marking them inactive.
type Manager struct {
	db     Database
	tokens *token.Source
	ttl    time.Duration
	now    func() time.Time
	log    *slog.Logger
}

func New(db Database, tokens *token.Source, ttl time.Duration, log *slog.Logger) *Manager {
	if tokens == nil {
		tokens = token.NewSource(token.CharsetUpper, 3)
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Manager{
		db:     db,
		tokens: tokens,
		ttl:    ttl,
		now:    time.Now,
		log:    log.With(sl.Module("checkin")),
	}
}

// Generate issues a fresh code for the clinic and supersedes the previous
// ones. Collisions with codes of other clinics are possible at the default
// width and are not checked; verification resolves to the newest row.
func (m *Manager) Generate(ctx context.Context, clinicId int64) (*entity.CheckInCode, error) {
	suffix, err := m.tokens.Generate()
	if err != nil {
		return nil, err
	}
	now := m.now()
	code := &entity.CheckInCode{
		Code:      codePrefix + suffix,
		ClinicId:  clinicId,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
		Active:    true,
	}
	created, err := m.db.RotateCheckInCode(ctx, code)
	if err != nil {
		m.log.Error("rotate check-in code", slog.Int64("clinic_id", clinicId), sl.Err(err))
		return nil, err
	}
	m.log.With(
		slog.Int64("clinic_id", clinicId),
		slog.String("code", created.Code),
	).Debug("check-in code generated")
	return created, nil
}

// Verify admits a caller to the intake form when the code exists, is active
// and has not expired. The distinction between the failure causes is kept for
// logs and tests; the HTTP boundary collapses it.
func (m *Manager) Verify(ctx context.Context, code string) (*entity.CheckInCode, error) {
	row, err := m.db.GetCheckInCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !row.Active {
		return nil, entity.ErrConsumed
	}
	if !m.now().Before(row.ExpiresAt) {
		return nil, entity.ErrExpired
	}
	return row, nil
}

func (m *Manager) Deactivate(ctx context.Context, codeId int64) error {
	return m.db.SetCheckInCodeActive(ctx, codeId, false)
}

func (m *Manager) Delete(ctx context.Context, codeId int64) error {
	return m.db.DeleteCheckInCode(ctx, codeId)
}

func (m *Manager) List(ctx context.Context, clinicId int64) ([]*entity.CheckInCode, error) {
	return m.db.ListCheckInCodes(ctx, clinicId)
}

// Cleanup deletes expired and deactivated codes. Expiry is otherwise checked
// lazily at verification time, never swept in the background.
func (m *Manager) Cleanup(ctx context.Context) (int64, error) {
	n, err := m.db.DeleteStaleCheckInCodes(ctx, m.now())
	if err != nil {
		m.log.Error("cleanup check-in codes", sl.Err(err))
		return 0, err
	}
	return n, nil
}
