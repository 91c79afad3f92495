package signup

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
	"vetgate/entity"
	"vetgate/lib/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDB struct {
	mu      sync.Mutex
	nextId  int64
	clinics map[string]*entity.Clinic
	codes   map[string]*entity.SignupCode
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		clinics: make(map[string]*entity.Clinic),
		codes:   make(map[string]*entity.SignupCode),
	}
}

func (f *fakeDB) ClinicByEmail(_ context.Context, email string) (*entity.Clinic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clinic, ok := f.clinics[email]
	if !ok {
		return nil, entity.ErrNotFound
	}
	out := *clinic
	return &out, nil
}

func (f *fakeDB) SaveSignupCode(_ context.Context, code *entity.SignupCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *code
	f.codes[code.Code] = &stored
	return nil
}

func (f *fakeDB) GetSignupCode(_ context.Context, code string) (*entity.SignupCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.codes[code]
	if !ok {
		return nil, entity.ErrNotFound
	}
	out := *row
	return &out, nil
}

func (f *fakeDB) RegisterClinic(_ context.Context, code string, clinic *entity.Clinic, now time.Time) (*entity.Clinic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.codes[code]
	if !ok || row.Used || !now.Before(row.ExpiresAt) {
		return nil, entity.ErrConsumed
	}
	if _, exists := f.clinics[clinic.Email]; exists {
		return nil, entity.ErrConflict
	}
	row.Used = true
	f.nextId++
	created := *clinic
	created.Id = f.nextId
	f.clinics[created.Email] = &created
	out := created
	return &out, nil
}

func (f *fakeDB) ListSignupCodes(_ context.Context) ([]*entity.SignupCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.SignupCode
	for _, c := range f.codes {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeDB) DeleteStaleSignupCodes(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for key, c := range f.codes {
		if c.Used || !now.Before(c.ExpiresAt) {
			delete(f.codes, key)
			n++
		}
	}
	return n, nil
}

type recordedMail struct {
	mu    sync.Mutex
	sends []string
}

func (r *recordedMail) Send(to, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends = append(r.sends, to)
	return nil
}

func newTestManager(db *fakeDB) *Manager {
	return New(db, token.NewSource(token.CharsetBase36, 8), 24*time.Hour, slog.Default())
}

func registration(code *entity.SignupCode) *entity.ClinicRegistration {
	return &entity.ClinicRegistration{
		Code:       code.Code,
		ClinicName: code.ClinicName,
		Email:      code.ClinicEmail,
		Password:   "secret1",
	}
}

func TestIssue_And_Verify(t *testing.T) {
	db := newFakeDB()
	m := newTestManager(db)
	ctx := context.Background()

	code, err := m.Issue(ctx, "Acme Vet", "a@x.com", "admin")
	require.NoError(t, err)
	assert.Len(t, code.Code, 8)
	assert.False(t, code.Used)
	assert.Equal(t, "admin", code.CreatedBy)
	assert.Equal(t, 24*time.Hour, code.ExpiresAt.Sub(code.CreatedAt))

	got, err := m.Verify(ctx, code.Code)
	require.NoError(t, err)
	assert.Equal(t, "Acme Vet", got.ClinicName)
	assert.Equal(t, "a@x.com", got.ClinicEmail)
}

func TestIssue_ConflictBeforeWrite(t *testing.T) {
	db := newFakeDB()
	db.clinics["a@x.com"] = &entity.Clinic{Id: 1, Email: "a@x.com"}
	m := newTestManager(db)

	_, err := m.Issue(context.Background(), "Acme Vet", "a@x.com", "admin")
	assert.ErrorIs(t, err, entity.ErrConflict)
	assert.Empty(t, db.codes)
}

func TestVerify_Expired(t *testing.T) {
	db := newFakeDB()
	m := newTestManager(db)
	ctx := context.Background()

	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	code, err := m.Issue(ctx, "Acme Vet", "a@x.com", "admin")
	require.NoError(t, err)

	m.now = func() time.Time { return base.Add(24 * time.Hour) }
	_, err = m.Verify(ctx, code.Code)
	assert.ErrorIs(t, err, entity.ErrExpired)
}

func TestConsume_MismatchedEmail(t *testing.T) {
	db := newFakeDB()
	m := newTestManager(db)
	ctx := context.Background()

	code, err := m.Issue(ctx, "Acme Vet", "a@x.com", "admin")
	require.NoError(t, err)

	reg := registration(code)
	reg.Email = "b@x.com"
	_, err = m.Consume(ctx, reg)
	assert.ErrorIs(t, err, entity.ErrValidation)

	// the code survives a failed attempt
	got, err := m.Verify(ctx, code.Code)
	require.NoError(t, err)
	assert.False(t, got.Used)
}

func TestConsume_CaseInsensitiveMatch(t *testing.T) {
	db := newFakeDB()
	m := newTestManager(db)
	ctx := context.Background()

	code, err := m.Issue(ctx, "Acme Vet", "a@x.com", "admin")
	require.NoError(t, err)

	reg := registration(code)
	reg.ClinicName = "ACME VET"
	reg.Email = "A@X.COM"
	clinic, err := m.Consume(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", clinic.Email)
}

func TestConsume_ExactlyOnce(t *testing.T) {
	db := newFakeDB()
	m := newTestManager(db)
	mail := &recordedMail{}
	m.SetMailer(mail)
	ctx := context.Background()

	code, err := m.Issue(ctx, "Acme Vet", "a@x.com", "admin")
	require.NoError(t, err)

	clinic, err := m.Consume(ctx, registration(code))
	require.NoError(t, err)
	assert.NotZero(t, clinic.Id)

	got, err := m.db.GetSignupCode(ctx, code.Code)
	require.NoError(t, err)
	assert.True(t, got.Used)

	_, err = m.Consume(ctx, registration(code))
	assert.ErrorIs(t, err, entity.ErrConsumed)
	assert.True(t, entity.IsInvalidToken(err))
}

func TestCleanup_RemovesUsedAndExpired(t *testing.T) {
	db := newFakeDB()
	m := newTestManager(db)
	ctx := context.Background()

	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	spent, err := m.Issue(ctx, "Acme Vet", "a@x.com", "admin")
	require.NoError(t, err)
	_, err = m.Consume(ctx, registration(spent))
	require.NoError(t, err)

	_, err = m.Issue(ctx, "Borough Vet", "b@x.com", "admin")
	require.NoError(t, err)

	n, err := m.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	codes, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, codes, 1)
}
