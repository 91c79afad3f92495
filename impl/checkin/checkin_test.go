package checkin

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
	"vetgate/entity"
	"vetgate/lib/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDB struct {
	mu     sync.Mutex
	nextId int64
	codes  []*entity.CheckInCode
}

func (f *fakeDB) RotateCheckInCode(_ context.Context, code *entity.CheckInCode) (*entity.CheckInCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.codes {
		if c.ClinicId == code.ClinicId && c.Active {
			c.Active = false
		}
	}
	f.nextId++
	created := *code
	created.Id = f.nextId
	f.codes = append(f.codes, &created)
	out := created
	return &out, nil
}

func (f *fakeDB) GetCheckInCode(_ context.Context, code string) (*entity.CheckInCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.codes) - 1; i >= 0; i-- {
		if f.codes[i].Code == code {
			out := *f.codes[i]
			return &out, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (f *fakeDB) SetCheckInCodeActive(_ context.Context, id int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.codes {
		if c.Id == id {
			c.Active = active
			return nil
		}
	}
	return entity.ErrNotFound
}

func (f *fakeDB) DeleteCheckInCode(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.codes {
		if c.Id == id {
			f.codes = append(f.codes[:i], f.codes[i+1:]...)
			return nil
		}
	}
	return entity.ErrNotFound
}

func (f *fakeDB) ListCheckInCodes(_ context.Context, clinicId int64) ([]*entity.CheckInCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.CheckInCode
	for _, c := range f.codes {
		if c.ClinicId == clinicId {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeDB) DeleteStaleCheckInCodes(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []*entity.CheckInCode
	var n int64
	for _, c := range f.codes {
		if !c.Active || !now.Before(c.ExpiresAt) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	f.codes = kept
	return n, nil
}

func newTestManager(db *fakeDB) *Manager {
	return New(db, token.NewSource(token.CharsetUpper, 3), 8*time.Hour, slog.Default())
}

func TestGenerate_Format(t *testing.T) {
	m := newTestManager(&fakeDB{})

	code, err := m.Generate(context.Background(), 1)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(code.Code, "PET"))
	assert.Len(t, code.Code, 6)
	assert.True(t, code.Active)
	assert.Equal(t, 8*time.Hour, code.ExpiresAt.Sub(code.CreatedAt))
}

func TestGenerate_SupersedesPrevious(t *testing.T) {
	db := &fakeDB{}
	m := newTestManager(db)
	ctx := context.Background()

	first, err := m.Generate(ctx, 1)
	require.NoError(t, err)
	second, err := m.Generate(ctx, 1)
	require.NoError(t, err)

	codes, err := m.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, codes, 2)

	active := 0
	for _, c := range codes {
		if c.Active {
			active++
			assert.Equal(t, second.Id, c.Id)
		}
	}
	assert.Equal(t, 1, active)

	// superseded code no longer admits
	_, err = m.Verify(ctx, first.Code)
	if first.Code != second.Code {
		assert.ErrorIs(t, err, entity.ErrConsumed)
	}
}

func TestGenerate_DoesNotTouchOtherClinics(t *testing.T) {
	db := &fakeDB{}
	m := newTestManager(db)
	ctx := context.Background()

	other, err := m.Generate(ctx, 2)
	require.NoError(t, err)
	mine, err := m.Generate(ctx, 1)
	require.NoError(t, err)
	if mine.Code == other.Code {
		t.Skip("random collision between clinics")
	}

	got, err := m.Verify(ctx, other.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ClinicId)
}

func TestVerify_Scenario(t *testing.T) {
	db := &fakeDB{}
	m := newTestManager(db)
	ctx := context.Background()

	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	code, err := m.Generate(ctx, 42)
	require.NoError(t, err)

	m.now = func() time.Time { return base.Add(time.Hour) }
	row, err := m.Verify(ctx, code.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(42), row.ClinicId)

	m.now = func() time.Time { return base.Add(9 * time.Hour) }
	_, err = m.Verify(ctx, code.Code)
	assert.ErrorIs(t, err, entity.ErrExpired)
	assert.True(t, entity.IsInvalidToken(err))
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	db := &fakeDB{}
	m := newTestManager(db)
	ctx := context.Background()

	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	code, err := m.Generate(ctx, 1)
	require.NoError(t, err)

	// expires_at == now is expired, not valid
	m.now = func() time.Time { return code.ExpiresAt }
	_, err = m.Verify(ctx, code.Code)
	assert.ErrorIs(t, err, entity.ErrExpired)
}

func TestVerify_UnknownCode(t *testing.T) {
	m := newTestManager(&fakeDB{})

	_, err := m.Verify(context.Background(), "PETXXX")
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.True(t, entity.IsInvalidToken(err))
}

func TestDeactivate_BlocksVerify(t *testing.T) {
	db := &fakeDB{}
	m := newTestManager(db)
	ctx := context.Background()

	code, err := m.Generate(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, m.Deactivate(ctx, code.Id))

	_, err = m.Verify(ctx, code.Code)
	assert.ErrorIs(t, err, entity.ErrConsumed)
}

func TestDelete_RemovesCode(t *testing.T) {
	db := &fakeDB{}
	m := newTestManager(db)
	ctx := context.Background()

	code, err := m.Generate(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, code.Id))

	_, err = m.Verify(ctx, code.Code)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestCleanup_SweepsStale(t *testing.T) {
	db := &fakeDB{}
	m := newTestManager(db)
	ctx := context.Background()

	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	_, err := m.Generate(ctx, 1) // superseded below, becomes inactive
	require.NoError(t, err)
	live, err := m.Generate(ctx, 1)
	require.NoError(t, err)

	n, err := m.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	codes, err := m.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, live.Id, codes[0].Id)
}
