package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"vetgate/entity"
	"vetgate/impl/checkin"
	"vetgate/impl/passreset"
	"vetgate/impl/signup"
	"vetgate/lib/sl"

	"github.com/google/uuid"
)

// Database covers the clinic-profile reads and writes the core performs
// directly, outside the code managers. Implemented by internal/database.
type Database interface {
	GetClinic(ctx context.Context, id int64) (*entity.Clinic, error)
	UpdateClinic(ctx context.Context, clinic *entity.Clinic) error
}

// IntakeStore persists submitted health forms.
// Implemented by internal/database/mongo.go.
type IntakeStore interface {
	SaveIntake(ctx context.Context, sub *entity.IntakeSubmission) error
	ListIntakes(ctx context.Context, clinicId int64) ([]*entity.IntakeSubmission, error)
}

// Core aggregates the managers behind the HTTP layer. Handlers depend on
// narrow interfaces that Core satisfies.
type Core struct {
	db          Database
	intakes     IntakeStore
	checkin     *checkin.Manager
	signup      *signup.Manager
	adminReset  *passreset.Manager
	clinicReset *passreset.Manager
	admin       *passreset.StaticAccount
	log         *slog.Logger
}

func New(db Database, ci *checkin.Manager, su *signup.Manager, admin *passreset.StaticAccount,
	adminReset, clinicReset *passreset.Manager, log *slog.Logger) *Core {
	if db == nil {
		panic("database is nil")
	}
	return &Core{
		db:          db,
		checkin:     ci,
		signup:      su,
		admin:       admin,
		adminReset:  adminReset,
		clinicReset: clinicReset,
		log:         log.With(sl.Module("core")),
	}
}

// SetIntakeStore connects the document store; without it intake submission
// endpoints report the service as unavailable.
func (c *Core) SetIntakeStore(intakes IntakeStore) {
	c.intakes = intakes
}

// Check-in codes

func (c *Core) CheckInGenerate(ctx context.Context, clinicId int64) (*entity.CheckInCode, error) {
	return c.checkin.Generate(ctx, clinicId)
}

func (c *Core) CheckInVerify(ctx context.Context, code string) (*entity.CheckInAdmission, error) {
	row, err := c.checkin.Verify(ctx, code)
	if err != nil {
		return nil, err
	}
	clinic, err := c.db.GetClinic(ctx, row.ClinicId)
	if err != nil {
		return nil, err
	}
	return &entity.CheckInAdmission{ClinicId: clinic.Id, ClinicName: clinic.Name}, nil
}

func (c *Core) CheckInList(ctx context.Context, clinicId int64) ([]*entity.CheckInCode, error) {
	return c.checkin.List(ctx, clinicId)
}

func (c *Core) CheckInDeactivate(ctx context.Context, codeId int64) error {
	return c.checkin.Deactivate(ctx, codeId)
}

func (c *Core) CheckInDelete(ctx context.Context, codeId int64) error {
	return c.checkin.Delete(ctx, codeId)
}

// Signup codes

func (c *Core) SignupIssue(ctx context.Context, clinicName, clinicEmail, createdBy string) (*entity.SignupCode, error) {
	return c.signup.Issue(ctx, clinicName, clinicEmail, createdBy)
}

func (c *Core) SignupVerify(ctx context.Context, code string) (*entity.SignupCode, error) {
	return c.signup.Verify(ctx, code)
}

func (c *Core) SignupConsume(ctx context.Context, reg *entity.ClinicRegistration) (*entity.Clinic, error) {
	return c.signup.Consume(ctx, reg)
}

func (c *Core) SignupList(ctx context.Context) ([]*entity.SignupCode, error) {
	return c.signup.List(ctx)
}

// Password reset

func (c *Core) resetManager(realm entity.Realm) (*passreset.Manager, error) {
	switch realm {
	case entity.RealmAdmin:
		return c.adminReset, nil
	case entity.RealmClinic:
		return c.clinicReset, nil
	}
	return nil, fmt.Errorf("unknown realm %q", realm)
}

func (c *Core) ResetRequest(ctx context.Context, realm entity.Realm, email string) (string, error) {
	m, err := c.resetManager(realm)
	if err != nil {
		return "", err
	}
	return m.Request(ctx, email)
}

func (c *Core) ResetVerify(ctx context.Context, realm entity.Realm, token string) error {
	m, err := c.resetManager(realm)
	if err != nil {
		return err
	}
	return m.Verify(ctx, token)
}

func (c *Core) ResetApply(ctx context.Context, realm entity.Realm, token, newPassword string) error {
	m, err := c.resetManager(realm)
	if err != nil {
		return err
	}
	return m.Reset(ctx, token, newPassword)
}

// Clinic profile

func (c *Core) ClinicProfile(ctx context.Context, id int64) (*entity.Clinic, error) {
	return c.db.GetClinic(ctx, id)
}

func (c *Core) ClinicUpdate(ctx context.Context, clinic *entity.Clinic) error {
	if code := clinic.CountryCode(); code != "" {
		clinic.Country = code
	}
	return c.db.UpdateClinic(ctx, clinic)
}

// Intake submissions

func (c *Core) IntakeSubmit(ctx context.Context, sub *entity.IntakeSubmission) error {
	if c.intakes == nil {
		return fmt.Errorf("intake storage not connected")
	}
	admission, err := c.CheckInVerify(ctx, sub.Code)
	if err != nil {
		return err
	}
	sub.Id = uuid.NewString()
	sub.ClinicId = admission.ClinicId
	sub.CreatedAt = time.Now()
	if err = c.intakes.SaveIntake(ctx, sub); err != nil {
		c.log.Error("save intake", sl.Err(err))
		return err
	}
	return nil
}

func (c *Core) IntakeList(ctx context.Context, clinicId int64) ([]*entity.IntakeSubmission, error) {
	if c.intakes == nil {
		return nil, fmt.Errorf("intake storage not connected")
	}
	return c.intakes.ListIntakes(ctx, clinicId)
}

// Admin

func (c *Core) AdminCheckCredentials(username, password string) bool {
	if c.admin == nil {
		return false
	}
	return c.admin.Check(username, password)
}

// Cleanup sweeps expired and consumed rows across all three token families.
func (c *Core) Cleanup(ctx context.Context) (*entity.CleanupReport, error) {
	report := &entity.CleanupReport{}
	var err error
	if report.CheckInCodes, err = c.checkin.Cleanup(ctx); err != nil {
		return nil, err
	}
	if report.SignupCodes, err = c.signup.Cleanup(ctx); err != nil {
		return nil, err
	}
	nAdmin, err := c.adminReset.Cleanup(ctx)
	if err != nil {
		return nil, err
	}
	nClinic, err := c.clinicReset.Cleanup(ctx)
	if err != nil {
		return nil, err
	}
	report.ResetTokens = nAdmin + nClinic
	c.log.With(
		slog.Int64("checkin_codes", report.CheckInCodes),
		slog.Int64("signup_codes", report.SignupCodes),
		slog.Int64("reset_tokens", report.ResetTokens),
	).Info("cleanup completed")
	return report, nil
}
