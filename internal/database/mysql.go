package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"sync"
	"time"
	"vetgate/entity"
	"vetgate/internal/config"
)

type MySql struct {
	db         *sql.DB
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		conf.MySql.UserName, conf.MySql.Password, conf.MySql.HostName, conf.MySql.Port, conf.MySql.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(10 * time.Second)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &MySql{
		db:         db,
		statements: make(map[string]*sql.Stmt),
	}
	if err = sdb.createTables(); err != nil {
		return nil, err
	}
	return sdb, nil
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

func (s *MySql) createTables() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS clinics (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			email VARCHAR(128) NOT NULL UNIQUE,
			phone VARCHAR(32) NOT NULL DEFAULT '',
			address VARCHAR(255) NOT NULL DEFAULT '',
			country VARCHAR(64) NOT NULL DEFAULT '',
			password VARCHAR(128) NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS checkin_codes (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			code VARCHAR(16) NOT NULL,
			clinic_id BIGINT NOT NULL,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			active TINYINT(1) NOT NULL DEFAULT 1,
			INDEX idx_checkin_code (code),
			INDEX idx_checkin_clinic (clinic_id)
		)`,
		`CREATE TABLE IF NOT EXISTS signup_codes (
			code VARCHAR(32) PRIMARY KEY,
			clinic_name VARCHAR(128) NOT NULL,
			clinic_email VARCHAR(128) NOT NULL,
			created_by VARCHAR(64) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			used TINYINT(1) NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS reset_tokens (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			clinic_id BIGINT NOT NULL DEFAULT 0,
			token VARCHAR(64) NOT NULL UNIQUE,
			email VARCHAR(128) NOT NULL,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			used TINYINT(1) NOT NULL DEFAULT 0
		)`,
	}
	for _, ddl := range tables {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// Check-in codes

func (s *MySql) RotateCheckInCode(ctx context.Context, code *entity.CheckInCode) (*entity.CheckInCode, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`UPDATE checkin_codes SET active=0 WHERE clinic_id=? AND active=1`,
		code.ClinicId)
	if err != nil {
		return nil, fmt.Errorf("deactivate codes: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO checkin_codes (code, clinic_id, created_at, expires_at, active) VALUES (?, ?, ?, ?, 1)`,
		code.Code, code.ClinicId, code.CreatedAt, code.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("insert code: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	created := *code
	created.Id = id
	return &created, nil
}

func (s *MySql) GetCheckInCode(ctx context.Context, code string) (*entity.CheckInCode, error) {
	stmt, err := s.stmtSelectCheckInCode()
	if err != nil {
		return nil, err
	}
	var row entity.CheckInCode
	err = stmt.QueryRowContext(ctx, code).Scan(
		&row.Id, &row.Code, &row.ClinicId, &row.CreatedAt, &row.ExpiresAt, &row.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *MySql) SetCheckInCodeActive(ctx context.Context, id int64, active bool) error {
	stmt, err := s.stmtSetCheckInCodeActive()
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, active, id)
	return err
}

func (s *MySql) DeleteCheckInCode(ctx context.Context, id int64) error {
	stmt, err := s.stmtDeleteCheckInCode()
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, id)
	return err
}

func (s *MySql) ListCheckInCodes(ctx context.Context, clinicId int64) ([]*entity.CheckInCode, error) {
	stmt, err := s.stmtListCheckInCodes()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, clinicId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []*entity.CheckInCode
	for rows.Next() {
		var row entity.CheckInCode
		if err = rows.Scan(&row.Id, &row.Code, &row.ClinicId, &row.CreatedAt, &row.ExpiresAt, &row.Active); err != nil {
			return nil, err
		}
		codes = append(codes, &row)
	}
	return codes, rows.Err()
}

func (s *MySql) DeleteStaleCheckInCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM checkin_codes WHERE expires_at <= ? OR active=0`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Clinics

func (s *MySql) scanClinic(row *sql.Row) (*entity.Clinic, error) {
	var clinic entity.Clinic
	err := row.Scan(&clinic.Id, &clinic.Name, &clinic.Email, &clinic.Phone,
		&clinic.Address, &clinic.Country, &clinic.Password, &clinic.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &clinic, nil
}

func (s *MySql) GetClinic(ctx context.Context, id int64) (*entity.Clinic, error) {
	stmt, err := s.stmtSelectClinicById()
	if err != nil {
		return nil, err
	}
	return s.scanClinic(stmt.QueryRowContext(ctx, id))
}

func (s *MySql) ClinicByEmail(ctx context.Context, email string) (*entity.Clinic, error) {
	stmt, err := s.stmtSelectClinicByEmail()
	if err != nil {
		return nil, err
	}
	return s.scanClinic(stmt.QueryRowContext(ctx, email))
}

func (s *MySql) UpdateClinic(ctx context.Context, clinic *entity.Clinic) error {
	stmt, err := s.stmtUpdateClinic()
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, clinic.Name, clinic.Phone, clinic.Address, clinic.Country, clinic.Id)
	return err
}

// EmailExists reports whether a clinic account owns the address; backs the
// clinic password-reset realm.
func (s *MySql) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.ClinicByEmail(ctx, email)
	if errors.Is(err, entity.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetPassword updates the clinic password by email.
func (s *MySql) SetPassword(ctx context.Context, email, newPassword string) error {
	stmt, err := s.stmtSetClinicPassword()
	if err != nil {
		return err
	}
	res, err := stmt.ExecContext(ctx, newPassword, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// Signup codes

func (s *MySql) SaveSignupCode(ctx context.Context, code *entity.SignupCode) error {
	stmt, err := s.stmtInsertSignupCode()
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, code.Code, code.ClinicName, code.ClinicEmail,
		code.CreatedBy, code.CreatedAt, code.ExpiresAt)
	return err
}

func (s *MySql) GetSignupCode(ctx context.Context, code string) (*entity.SignupCode, error) {
	stmt, err := s.stmtSelectSignupCode()
	if err != nil {
		return nil, err
	}
	var row entity.SignupCode
	err = stmt.QueryRowContext(ctx, code).Scan(&row.Code, &row.ClinicName, &row.ClinicEmail,
		&row.CreatedBy, &row.CreatedAt, &row.ExpiresAt, &row.Used)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// RegisterClinic spends the signup code and inserts the clinic atomically.
// The conditional update guards the exactly-once invariant: a crash anywhere
// in the sequence rolls the consumption back together with the insert.
func (s *MySql) RegisterClinic(ctx context.Context, code string, clinic *entity.Clinic, now time.Time) (*entity.Clinic, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE signup_codes SET used=1 WHERE code=? AND used=0 AND expires_at > ?`,
		code, now)
	if err != nil {
		return nil, fmt.Errorf("consume signup code: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, entity.ErrConsumed
	}

	var count int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM clinics WHERE email=?`, clinic.Email).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("check clinic email: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("clinic with email %s %w", clinic.Email, entity.ErrConflict)
	}

	res, err = tx.ExecContext(ctx,
		`INSERT INTO clinics (name, email, phone, address, country, password, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		clinic.Name, clinic.Email, clinic.Phone, clinic.Address, clinic.Country, clinic.Password, clinic.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert clinic: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	created := *clinic
	created.Id = id
	return &created, nil
}

func (s *MySql) ListSignupCodes(ctx context.Context) ([]*entity.SignupCode, error) {
	stmt, err := s.stmtListSignupCodes()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []*entity.SignupCode
	for rows.Next() {
		var row entity.SignupCode
		if err = rows.Scan(&row.Code, &row.ClinicName, &row.ClinicEmail,
			&row.CreatedBy, &row.CreatedAt, &row.ExpiresAt, &row.Used); err != nil {
			return nil, err
		}
		codes = append(codes, &row)
	}
	return codes, rows.Err()
}

func (s *MySql) DeleteStaleSignupCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM signup_codes WHERE expires_at <= ? OR used=1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Reset tokens (clinic realm store)

func (s *MySql) SaveResetToken(ctx context.Context, t *entity.ResetToken) error {
	var clinicId int64
	clinic, err := s.ClinicByEmail(ctx, t.Email)
	if err == nil {
		clinicId = clinic.Id
	} else if !errors.Is(err, entity.ErrNotFound) {
		return err
	}
	stmt, err := s.stmtInsertResetToken()
	if err != nil {
		return err
	}
	res, err := stmt.ExecContext(ctx, clinicId, t.Token, t.Email, t.CreatedAt, t.ExpiresAt)
	if err != nil {
		return err
	}
	t.Id, _ = res.LastInsertId()
	return nil
}

func (s *MySql) GetResetToken(ctx context.Context, token string) (*entity.ResetToken, error) {
	stmt, err := s.stmtSelectResetToken()
	if err != nil {
		return nil, err
	}
	var row entity.ResetToken
	err = stmt.QueryRowContext(ctx, token).Scan(
		&row.Id, &row.Token, &row.Email, &row.CreatedAt, &row.ExpiresAt, &row.Used)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ConsumeResetToken is a single conditional update, so concurrent resets with
// the same token cannot both succeed. On failure the row is read back only to
// tag the cause for logs; callers see the collapsed generic error either way.
func (s *MySql) ConsumeResetToken(ctx context.Context, token string, now time.Time) (*entity.ResetToken, error) {
	stmt, err := s.stmtConsumeResetToken()
	if err != nil {
		return nil, err
	}
	res, err := stmt.ExecContext(ctx, token, now)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		row, err := s.GetResetToken(ctx, token)
		if err != nil {
			return nil, err
		}
		if row.Used {
			return nil, entity.ErrConsumed
		}
		return nil, entity.ErrExpired
	}
	row, err := s.GetResetToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *MySql) DeleteStaleResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reset_tokens WHERE expires_at <= ? OR used=1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
