package database

import (
	"database/sql"
	"fmt"
)

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

func (s *MySql) stmtSelectCheckInCode() (*sql.Stmt, error) {
	// newest row wins when the low-entropy scheme collides
	query := `SELECT id, code, clinic_id, created_at, expires_at, active
	            FROM checkin_codes
	           WHERE code = ?
	           ORDER BY id DESC LIMIT 1`
	return s.prepareStmt("selectCheckInCode", query)
}

func (s *MySql) stmtSetCheckInCodeActive() (*sql.Stmt, error) {
	query := `UPDATE checkin_codes SET active = ? WHERE id = ?`
	return s.prepareStmt("setCheckInCodeActive", query)
}

func (s *MySql) stmtDeleteCheckInCode() (*sql.Stmt, error) {
	query := `DELETE FROM checkin_codes WHERE id = ?`
	return s.prepareStmt("deleteCheckInCode", query)
}

func (s *MySql) stmtListCheckInCodes() (*sql.Stmt, error) {
	query := `SELECT id, code, clinic_id, created_at, expires_at, active
	            FROM checkin_codes
	           WHERE clinic_id = ?
	           ORDER BY created_at DESC`
	return s.prepareStmt("listCheckInCodes", query)
}

func (s *MySql) stmtSelectClinicById() (*sql.Stmt, error) {
	query := `SELECT id, name, email, phone, address, country, password, created_at
	            FROM clinics WHERE id = ?`
	return s.prepareStmt("selectClinicById", query)
}

func (s *MySql) stmtSelectClinicByEmail() (*sql.Stmt, error) {
	query := `SELECT id, name, email, phone, address, country, password, created_at
	            FROM clinics WHERE email = ?`
	return s.prepareStmt("selectClinicByEmail", query)
}

func (s *MySql) stmtUpdateClinic() (*sql.Stmt, error) {
	query := `UPDATE clinics SET
	            name = ?,
	            phone = ?,
	            address = ?,
	            country = ?
	           WHERE id = ?`
	return s.prepareStmt("updateClinic", query)
}

func (s *MySql) stmtSetClinicPassword() (*sql.Stmt, error) {
	query := `UPDATE clinics SET password = ? WHERE email = ?`
	return s.prepareStmt("setClinicPassword", query)
}

func (s *MySql) stmtInsertSignupCode() (*sql.Stmt, error) {
	query := `INSERT INTO signup_codes (code, clinic_name, clinic_email, created_by, created_at, expires_at, used)
	          VALUES (?, ?, ?, ?, ?, ?, 0)`
	return s.prepareStmt("insertSignupCode", query)
}

func (s *MySql) stmtSelectSignupCode() (*sql.Stmt, error) {
	query := `SELECT code, clinic_name, clinic_email, created_by, created_at, expires_at, used
	            FROM signup_codes WHERE code = ?`
	return s.prepareStmt("selectSignupCode", query)
}

func (s *MySql) stmtListSignupCodes() (*sql.Stmt, error) {
	query := `SELECT code, clinic_name, clinic_email, created_by, created_at, expires_at, used
	            FROM signup_codes
	           ORDER BY created_at DESC`
	return s.prepareStmt("listSignupCodes", query)
}

func (s *MySql) stmtInsertResetToken() (*sql.Stmt, error) {
	query := `INSERT INTO reset_tokens (clinic_id, token, email, created_at, expires_at, used)
	          VALUES (?, ?, ?, ?, ?, 0)`
	return s.prepareStmt("insertResetToken", query)
}

func (s *MySql) stmtSelectResetToken() (*sql.Stmt, error) {
	query := `SELECT id, token, email, created_at, expires_at, used
	            FROM reset_tokens WHERE token = ?`
	return s.prepareStmt("selectResetToken", query)
}

func (s *MySql) stmtConsumeResetToken() (*sql.Stmt, error) {
	query := `UPDATE reset_tokens SET used = 1 WHERE token = ? AND used = 0 AND expires_at > ?`
	return s.prepareStmt("consumeResetToken", query)
}
