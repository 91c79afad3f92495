package checkin

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"vetgate/entity"
	"vetgate/lib/api/response"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCore struct {
	verifyErr error
	admission *entity.CheckInAdmission
	intakeErr error
}

func (s *stubCore) CheckInVerify(_ context.Context, _ string) (*entity.CheckInAdmission, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.admission, nil
}

func (s *stubCore) IntakeSubmit(_ context.Context, sub *entity.IntakeSubmission) error {
	if s.intakeErr != nil {
		return s.intakeErr
	}
	sub.Id = "generated-id"
	return nil
}

func doVerify(t *testing.T, core Core, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	router := chi.NewRouter()
	router.Post("/v1/checkin/verify", Verify(slog.Default(), core))

	req := httptest.NewRequest(http.MethodPost, "/v1/checkin/verify", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestVerify_Success(t *testing.T) {
	core := &stubCore{admission: &entity.CheckInAdmission{ClinicId: 7, ClinicName: "Acme Vet"}}

	rec, resp := doVerify(t, core, `{"code":"PETXYZ"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(7), data["clinic_id"])
	assert.Equal(t, "Acme Vet", data["clinic_name"])
}

func TestVerify_CollapsesFailureCauses(t *testing.T) {
	// unknown, expired and consumed codes must be indistinguishable
	causes := map[string]error{
		"not found": entity.ErrNotFound,
		"expired":   entity.ErrExpired,
		"consumed":  entity.ErrConsumed,
	}

	var messages []string
	for name, cause := range causes {
		t.Run(name, func(t *testing.T) {
			rec, resp := doVerify(t, &stubCore{verifyErr: cause}, `{"code":"PETXYZ"}`)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, resp.Success)
			messages = append(messages, resp.StatusMessage)
		})
	}
	for _, msg := range messages {
		assert.Equal(t, messages[0], msg)
	}
}

func TestVerify_DependencyFailureIsGeneric(t *testing.T) {
	rec, resp := doVerify(t, &stubCore{verifyErr: assert.AnError}, `{"code":"PETXYZ"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Internal error", resp.StatusMessage)
}

func TestVerify_MissingCode(t *testing.T) {
	rec, resp := doVerify(t, &stubCore{}, `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
}

func TestIntake_Success(t *testing.T) {
	core := &stubCore{}
	router := chi.NewRouter()
	router.Post("/v1/checkin/intake", Intake(slog.Default(), core))

	body := `{"code":"PETXYZ","pet_name":"Rex","owner_name":"Jan","owner_email":"jan@x.com"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/checkin/intake", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestIntake_InvalidCodeCollapsed(t *testing.T) {
	core := &stubCore{intakeErr: entity.ErrExpired}
	router := chi.NewRouter()
	router.Post("/v1/checkin/intake", Intake(slog.Default(), core))

	body := `{"code":"PETXYZ","pet_name":"Rex","owner_name":"Jan","owner_email":"jan@x.com"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/checkin/intake", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid or expired code", resp.StatusMessage)
}
