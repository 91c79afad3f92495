package signup

import (
	"context"
	"fmt"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"vetgate/entity"
	"vetgate/lib/api/cont"
	"vetgate/lib/api/response"
	"vetgate/lib/sl"
)

// Core is the slice of the service the signup endpoints need. Issue and List
// are reachable only through the admin-gated routes.
type Core interface {
	SignupIssue(ctx context.Context, clinicName, clinicEmail, createdBy string) (*entity.SignupCode, error)
	SignupVerify(ctx context.Context, code string) (*entity.SignupCode, error)
	SignupConsume(ctx context.Context, reg *entity.ClinicRegistration) (*entity.Clinic, error)
	SignupList(ctx context.Context) ([]*entity.SignupCode, error)
}

// prefill is the only part of an unused code exposed to registration callers.
type prefill struct {
	ClinicName  string `json:"clinic_name"`
	ClinicEmail string `json:"clinic_email"`
}

func handlerLogger(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.signup"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Issue creates a signup code for a future clinic. Admin only; the issuing
// identity comes from the auth middleware.
func Issue(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(log, r)

		var req entity.SignupIssueRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		createdBy := cont.GetAdmin(r.Context())
		logger = logger.With(
			slog.String("clinic_email", req.ClinicEmail),
			slog.String("created_by", createdBy),
		)

		code, err := handler.SignupIssue(r.Context(), req.ClinicName, req.ClinicEmail, createdBy)
		if err != nil {
			logger.Error("issue signup code", sl.Err(err))
			status, resp := response.Reject(err)
			render.Status(r, status)
			render.JSON(w, r, resp)
			return
		}
		logger.Debug("signup code issued")

		render.JSON(w, r, response.Ok(code))
	}
}

// Verify exposes the issued clinic name and email so the registration form
// can be pre-filled. The code is not consumed here.
func Verify(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(log, r)

		var req entity.SignupVerifyRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		code, err := handler.SignupVerify(r.Context(), req.Code)
		if err != nil {
			logger.Error("verify signup code", sl.Err(err))
			status, resp := response.Reject(err)
			render.Status(r, status)
			render.JSON(w, r, resp)
			return
		}

		render.JSON(w, r, response.Ok(prefill{
			ClinicName:  code.ClinicName,
			ClinicEmail: code.ClinicEmail,
		}))
	}
}

// Register consumes the code and creates the clinic account.
func Register(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(log, r)

		var reg entity.ClinicRegistration
		if err := render.Bind(r, &reg); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(slog.String("clinic_email", reg.Email))

		clinic, err := handler.SignupConsume(r.Context(), &reg)
		if err != nil {
			logger.Error("register clinic", sl.Err(err))
			status, resp := response.Reject(err)
			render.Status(r, status)
			render.JSON(w, r, resp)
			return
		}
		logger.With(slog.Int64("clinic_id", clinic.Id)).Info("clinic registered")

		render.JSON(w, r, response.Ok(clinic))
	}
}

// List returns all signup codes for the admin dashboard.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(log, r)

		codes, err := handler.SignupList(r.Context())
		if err != nil {
			logger.Error("list signup codes", sl.Err(err))
			status, resp := response.Reject(err)
			render.Status(r, status)
			render.JSON(w, r, resp)
			return
		}

		render.JSON(w, r, response.Ok(codes))
	}
}
