package checkin

import (
	"context"
	"fmt"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"vetgate/entity"
	"vetgate/lib/api/response"
	"vetgate/lib/sl"
)

// Core is the slice of the service the public check-in endpoints need.
type Core interface {
	CheckInVerify(ctx context.Context, code string) (*entity.CheckInAdmission, error)
	IntakeSubmit(ctx context.Context, sub *entity.IntakeSubmission) error
}

// Verify admits a pet owner holding a valid code to the intake form. All
// failure causes answer with the same generic message.
func Verify(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.checkin")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("check-in service not available")
			render.JSON(w, r, response.Error("Check-in service not available"))
			return
		}

		var req entity.CheckInRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(slog.String("code", req.Code))

		admission, err := handler.CheckInVerify(r.Context(), req.Code)
		if err != nil {
			logger.Error("verify check-in code", sl.Err(err))
			status, resp := response.Reject(err)
			render.Status(r, status)
			render.JSON(w, r, resp)
			return
		}
		logger.With(slog.Int64("clinic_id", admission.ClinicId)).Debug("check-in admitted")

		render.JSON(w, r, response.Ok(admission))
	}
}

// Intake accepts the health form. The code travels with the payload and is
// re-verified server side; a stale form cannot be submitted after rotation.
func Intake(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.checkin")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("check-in service not available")
			render.JSON(w, r, response.Error("Check-in service not available"))
			return
		}

		var sub entity.IntakeSubmission
		if err := render.Bind(r, &sub); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(
			slog.String("code", sub.Code),
			slog.String("pet", sub.PetName),
		)

		if err := handler.IntakeSubmit(r.Context(), &sub); err != nil {
			logger.Error("submit intake", sl.Err(err))
			status, resp := response.Reject(err)
			render.Status(r, status)
			render.JSON(w, r, resp)
			return
		}
		logger.Debug("intake submitted")

		render.JSON(w, r, response.Ok(map[string]string{"id": sub.Id}))
	}
}
