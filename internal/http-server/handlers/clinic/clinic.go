package clinic

import (
	"context"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"strconv"
	"vetgate/entity"
	"vetgate/lib/api/response"
	"vetgate/lib/sl"
)

// Core is the slice of the service the clinic dashboard needs.
type Core interface {
	CheckInGenerate(ctx context.Context, clinicId int64) (*entity.CheckInCode, error)
	CheckInList(ctx context.Context, clinicId int64) ([]*entity.CheckInCode, error)
	CheckInDeactivate(ctx context.Context, codeId int64) error
	CheckInDelete(ctx context.Context, codeId int64) error
	ClinicProfile(ctx context.Context, id int64) (*entity.Clinic, error)
	ClinicUpdate(ctx context.Context, clinic *entity.Clinic) error
	IntakeList(ctx context.Context, clinicId int64) ([]*entity.IntakeSubmission, error)
}

func urlId(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func handlerLogger(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.clinic"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func badRequest(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.Error("bad request", sl.Err(err))
	render.Status(r, 400)
	render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
}

func reject(w http.ResponseWriter, r *http.Request, logger *slog.Logger, action string, err error) {
	logger.Error(action, sl.Err(err))
	status, resp := response.Reject(err)
	render.Status(r, status)
	render.JSON(w, r, resp)
}

// GenerateCode rotates the clinic's check-in code: the previous active codes
// are superseded in the same transaction that creates the new one.
func GenerateCode(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(log, r)

		clinicId, err := urlId(r, "clinicID")
		if err != nil {
			badRequest(w, r, logger, err)
			return
		}
		logger = logger.With(slog.Int64("clinic_id", clinicId))

		code, err := handler.CheckInGenerate(r.Context(), clinicId)
		if err != nil {
			reject(w, r, logger, "generate check-in code", err)
			return
		}
		logger.With(slog.String("code", code.Code)).Debug("check-in code generated")

		render.JSON(w, r, response.Ok(code))
	}
}

func ListCodes(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(log, r)

		clinicId, err := urlId(r, "clinicID")
		if err != nil {
			badRequest(w, r, logger, err)
			return
		}

		codes, err := handler.CheckInList(r.Context(), clinicId)
		if err != nil {
			reject(w, r, logger, "list check-in codes", err)
			return
		}

		render.JSON(w, r, response.Ok(codes))
	}
}

func DeactivateCode(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(log, r)

		codeId, err := urlId(r, "codeID")
		if err != nil {
			badRequest(w, r, logger, err)
			return
		}

		if err = handler.CheckInDeactivate(r.Context(), codeId); err != nil {
			reject(w, r, logger, "deactivate check-in code", err)
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

func DeleteCode(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(log, r)

		codeId, err := urlId(r, "codeID")
		if err != nil {
			badRequest(w, r, logger, err)
			return
		}

		if err = handler.CheckInDelete(r.Context(), codeId); err != nil {
			reject(w, r, logger, "delete check-in code", err)
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

func Profile(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(log, r)

		clinicId, err := urlId(r, "clinicID")
		if err != nil {
			badRequest(w, r, logger, err)
			return
		}

		clinic, err := handler.ClinicProfile(r.Context(), clinicId)
		if err != nil {
			reject(w, r, logger, "get clinic profile", err)
			return
		}

		render.JSON(w, r, response.Ok(clinic))
	}
}

func UpdateProfile(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(log, r)

		clinicId, err := urlId(r, "clinicID")
		if err != nil {
			badRequest(w, r, logger, err)
			return
		}

		var clinic entity.Clinic
		if err = render.Bind(r, &clinic); err != nil {
			badRequest(w, r, logger, err)
			return
		}
		clinic.Id = clinicId

		if err = handler.ClinicUpdate(r.Context(), &clinic); err != nil {
			reject(w, r, logger, "update clinic profile", err)
			return
		}
		logger.With(slog.Int64("clinic_id", clinicId)).Debug("clinic profile updated")

		render.JSON(w, r, response.Ok(nil))
	}
}

func Intakes(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(log, r)

		clinicId, err := urlId(r, "clinicID")
		if err != nil {
			badRequest(w, r, logger, err)
			return
		}

		subs, err := handler.IntakeList(r.Context(), clinicId)
		if err != nil {
			reject(w, r, logger, "list intakes", err)
			return
		}

		render.JSON(w, r, response.Ok(subs))
	}
}
