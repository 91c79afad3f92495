package admin

import (
	"context"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"vetgate/entity"
	"vetgate/lib/api/response"
	"vetgate/lib/sl"
)

type Core interface {
	Cleanup(ctx context.Context) (*entity.CleanupReport, error)
}

// Cleanup deletes expired and consumed rows across every token family.
// Expiry is otherwise lazy; this is the one explicit sweep.
func Cleanup(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.admin"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		report, err := handler.Cleanup(r.Context())
		if err != nil {
			logger.Error("cleanup", sl.Err(err))
			status, resp := response.Reject(err)
			render.Status(r, status)
			render.JSON(w, r, resp)
			return
		}

		render.JSON(w, r, response.Ok(report))
	}
}
