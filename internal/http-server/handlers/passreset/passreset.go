package passreset

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

// Core is the slice of the service the password-reset endpoints need. The
// realm picks the account family and token store; the flow is identical.
type Core interface {
	ResetRequest(ctx context.Context, realm entity.Realm, email string) (string, error)
	ResetVerify(ctx context.Context, realm entity.Realm, token string) error
	ResetApply(ctx context.Context, realm entity.Realm, token, newPassword string) error
}

const neutralMessage = "If the address is registered, a reset link has been sent"

func handlerLogger(log *slog.Logger, r *http.Request, realm entity.Realm) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.passreset"),
		slog.String("realm", string(realm)),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Forgot starts a reset. The response never reveals whether the address is
// known. The admin realm returns the token directly: a stand-in for email
// delivery on deployments without SMTP.
func Forgot(log *slog.Logger, handler Core, realm entity.Realm) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(log, r, realm)

		var req entity.ForgotRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(sl.Secret("email", req.Email))

		token, err := handler.ResetRequest(r.Context(), realm, req.Email)
		if err != nil {
			logger.Error("request password reset", sl.Err(err))
			status, resp := response.Reject(err)
			render.Status(r, status)
			render.JSON(w, r, resp)
			return
		}
		logger.Debug("password reset requested")

		resp := response.Ok(nil)
		if realm == entity.RealmAdmin && token != "" {
			resp = response.Ok(map[string]string{"token": token})
		}
		resp.StatusMessage = neutralMessage
		render.JSON(w, r, resp)
	}
}

// Verify gates rendering of the reset form; it does not consume the token.
func Verify(log *slog.Logger, handler Core, realm entity.Realm) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(log, r, realm)

		var req entity.ResetVerifyRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		if err := handler.ResetVerify(r.Context(), realm, req.Token); err != nil {
			logger.Error("verify reset token", sl.Err(err))
			status, resp := response.Reject(err)
			render.Status(r, status)
			render.JSON(w, r, resp)
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

// Reset consumes the token and sets the new password. A repeated submit of
// the same token answers with the generic invalid message.
func Reset(log *slog.Logger, handler Core, realm entity.Realm) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(log, r, realm)

		var req entity.ResetApplyRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(sl.Secret("token", req.Token))

		if err := handler.ResetApply(r.Context(), realm, req.Token, req.Password); err != nil {
			logger.Error("reset password", sl.Err(err))
			status, resp := response.Reject(err)
			render.Status(r, status)
			render.JSON(w, r, resp)
			return
		}
		logger.Info("password reset applied")

		render.JSON(w, r, response.Ok(nil))
	}
}
