package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
	"vetgate/entity"
	"vetgate/internal/config"
	"vetgate/internal/http-server/handlers/admin"
	"vetgate/internal/http-server/handlers/checkin"
	"vetgate/internal/http-server/handlers/clinic"
	"vetgate/internal/http-server/handlers/errors"
	"vetgate/internal/http-server/handlers/passreset"
	"vetgate/internal/http-server/handlers/signup"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"vetgate/internal/http-server/middleware/adminauth"
	"vetgate/internal/http-server/middleware/timeout"
	"vetgate/lib/sl"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	adminauth.Credentials
	checkin.Core
	clinic.Core
	signup.Core
	passreset.Core
	admin.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Route("/checkin", func(ci chi.Router) {
			ci.Post("/verify", checkin.Verify(log, handler))
			ci.Post("/intake", checkin.Intake(log, handler))
		})
		rootApi.Route("/signup", func(su chi.Router) {
			su.Post("/verify", signup.Verify(log, handler))
			su.Post("/register", signup.Register(log, handler))
		})
		rootApi.Route("/clinic", func(cl chi.Router) {
			cl.Route("/{clinicID}", func(one chi.Router) {
				one.Post("/codes", clinic.GenerateCode(log, handler))
				one.Get("/codes", clinic.ListCodes(log, handler))
				one.Get("/profile", clinic.Profile(log, handler))
				one.Put("/profile", clinic.UpdateProfile(log, handler))
				one.Get("/intakes", clinic.Intakes(log, handler))
			})
			cl.Post("/codes/{codeID}/deactivate", clinic.DeactivateCode(log, handler))
			cl.Delete("/codes/{codeID}", clinic.DeleteCode(log, handler))
			cl.Route("/password", func(pw chi.Router) {
				pw.Post("/forgot", passreset.Forgot(log, handler, entity.RealmClinic))
				pw.Post("/verify", passreset.Verify(log, handler, entity.RealmClinic))
				pw.Post("/reset", passreset.Reset(log, handler, entity.RealmClinic))
			})
		})
		rootApi.Route("/admin", func(ad chi.Router) {
			// forgot/verify/reset stay outside the credential gate: they are
			// how a locked-out admin gets back in
			ad.Route("/password", func(pw chi.Router) {
				pw.Post("/forgot", passreset.Forgot(log, handler, entity.RealmAdmin))
				pw.Post("/verify", passreset.Verify(log, handler, entity.RealmAdmin))
				pw.Post("/reset", passreset.Reset(log, handler, entity.RealmAdmin))
			})
			ad.Group(func(gated chi.Router) {
				gated.Use(adminauth.New(log, handler))
				gated.Post("/signup-codes", signup.Issue(log, handler))
				gated.Get("/signup-codes", signup.List(log, handler))
				gated.Post("/cleanup", admin.Cleanup(log, handler))
			})
		})
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
