package accounts

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-accounts/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	repository "github.com/goliatone/go-repository-bun"
)

//go:embed views
var viewsFS embed.FS

// Server wires the API controller, the token middleware, and the fiber app.
type Server struct {
	app          *fiber.App
	cfg          Config
	controller   *APIController
	auther       *Auther
	Logger       Logger
	ErrorHandler fiber.ErrorHandler
}

type ServerOption func(*Server) *Server

func WithServerLogger(logger Logger) ServerOption {
	return func(s *Server) *Server {
		s.Logger = logger
		if s.controller != nil {
			s.controller.Logger = logger
		}
		return s
	}
}

func NewServer(cfg Config, repo RepositoryManager, auther *Auther, opts ...ServerOption) *Server {
	s := &Server{
		cfg:    cfg,
		auther: auther,
		Logger: defLogger{},
	}

	s.ErrorHandler = s.defaultErrHandler

	for _, opt := range opts {
		s = opt(s)
	}

	s.controller = NewAPIController(
		WithControllerRepo(repo),
		WithControllerAuther(auther),
		WithControllerLogger(s.Logger),
	)

	if key := cfg.GetContextKey(); key != "" {
		s.controller.ContextKey = key
	}

	s.app = fiber.New(fiber.Config{
		Views:        s.viewEngine(),
		ErrorHandler: s.handleError,
	})

	s.app.Use(cors.New())
	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)

	s.registerRoutes()

	return s
}

// App exposes the underlying fiber app for embedding and tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) viewEngine() *django.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic("unable to scope embedded views: " + err.Error())
	}
	return django.NewFileSystem(http.FS(sub), ".html")
}

func (s *Server) registerRoutes() {
	routes := s.controller.Routes
	protected := s.protectedRoute()

	s.app.Get(routes.Home, s.controller.Home)

	s.app.Post(routes.Signup, s.controller.SignupPost)
	s.app.Post(routes.Login, s.controller.LoginPost)
	s.app.Post(routes.Logout, protected, s.controller.LogoutPost)

	s.app.Post(routes.SubUser, protected, s.controller.SubUserCreate)
	s.app.Get(routes.SubUsers, protected, s.controller.SubUserList)
	s.app.Put(routes.SubUserOne, protected, s.controller.SubUserUpdate)
	s.app.Delete(routes.SubUserOne, protected, s.controller.SubUserDelete)
}

// Serve blocks until ctx is done, then drains in flight requests.
func (s *Server) Serve(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		s.Logger.Info("shutting down http server")
		if err := s.app.ShutdownWithTimeout(10 * time.Second); err != nil {
			s.Logger.Error("server shutdown: ", "error", err)
		}
	}()

	s.Logger.Info("http server listening", "addr", addr)

	return s.app.Listen(addr)
}

func (s *Server) protectedRoute() fiber.Handler {
	return jwtware.New(jwtware.Config{
		TokenValidator: jwtwareValidator{s.auther.TokenService()},
		SigningKey: jwtware.SigningKey{
			Key:    []byte(s.cfg.GetSigningKey()),
			JWTAlg: s.cfg.GetSigningMethod(),
		},
		AuthScheme:  s.cfg.GetAuthScheme(),
		ContextKey:  s.controller.ContextKey,
		TokenLookup: s.cfg.GetTokenLookup(),
	})
}

// jwtwareValidator bridges the TokenService interface to the middleware's
// locally declared validator type.
type jwtwareValidator struct {
	service TokenService
}

func (v jwtwareValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.Logger.Debug(
		"request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start).String(),
	)
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	return s.ErrorHandler(c, err)
}

func (s *Server) defaultErrHandler(c *fiber.Ctx, err error) error {
	if repository.IsRecordNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "User not found",
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"message": fiberErr.Message,
		})
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	switch richErr.Category {
	case errors.CategoryAuth:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": richErr.Message,
		})
	case errors.CategoryValidation, errors.CategoryConflict:
		code := richErr.Code
		if code == 0 {
			code = fiber.StatusBadRequest
		}
		return c.Status(code).JSON(fiber.Map{
			"message": richErr.Message,
		})
	default:
		s.Logger.Error(
			"request error",
			"error", richErr.Message,
			"category", richErr.Category,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal Server Error",
		})
	}
}
