package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// envConfig reads runtime options from the environment, .env included.
type envConfig struct {
	port            string
	signingKey      string
	dsn             string
	tokenExpiration int
	normalizeEmails bool
	issuer          string
	audience        []string
}

func configFromEnv() (*envConfig, error) {
	cfg := &envConfig{
		port:            getenv("PORT", "3000"),
		signingKey:      os.Getenv("JWT_SECRET"),
		dsn:             getenv("DSN", "file:accounts.db"),
		tokenExpiration: 72,
		normalizeEmails: false,
		issuer:          getenv("JWT_ISSUER", "go-accounts"),
	}

	if cfg.signingKey == "" {
		return nil, errors.New("JWT_SECRET is required", errors.CategoryBadInput)
	}

	if raw := os.Getenv("TOKEN_EXPIRATION"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "TOKEN_EXPIRATION must be an integer number of hours")
		}
		cfg.tokenExpiration = hours
	}

	if raw := os.Getenv("NORMALIZE_EMAILS"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "NORMALIZE_EMAILS must be a boolean")
		}
		cfg.normalizeEmails = enabled
	}

	if raw := os.Getenv("JWT_AUDIENCE"); raw != "" {
		for _, aud := range strings.Split(raw, ",") {
			if aud = strings.TrimSpace(aud); aud != "" {
				cfg.audience = append(cfg.audience, aud)
			}
		}
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func (c *envConfig) GetSigningKey() string    { return c.signingKey }
func (c *envConfig) GetSigningMethod() string { return "HS256" }
func (c *envConfig) GetContextKey() string    { return "account" }
func (c *envConfig) GetTokenExpiration() int  { return c.tokenExpiration }
func (c *envConfig) GetTokenLookup() string   { return "header:Authorization" }
func (c *envConfig) GetAuthScheme() string    { return "Bearer" }
func (c *envConfig) GetIssuer() string        { return c.issuer }
func (c *envConfig) GetAudience() []string    { return c.audience }

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := configFromEnv()
	if err != nil {
		return err
	}

	lgr.GetLogger("config").Debug("runtime config", "config", print.MaybeHighlightJSON(map[string]any{
		"port":             cfg.port,
		"dsn":              cfg.dsn,
		"token_expiration": cfg.tokenExpiration,
		"normalize_emails": cfg.normalizeEmails,
		"issuer":           cfg.issuer,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.dsn)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to open database")
	}
	defer sqldb.Close()

	db := bun.NewDB(sqldb, sqlitedialect.New())

	repo := accounts.NewRepositoryManager(db, accounts.WithNormalizedEmails(cfg.normalizeEmails))
	repo.MustValidate()

	if err := repo.Bootstrap(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to bootstrap schema")
	}

	auther := accounts.NewAuthenticator(repo, cfg).
		WithLogger(lgr.GetLogger("auth"))

	srv := accounts.NewServer(cfg, repo, auther,
		accounts.WithServerLogger(lgr.GetLogger("http")),
	)

	return srv.Serve(ctx, ":"+cfg.port)
}
