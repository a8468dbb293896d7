package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/coffee-env/internal/api"
	"github.com/eugenenazirov/coffee-env/internal/application"
	"github.com/eugenenazirov/coffee-env/internal/config"
	"github.com/eugenenazirov/coffee-env/internal/environment"
	"github.com/eugenenazirov/coffee-env/internal/logging"
)

var (
	signalNotify = signal.Notify
	newLogger    = logging.New
)

// stringFlag remembers whether the user passed the flag, so an explicit
// empty value can still override lower-precedence sources.
type stringFlag struct {
	value *string
	set   bool
}

func (f *stringFlag) override() *string {
	if !f.set {
		return nil
	}
	return f.value
}

type cli struct {
	app   *kingpin.Application
	serve *kingpin.CmdClause
	show  *kingpin.CmdClause

	configFile       *string
	port             *string
	rateLimitRPS     *float64
	rateLimitBurst   *int
	production       *bool
	productionSet    bool
	apiServerURL     stringFlag
	auth0URL         stringFlag
	auth0Audience    stringFlag
	auth0ClientID    stringFlag
	auth0CallbackURL stringFlag
	format           *string
}

func newCLI() *cli {
	c := &cli{}
	c.app = kingpin.New("coffee-env", "Publishes the front-end environment record (API server and identity provider settings)")
	c.configFile = c.app.Flag("config", "Path to YAML configuration file").String()
	c.production = c.app.Flag("production", "Mark the deployment as production").IsSetByUser(&c.productionSet).Bool()
	c.apiServerURL.value = c.app.Flag("api-server-url", "Base URL of the backend API").IsSetByUser(&c.apiServerURL.set).String()
	c.auth0URL.value = c.app.Flag("auth0-url", "Identity provider domain URL").IsSetByUser(&c.auth0URL.set).String()
	c.auth0Audience.value = c.app.Flag("auth0-audience", "API identifier registered with the identity provider (an explicit empty value clears it)").IsSetByUser(&c.auth0Audience.set).String()
	c.auth0ClientID.value = c.app.Flag("auth0-client-id", "Registered client application identifier").IsSetByUser(&c.auth0ClientID.set).String()
	c.auth0CallbackURL.value = c.app.Flag("auth0-callback-url", "Redirect target after authentication").IsSetByUser(&c.auth0CallbackURL.set).String()

	c.serve = c.app.Command("serve", "Serve the environment over HTTP").Default()
	c.port = c.serve.Flag("port", "HTTP port exposed by the service").String()
	c.rateLimitRPS = c.serve.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	c.rateLimitBurst = c.serve.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	c.show = c.app.Command("show", "Print the resolved environment and exit")
	c.format = c.show.Flag("format", "Output format").Default("json").Enum("json", "js")

	return c
}

func (c *cli) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile:       *c.configFile,
		APIServerURL:     c.apiServerURL.override(),
		Auth0URL:         c.auth0URL.override(),
		Auth0Audience:    c.auth0Audience.override(),
		Auth0ClientID:    c.auth0ClientID.override(),
		Auth0CallbackURL: c.auth0CallbackURL.override(),
	}
	if *c.port != "" {
		overrides.Port = c.port
	}
	if *c.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = c.rateLimitRPS
	}
	if *c.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = c.rateLimitBurst
	}
	if c.productionSet {
		overrides.Production = c.production
	}
	return overrides
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "coffee-env: %v\n", err)
		os.Exit(1)
	}
}

// run parses args and executes the selected command. serve blocks until a
// shutdown signal arrives.
func run(args []string, stdout io.Writer) error {
	c := newCLI()
	command, err := c.app.Parse(args)
	if err != nil {
		return fmt.Errorf("parse arguments: %w", err)
	}

	cfg, err := config.Load(c.overrides())
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if command == c.show.FullCommand() {
		return writeEnvironment(stdout, cfg.Environment, *c.format)
	}

	logger, err := newLogger(cfg.Environment.Production)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	if err := app.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	return nil
}

func writeEnvironment(w io.Writer, env environment.Environment, format string) error {
	var out []byte
	var err error
	switch format {
	case "js":
		out, err = api.RenderModule(env)
	case "json":
		out, err = json.MarshalIndent(env, "", "  ")
		out = append(out, '\n')
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return fmt.Errorf("render environment: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info("shutting down server", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
