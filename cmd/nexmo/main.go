package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nexmosms/internal/config"
	"nexmosms/internal/gatewaytwin"
	"nexmosms/internal/models"
	"nexmosms/internal/tracing"
	"nexmosms/pkg/nexmo"
	"nexmosms/pkg/nexmo/types"

	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// sandboxCredential is used for the local gateway when none is configured
const sandboxCredential = "sandbox"

var errUsage = errors.New("usage")

const usage = `Usage: nexmo [global flags] <command> [command flags]

Commands:
  balance                          show the account balance
  pricing       -country CC        show the outbound SMS price for a country
  dialing-code  -country CC        show the dialing prefix for a country
  numbers                          list numbers owned by the account
  search        -country CC [-pattern P]
  buy           -country CC -msisdn N
  cancel        -country CC -msisdn N
  send          -to N -from F -text T [-unicode auto|on|off]
  send-binary   -to N -from F -body HEX [-udh HEX]
  wap           -to N -from F -title T -url U [-validity D]
  serve                            receive inbound messages and receipts

Global flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app is the wiring shared by every subcommand.
type app struct {
	cfg        *models.Config
	configPath string
	logger     *logrus.Logger
	account    *nexmo.AccountClient
	messages   *nexmo.MessageClient
	out        io.Writer
	raw        bool
	verbose    bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("nexmo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "Path to a JSON or YAML configuration file (default: environment only)")
	verbose := fs.Bool("verbose", false, "Enable debug logging")
	sandbox := fs.Bool("sandbox", false, "Run against an in-process gateway instead of the real API")
	raw := fs.Bool("raw", false, "Dump results as Go values")
	version := fs.Bool("version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errUsage
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if *version {
		fmt.Fprintf(stdout, "nexmo %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		return nil
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	name, cmdArgs := fs.Arg(0), fs.Args()[1:]
	command, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		fs.Usage()
		return errUsage
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(stderr)

	cfg, err := loadConfig(*configPath, *sandbox)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyLogLevel(logger, cfg.LogLevel, *verbose)

	if *sandbox {
		twin := gatewaytwin.Start(gatewaytwin.New(
			gatewaytwin.DefaultState(cfg.Gateway.APIKey, cfg.Gateway.APISecret), logger))
		defer twin.Close()
		cfg.Gateway.BaseURL = twin.URL()
		logger.WithField("base_url", twin.URL()).Info("Using sandbox gateway")
	}

	tracingManager := tracing.NewTracingManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Tracing.ShutdownTimeoutSec)*time.Second)
		defer cancel()
		if err := tracingManager.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	creds := types.Credentials{Key: cfg.Gateway.APIKey, Secret: cfg.Gateway.APISecret}
	transport := nexmo.NewHTTPTransport(&http.Client{
		Timeout: time.Duration(cfg.Gateway.TimeoutSec) * time.Second,
	}, logger)

	a := &app{
		cfg:        cfg,
		configPath: *configPath,
		logger:     logger,
		account:    nexmo.NewAccountClient(creds, cfg.Gateway.BaseURL, nexmo.WithLogger(logger), nexmo.WithTransport(transport)),
		messages:   nexmo.NewMessageClient(creds, cfg.Gateway.BaseURL, nexmo.WithLogger(logger), nexmo.WithTransport(transport)),
		out:        stdout,
		raw:        *raw,
		verbose:    *verbose,
	}

	return command(ctx, a, cmdArgs)
}

// loadConfig reads the config file when one is given and the environment
// otherwise. The sandbox accepts any credentials, so it supplies its own
// when none are configured.
func loadConfig(path string, sandbox bool) (*models.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	if !sandbox {
		return config.FromEnvironment()
	}

	cfg := config.Default()
	cfg.Gateway.APIKey = sandboxCredential
	cfg.Gateway.APISecret = sandboxCredential
	return config.Finalize(cfg)
}

func applyLogLevel(logger *logrus.Logger, level string, verbose bool) {
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
		return
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Invalid log level %q, defaulting to info", level)
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
}
