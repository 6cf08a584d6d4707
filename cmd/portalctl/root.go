package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/MrEthical07/portalauth"
	"github.com/MrEthical07/portalauth/authapi"
	"github.com/MrEthical07/portalauth/internal/devauth"
	"github.com/MrEthical07/portalauth/storage"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	envFile     string
	backend     string
	file        string
	redisAddr   string
	redisPrefix string
	apiURL      string
	devAuth     bool
	verbose     bool
}

// app is the state shared by every subcommand of one invocation.
type app struct {
	opts   options
	out    io.Writer
	logger *zap.Logger
	store  *portalauth.SessionStore
	api    *authapi.Client

	closers []func()
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "portalctl",
		Short: "Inspect and drive placement portal sessions",
		Long: `portalctl opens one view over the portal's session storage and runs a
single operation against it: log in, register, open a demo session, log out,
report status, check a route guard, or watch for changes made by other views.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd); err != nil {
				a.close()
				return err
			}
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.opts.envFile, "env-file", ".env", "dotenv file loaded before reading PORTAL_* variables")
	f.StringVar(&a.opts.backend, "storage", "file", "session storage backend (file, redis)")
	f.StringVar(&a.opts.file, "file", defaultSessionFile(), "session file for --storage file")
	f.StringVar(&a.opts.redisAddr, "redis-addr", "localhost:6379", "Redis address for --storage redis (or PORTALCTL_REDIS_ADDR)")
	f.StringVar(&a.opts.redisPrefix, "redis-prefix", "portal", "Redis key prefix for --storage redis")
	f.StringVar(&a.opts.apiURL, "api", authapi.DefaultBaseURL, "auth API base URL (or PORTALCTL_API_URL)")
	f.BoolVar(&a.opts.devAuth, "dev-auth", false, "serve an in-process auth API with demo accounts instead of --api")
	f.BoolVarP(&a.opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newDemoCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newGuardCmd(a),
		newWatchCmd(a),
	)
	return root
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".portalctl-session.json"
	}
	return filepath.Join(dir, "portalctl", "session.json")
}

func (a *app) open(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()

	if err := godotenv.Load(a.opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", a.opts.envFile, err)
	}
	a.envOverride(cmd, "redis-addr", "PORTALCTL_REDIS_ADDR", &a.opts.redisAddr)
	a.envOverride(cmd, "api", "PORTALCTL_API_URL", &a.opts.apiURL)

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if a.opts.verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	cfg, err := portalauth.ConfigFromEnv()
	if err != nil {
		return err
	}

	st, err := a.openStorage()
	if err != nil {
		return err
	}

	if a.opts.devAuth {
		url, err := a.startDevAuth(cmd)
		if err != nil {
			return err
		}
		a.opts.apiURL = url
	}
	a.api = authapi.NewClient(a.opts.apiURL)

	store, err := portalauth.New().
		WithConfig(cfg).
		WithStorage(st).
		WithNavigator(printNavigator{out: a.out}).
		WithLogger(logger).
		Build()
	if err != nil {
		return err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)
	return nil
}

// envOverride applies an environment variable to a flag the user left unset.
func (a *app) envOverride(cmd *cobra.Command, flag, key string, dst *string) {
	if cmd.Flags().Changed(flag) {
		return
	}
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (a *app) openStorage() (storage.Storage, error) {
	switch a.opts.backend {
	case "file":
		return storage.NewFile(a.opts.file)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: a.opts.redisAddr})
		a.closers = append(a.closers, func() { _ = client.Close() })
		return storage.NewRedis(client, a.opts.redisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", a.opts.backend)
	}
}

func (a *app) startDevAuth(cmd *cobra.Command) (string, error) {
	local, err := devauth.NewLocal(cmd.Context(), a.logger.Named("devauth"))
	if err != nil {
		return "", err
	}
	a.closers = append(a.closers, local.Close)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	mux := http.NewServeMux()
	mux.Handle("/api/auth/", http.StripPrefix("/api/auth", local.Router()))
	srv := &http.Server{Handler: mux}
	go func() { _ = srv.Serve(ln) }()
	a.closers = append(a.closers, func() { _ = srv.Close() })

	return "http://" + ln.Addr().String() + "/api/auth", nil
}

// run wraps a subcommand body so the view is closed whether or not it fails.
// Cobra skips post-run hooks after an error.
func (a *app) run(fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.close()
		return fn(cmd.Context(), args)
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// printNavigator reports navigation instead of performing it.
type printNavigator struct {
	out io.Writer
}

func (n printNavigator) Navigate(_ context.Context, path string) error {
	fmt.Fprintf(n.out, "-> navigate %s\n", path)
	return nil
}

func (n printNavigator) HardRedirect(path string) {
	fmt.Fprintf(n.out, "-> redirect %s\n", path)
}
