package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/kitwms/internal/api"
	"github.com/erazemk/kitwms/internal/auth"
	"github.com/erazemk/kitwms/internal/config"
	"github.com/erazemk/kitwms/internal/db"
	"github.com/erazemk/kitwms/internal/events"
	"github.com/erazemk/kitwms/internal/packing"
	"github.com/erazemk/kitwms/internal/store"
)

const usage = `Usage: kitwms [flags]

Settings are read from kitwms.env (or -config) and KITWMS_* environment
variables. Flags override both.

Flags:
  -c, -config <path>      settings file (default: kitwms.env if present)
  -d, -db <path>          SQLite database path (default: kitwms.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        owner username on first run (default: owner)
  -l, -log <path>         log file path (default: stdout/stderr only)
  -h, -help               show this help and exit
`

type flags struct {
	config, db, addr, user, log string
}

func parseFlags(args []string) (flags, error) {
	fs := flag.NewFlagSet("kitwms", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stdout, usage) }

	var f flags
	for _, v := range []struct {
		p           *string
		short, long string
	}{
		{&f.config, "c", "config"},
		{&f.db, "d", "db"},
		{&f.addr, "a", "addr"},
		{&f.user, "u", "user"},
		{&f.log, "l", "log"},
	} {
		fs.StringVar(v.p, v.short, "", "")
		fs.StringVar(v.p, v.long, "", "")
	}

	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return f, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return f, nil
}

// apply overrides cfg with every flag that was given.
func (f flags) apply(cfg *config.Config) {
	for _, o := range []struct {
		dst *string
		val string
	}{
		{&cfg.DB, f.db},
		{&cfg.Addr, f.addr},
		{&cfg.AdminUser, f.user},
		{&cfg.Log, f.log},
	} {
		if o.val != "" {
			*o.dst = o.val
		}
	}
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	f.apply(cfg)

	log, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	// Auto-init on first run.
	if _, err := os.Stat(cfg.DB); os.IsNotExist(err) {
		database, password, err := initDatabase(ctx, cfg.DB, cfg.AdminUser)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()
		printInitResult(cfg.DB, cfg.AdminUser, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		return err
	}
	log.Info("database ready", "path", cfg.DB)

	secret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading jwt secret: %w", err)
	}

	var pub events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			return err
		}
		defer amqpPub.Close()
		pub = amqpPub
		log.Info("publishing events", "exchange", cfg.AMQPExchange)
	}

	issuer := auth.NewIssuer(secret, cfg.TokenTTL)
	packer := packing.NewService(database, pub, log)

	mux := http.NewServeMux()
	mux.Handle("/api/", api.NewRouter(database, issuer, packer))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-sigCtx.Done()
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server forced to shutdown", "error", err)
		}
	}()

	log.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	log.Info("server stopped, closing database")
	return nil
}
