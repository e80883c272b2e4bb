package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jbweber/gigas/internal/api"
	"github.com/jbweber/gigas/internal/config"
	"github.com/jbweber/gigas/internal/events"
	"github.com/jbweber/gigas/internal/metrics"
	"github.com/jbweber/gigas/internal/transaction"
	"github.com/jbweber/gigas/internal/vm"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Global flags
var (
	configPath  string
	endpoint    string
	user        string
	timeoutSecs int
	verbose     bool
	metricsAddr string
	natsURL     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gigas",
	Short: "Gigas - cloud VM management tool",
	Long: `Gigas is a CLI tool for managing virtual machines on the Gigas cloud.

It provides commands to create, inspect, and delete virtual machines
through the provider's HTTP API. Provisioning and teardown are
asynchronous on the provider side; commands block until the queued
transaction reaches a terminal state.

Credentials are read from a config file or the GIGAS_API_USER and
GIGAS_API_PASSWORD environment variables.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "API endpoint (overrides config)")
	rootCmd.PersistentFlags().StringVar(&user, "user", "", "API user (overrides config)")
	rootCmd.PersistentFlags().IntVar(&timeoutSecs, "timeout", 0, "request timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")
	rootCmd.PersistentFlags().StringVar(&natsURL, "nats-url", "", "publish lifecycle events to this NATS server")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(waitCmd)
	rootCmd.AddCommand(versionCmd)
}

// app bundles the wired-up components a command needs.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	service *vm.Service
	waiter  *transaction.Waiter
	events  *events.Publisher
}

// newApp loads the configuration, applies flag overrides, and wires the
// session, waiter, and service together.
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	// Flags take precedence over file and environment.
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if user != "" {
		cfg.User = user
	}
	if timeoutSecs > 0 {
		cfg.RequestTimeoutSeconds = timeoutSecs
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if natsURL != "" {
		cfg.NATSURL = natsURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := newLogger(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		serveMetrics(cfg.MetricsAddr, log)
	}

	session, err := api.NewSession(cfg.Endpoint, cfg.User, cfg.Password,
		api.WithTimeout(cfg.RequestTimeout()),
		api.WithLogger(log),
		api.WithMetrics(m))
	if err != nil {
		return nil, err
	}

	waiter := transaction.NewWaiter(session,
		transaction.WithInterval(cfg.PollInterval()),
		transaction.WithMaxAttempts(cfg.MaxPollAttempts),
		transaction.WithLogger(log),
		transaction.WithMetrics(m))

	opts := []vm.Option{vm.WithLogger(log)}
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		publisher, err = events.Connect(cfg.NATSURL, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		opts = append(opts, vm.WithEvents(publisher))
	}

	return &app{
		cfg:     cfg,
		log:     log,
		service: vm.NewService(session, waiter, opts...),
		waiter:  waiter,
		events:  publisher,
	}, nil
}

// Close flushes the event connection and the logger.
func (a *app) Close() {
	if a.events != nil {
		a.events.Close()
	}
	_ = a.log.Sync()
}

// newLogger builds the CLI logger: quiet JSON by default, human-readable
// debug output with --verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// serveMetrics exposes /metrics in the background so long-running waits
// can be scraped.
func serveMetrics(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

// commandContext returns a context cancelled by Ctrl-C, so a poll loop can
// end with a Cancelled outcome instead of dying mid-request.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a virtual machine from a spec file",
	Long: `Create a new virtual machine from a YAML spec file.

The spec file defines the machine's resources (memory, CPUs, disk sizes)
and the template to provision from:

  hostname: web-01
  memory_mb: 1024
  cpu_count: 2
  primary_disk_size_gb: 40
  swap_disk_size_gb: 2
  template_id: 70

The command blocks until provisioning finishes and prints the resulting
machine, addresses included.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateOutputFlags(); err != nil {
			return err
		}

		spec, err := vm.LoadSpec(specFile)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := commandContext()
		defer stop()

		fmt.Printf("Creating virtual machine %s...\n", spec.Hostname)
		m, err := a.service.Create(ctx, spec)
		if err != nil {
			return fmt.Errorf("failed to create virtual machine: %w", err)
		}

		fmt.Println("✓ Virtual machine created")
		return printVM(m)
	},
}

var specFile string

func init() {
	createCmd.Flags().StringVarP(&specFile, "filename", "f", "", "path to the machine spec file (required)")
	_ = createCmd.MarkFlagRequired("filename")
}

var deleteCmd = &cobra.Command{
	Use:   "delete <vm-id>",
	Short: "Delete a virtual machine",
	Long: `Delete a virtual machine by id.

The command blocks until the provider confirms the teardown transaction.
If the transaction fails or times out the machine may still exist; the
command can simply be run again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := commandContext()
		defer stop()

		m, err := a.service.Info(ctx, api.ID(args[0]))
		if err != nil {
			return fmt.Errorf("failed to get virtual machine: %w", err)
		}

		fmt.Printf("Deleting virtual machine %s (%s)...\n", m.ID, m.Hostname)
		if err := a.service.Delete(ctx, m); err != nil {
			return fmt.Errorf("failed to delete virtual machine: %w", err)
		}

		fmt.Println("✓ Virtual machine deleted")
		return nil
	},
}

var waitCmd = &cobra.Command{
	Use:   "wait <transaction-id>",
	Short: "Wait for a provider transaction to finish",
	Long: `Wait for a queued provider transaction to reach a terminal state.

Useful when a create or delete was interrupted and the transaction id is
known from the logs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := commandContext()
		defer stop()

		outcome, err := a.waiter.Wait(ctx, api.NewOperation("wait"), api.ID(args[0]))
		if err != nil {
			return fmt.Errorf("failed to wait for transaction: %w", err)
		}

		fmt.Printf("Transaction %s: %s\n", args[0], outcome)
		if outcome != transaction.OutcomeComplete && outcome != transaction.OutcomeNotFound {
			return fmt.Errorf("transaction did not complete")
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gigas %s (commit: %s)\n", version, commit)
	},
}
