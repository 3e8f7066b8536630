package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/csmentor/csmentor/internal/backend"
	"github.com/csmentor/csmentor/internal/chat"
	"github.com/csmentor/csmentor/internal/config"
	"github.com/csmentor/csmentor/internal/events"
	"github.com/csmentor/csmentor/internal/notifications"
	"github.com/csmentor/csmentor/internal/session"
	"github.com/csmentor/csmentor/internal/storage"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "csmentor",
	Short: "Computer science mentor chat assistant",
	Long: `CS Mentor keeps named chat sessions with an AI teaching assistant.
Sessions persist across runs, deleted sessions can be restored, and
every question is answered by the configured Q&A backend.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

// app bundles the wired components every subcommand needs.
type app struct {
	cfg        *config.Config
	store      storage.Store
	broker     *events.Broker
	notifier   *notifications.Notifier
	repo       *session.Repository
	qa         *backend.Client
	controller *chat.Controller
}

// newApp loads configuration and wires the store, repository, backend
// client, and turn controller together.
func newApp() (*app, error) {
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(debug)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	broker := events.NewBroker()
	notifier := notifications.NewNotifier(
		notifications.WithTTL(cfg.Notifications.TTL),
		notifications.WithBroker(broker),
	)

	repo := session.NewRepository(store,
		session.WithNotifier(notifier),
		session.WithBroker(broker),
	)
	if err := repo.Load(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	qa := backend.NewClient(cfg.Backend.URL, backend.WithTimeout(cfg.Backend.Timeout))

	controller := chat.NewController(repo, qa,
		chat.WithNotifier(notifier),
		chat.WithBroker(broker),
		chat.WithMinRevealDelay(cfg.Chat.MinRevealDelay),
		chat.WithWarnBelow(cfg.Chat.WarnBelow),
	)

	return &app{
		cfg:        cfg,
		store:      store,
		broker:     broker,
		notifier:   notifier,
		repo:       repo,
		qa:         qa,
		controller: controller,
	}, nil
}

func (a *app) Close() {
	a.broker.Shutdown()
	if err := a.store.Close(); err != nil {
		log.Warn("Failed to close store", "error", err)
	}
}

// openStore picks the persistence backend configured under
// storage.backend.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "", "file":
		return storage.NewFileStore(cfg.Storage.Directory)
	case "sqlite":
		return storage.NewSQLiteStore(cfg.DatabasePath())
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}
