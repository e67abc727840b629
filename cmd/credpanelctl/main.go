package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/credpanel/internal/adapter/driven/auth"
	"github.com/ericfisherdev/credpanel/internal/adapter/driven/cipher"
	"github.com/ericfisherdev/credpanel/internal/adapter/driven/mailer"
	sqliteadapter "github.com/ericfisherdev/credpanel/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/credpanel/internal/application"
	"github.com/ericfisherdev/credpanel/internal/config"
)

var (
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "credpanelctl",
	Short: "Administer a credpanel database.",
	Long: `credpanelctl runs maintenance tasks against the database configured by the
CREDPANEL_* environment variables (or a .env file).

Examples:
  # Apply pending schema migrations
  credpanelctl migrate

  # Load demo users, clients and credentials
  credpanelctl seed

  # Create an account
  credpanelctl user add --name "Jane Smith" --email jane@company.com --password s3cret`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log service activity")

	rootCmd.AddCommand(migrateCmd, seedCmd, userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗")+" "+err.Error())
		os.Exit(1)
	}
}

// app bundles the services a command needs. close releases the database.
type app struct {
	auth        *application.AuthService
	clients     *application.ClientService
	credentials *application.CredentialService
	close       func()
}

// openDB loads configuration, opens the database and applies migrations.
func openDB(ctx context.Context) (*config.Config, *sqliteadapter.DB, error) {
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return nil, nil, err
	}

	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return cfg, db, nil
}

// newApp wires the application services over a migrated database, the same
// way the server does.
func newApp(ctx context.Context) (*app, error) {
	cfg, db, err := openDB(ctx)
	if err != nil {
		return nil, err
	}

	var out io.Writer = io.Discard
	if verbose {
		out = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(out, nil))

	fieldCipher, err := cipher.New(cfg.SecretKey, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	users := sqliteadapter.NewUserRepo(db)
	clients := sqliteadapter.NewClientRepo(db)
	credentials := sqliteadapter.NewCredentialRepo(db)

	return &app{
		auth: application.NewAuthService(
			users,
			auth.NewBcryptHasher(0),
			auth.NewJWTIssuer(cfg.JWTSecret, cfg.TokenTTL, cfg.ResetTokenTTL),
			mailer.NewLogMailer(logger),
			cfg.ResetURL,
			logger,
		),
		clients:     application.NewClientService(clients, logger),
		credentials: application.NewCredentialService(credentials, clients, users, fieldCipher, logger),
		close: func() {
			if err := db.Close(); err != nil {
				fmt.Fprintln(os.Stderr, color.YellowString("⚠")+" close database: "+err.Error())
			}
		},
	}, nil
}
