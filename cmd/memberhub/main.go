package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/scsaalabs/memberhub/internal/account"
	"github.com/scsaalabs/memberhub/internal/announcement"
	"github.com/scsaalabs/memberhub/internal/billing"
	"github.com/scsaalabs/memberhub/internal/clock"
	"github.com/scsaalabs/memberhub/internal/config"
	"github.com/scsaalabs/memberhub/internal/dashboard"
	"github.com/scsaalabs/memberhub/internal/event"
	"github.com/scsaalabs/memberhub/internal/membership"
	"github.com/scsaalabs/memberhub/internal/migration"
	"github.com/scsaalabs/memberhub/internal/observability"
	"github.com/scsaalabs/memberhub/internal/payment"
	"github.com/scsaalabs/memberhub/internal/receipt"
	"github.com/scsaalabs/memberhub/internal/redis"
	"github.com/scsaalabs/memberhub/internal/server"
	"github.com/scsaalabs/memberhub/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "memberhub",
		Short:   "MemberHub CLI",
		Version: readVersionFromEnv(),
	}
	root.AddCommand(newMigrateCmd(), newServeCmd(), newAllCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate()
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the membership API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			runServe()
			return nil
		},
	}
}

func newAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run migrations, then start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrate(); err != nil {
				return err
			}
			runServe()
			return nil
		},
	}
}

func runMigrate() error {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		migration.Module,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("migrate failed: %w", err)
	}
	_ = app.Stop(context.Background())
	return nil
}

func runServe() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		redis.Module,
		account.Module,
		membership.Module,
		payment.Module,
		billing.Module,
		event.Module,
		announcement.Module,
		dashboard.Module,
		receipt.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func readVersionFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("APP_VERSION")); v != "" {
		return v
	}
	return "dev"
}
