package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/drac2606/django-data-monitor/internal/config"
	"github.com/drac2606/django-data-monitor/internal/database"
	"github.com/drac2606/django-data-monitor/internal/dto"
	"github.com/drac2606/django-data-monitor/internal/models"
	"github.com/drac2606/django-data-monitor/internal/repositories"
	"github.com/drac2606/django-data-monitor/internal/server"
	"github.com/drac2606/django-data-monitor/internal/services"
	"github.com/drac2606/django-data-monitor/internal/validation"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.Initialize(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close()

			srv, err := server.New(cfg, db, nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}
}

func newReportCmd() *cobra.Command {
	var page string

	cmd := &cobra.Command{
		Use:       "report <posts|reservations>",
		Short:     "Fetch the upstream records and print one dashboard page as JSON",
		ValidArgs: []string{models.SourcePosts, models.SourceReservations},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			view, err := buildReport(cmd.Context(), cfg, args[0], page)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), view)
		},
	}

	cmd.Flags().StringVarP(&page, "page", "p", "1", "Table page to include")

	return cmd
}

// buildReport runs one report without a database; metrics go to a throwaway registry
func buildReport(ctx context.Context, cfg *config.Config, source, page string) (any, error) {
	metrics := services.NewPrometheusMetrics(prometheus.NewRegistry())
	events := services.NewAuditLogger(slog.Default())
	breaker := services.NewUpstreamCircuitBreaker(&cfg.Upstream, metrics, events)
	dashboard := services.NewDashboardService(services.NewUpstreamService(&cfg.Upstream, breaker, metrics, events), metrics, events)

	switch source {
	case models.SourcePosts:
		return dashboard.PostsReport(ctx, page)
	case models.SourceReservations:
		return dashboard.ReservationsReport(ctx, page)
	}
	return nil, fmt.Errorf("%w: %q", services.ErrUnknownSource, source)
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations (postgres) or auto-migrate the schema (sqlite)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if cfg.Database.Driver != config.DriverPostgres {
				db, err := database.Initialize(cfg)
				if err != nil {
					return err
				}
				return db.Close()
			}

			sqlDB, err := database.OpenPostgres(cfg.Database.URL())
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			runner := database.NewMigrationRunner(sqlDB, cfg.Database.MigrationsPath)
			if err := runner.Migrate(cmd.Context()); err != nil {
				return err
			}

			version, dirty, err := runner.Version()
			if err != nil {
				return fmt.Errorf("failed to read migration status: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}
}

func newCreateUserCmd() *cobra.Command {
	var req dto.CreateUserRequest

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a dashboard user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validation.GetValidator().Struct(req); err != nil {
				return fmt.Errorf("invalid user: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.Initialize(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			authService := services.NewAuthService(
				repositories.NewUserRepository(db.DB),
				repositories.NewAuditLogRepository(db.DB),
				repositories.NewBlacklistedTokenRepository(db.DB),
				services.NewPasswordService(cfg.Security.BCryptCost),
				services.NewTokenService(&cfg.JWT),
				nil,
				slog.Default(),
			)

			user, err := authService.CreateUser(&req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address used to sign in")
	cmd.Flags().StringVar(&req.Password, "password", "", "Initial password")
	cmd.Flags().StringVar(&req.Role, "role", models.RoleViewer, "Role: viewer or admin")
	cmd.Flags().StringSliceVar(&req.Permissions, "permissions", nil, "Permission codenames, e.g. dashboard.index_viewer")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
