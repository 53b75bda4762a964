package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/postosaude/clinic/internal/config"
	"github.com/postosaude/clinic/internal/domain/post"
	"github.com/postosaude/clinic/internal/platform/auth"
	"github.com/postosaude/clinic/internal/platform/db"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "clinic-server",
		Short:        "Health post clinic API server",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(postCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _ := cmd.Flags().GetInt("to")
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			migrator, closePool, err := openMigrator(ctx, dir)
			if err != nil {
				return err
			}
			defer closePool()

			count, err := migrator.UpTo(ctx, target)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().Int("to", 0, "Apply migrations up to this version (0 applies all)")
	upCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			migrator, closePool, err := openMigrator(ctx, dir)
			if err != nil {
				return err
			}
			defer closePool()

			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(statusCmd)

	return cmd
}

func openMigrator(ctx context.Context, dir string) (*db.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}

	fsys := db.EmbeddedMigrations()
	if dir != "" {
		fsys = os.DirFS(dir)
	}
	return db.NewMigrator(pool, fsys), pool.Close, nil
}

func postCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Manage health posts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a health post and its login",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &post.RegisterRequest{}
			req.Name, _ = cmd.Flags().GetString("name")
			req.Login, _ = cmd.Flags().GetString("login")
			req.Password, _ = cmd.Flags().GetString("password")
			if phone, _ := cmd.Flags().GetString("phone"); phone != "" {
				req.Phone = &phone
			}
			if address, _ := cmd.Flags().GetString("address"); address != "" {
				req.Address = &address
			}
			if req.Password == "" {
				req.Password = os.Getenv("POST_PASSWORD")
			}

			var missing []string
			for _, f := range []struct{ flag, value string }{
				{"--name", req.Name},
				{"--login", req.Login},
				{"--password", req.Password},
			} {
				if strings.TrimSpace(f.value) == "" {
					missing = append(missing, f.flag)
				}
			}
			if len(missing) > 0 {
				return fmt.Errorf("required: %s", strings.Join(missing, ", "))
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			tokens := auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.JWTTTL, cfg.JWTIssuer)
			p, err := post.NewService(post.NewRepo(pool), tokens).Register(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Post %q created with id %s (login %s)\n", p.Name, p.ID, p.Login)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Post name")
	createCmd.Flags().String("login", "", "Login used to authenticate as the post")
	createCmd.Flags().String("password", "", "Password (defaults to $POST_PASSWORD)")
	createCmd.Flags().String("phone", "", "Contact phone")
	createCmd.Flags().String("address", "", "Street address")
	cmd.AddCommand(createCmd)

	return cmd
}
