package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/Strob0t/rentalmanager/internal/adapter/postgres"
	"github.com/Strob0t/rentalmanager/internal/config"
	"github.com/Strob0t/rentalmanager/internal/service"
)

// runAdmin dispatches admin subcommands.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "reset-password":
		return runAdminResetPassword(args[1:])
	case "create-user":
		return runAdminCreateUser(args[1:])
	case "list-users":
		return runAdminListUsers(args[1:])
	case "migrate":
		return runAdminMigrate(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: rentalmanager admin <command> [options]

Commands:
  create-user      Create a landlord account
  reset-password   Reset an account's password
  list-users       List all accounts
  migrate          Show, apply or roll back schema migrations
  help             Show this help message

Examples:
  rentalmanager admin create-user --email owner@example.com --name "Jo Owner"
  rentalmanager admin reset-password --email owner@example.com
  rentalmanager admin list-users
  rentalmanager admin migrate --status
  rentalmanager admin migrate --rollback 1
`)
}

func loadAdminDeps(ctx context.Context) (*service.AuthService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.Backend.URL, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	authSvc := service.NewAuthService(postgres.NewStore(pool), &cfg.Auth)
	return authSvc, pool.Close, nil
}

func runAdminCreateUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	email := fs.String("email", "", "account email address (required)")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("--email is required")
	}

	pass, err := passwordOrPrompt(*password, "Password: ")
	if err != nil {
		return err
	}

	ctx := context.Background()
	authSvc, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	u, err := authSvc.CreateUser(ctx, *email, *name, pass)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(os.Stderr, "User created: %s (id=%s)\n", u.Email, u.ID)
	return nil
}

func runAdminResetPassword(args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	email := fs.String("email", "", "account email address (required)")
	password := fs.String("password", "", "new password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("--email is required")
	}

	pass, err := passwordOrPrompt(*password, "New password: ")
	if err != nil {
		return err
	}

	ctx := context.Background()
	authSvc, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := authSvc.ResetPassword(ctx, *email, pass); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Password reset for %s; existing sessions were revoked\n", *email)
	return nil
}

func runAdminListUsers(args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	authSvc, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	users, err := authSvc.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tEMAIL\tNAME\tCREATED")
	for i := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			users[i].ID, users[i].Email, users[i].Name, users[i].CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func runAdminMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	status := fs.Bool("status", false, "print the current schema version")
	rollback := fs.Int("rollback", 0, "roll back this many migrations")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := context.Background()

	switch {
	case *status:
	case *rollback > 0:
		if err := postgres.RollbackMigrations(ctx, cfg.Backend.URL, *rollback); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
	default:
		if err := postgres.RunMigrations(ctx, cfg.Backend.URL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	v, err := postgres.MigrationVersion(ctx, cfg.Backend.URL)
	if err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	fmt.Printf("schema version: %d\n", v)
	return nil
}

// passwordOrPrompt returns flagValue, or prompts twice when it is empty.
func passwordOrPrompt(flagValue, prompt string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	pass, err := promptPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if pass != confirm {
		return "", errors.New("passwords do not match")
	}
	return pass, nil
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
