package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hugh/go-recipes/internal/auth"
	"github.com/hugh/go-recipes/internal/database"
	"github.com/hugh/go-recipes/internal/validation"
	"github.com/hugh/go-recipes/pkg/config"
	"github.com/hugh/go-recipes/pkg/util"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [flags]

Commands:
  createsuperuser   create a staff account with every permission
  migrate           apply database migrations
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var run func(*gorm.DB, []string) error
	switch os.Args[1] {
	case "createsuperuser":
		run = createSuperuser
	case "migrate":
		run = func(*gorm.DB, []string) error {
			fmt.Println("database is up to date")
			return nil
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	logger := util.NewLogger(cfg.Server.Env)
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	if err := database.Migrate(db, &cfg.Database, logger); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate database: %v\n", err)
		os.Exit(1)
	}

	if err := run(db, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func createSuperuser(db *gorm.DB, args []string) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	email := fs.String("email", os.Getenv("ADMIN_EMAIL"), "email address of the new superuser")
	password := fs.String("password", os.Getenv("ADMIN_PASSWORD"), "password of the new superuser")
	name := fs.String("name", os.Getenv("ADMIN_NAME"), "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := auth.NewService(db).CreateSuperuser(context.Background(), auth.CreateUserInput{
		Email:    *email,
		Password: *password,
		Name:     *name,
	})
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			return fmt.Errorf("a user with email %q already exists", *email)
		}
		if errs, ok := validation.As(err); ok {
			return fmt.Errorf("invalid input: %s", describe(errs))
		}
		return fmt.Errorf("creating superuser: %w", err)
	}

	fmt.Printf("Superuser created: %s\n", user.Email)
	return nil
}

func describe(errs validation.Errors) string {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = "--" + field + ": " + errs[field]
	}
	return strings.Join(parts, "; ")
}
