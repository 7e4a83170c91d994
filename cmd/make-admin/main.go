// Command make-admin promotes an existing account to the admin role.
//
// Usage:
//
//	DATABASE_URL=./data/inkpress.db make-admin user@example.com
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/inkpress/inkpress/internal/core/domain"
	"github.com/inkpress/inkpress/internal/shell/store"
)

const defaultDSN = "./data/inkpress.db"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("make-admin", flag.ContinueOnError)
	dsn := fs.String("db", "", "Database path (defaults to DATABASE_URL, then "+defaultDSN+")")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: make-admin [-db path] <email>")
		return 1
	}
	email := fs.Arg(0)

	path := *dsn
	if path == "" {
		path = os.Getenv("DATABASE_URL")
	}
	if path == "" {
		path = defaultDSN
	}
	path = strings.TrimPrefix(strings.TrimPrefix(path, "file://"), "file:")

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database %s: %v\n", path, err)
		return 1
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := makeAdmin(ctx, s, email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	fmt.Printf("%s (id %d) is now an admin\n", user.Email, user.ID)
	return 0
}

// makeAdmin looks up the account and promotes it. The lookup runs first so a
// typo in the email changes nothing.
func makeAdmin(ctx context.Context, s store.Store, email string) (*domain.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("no account with email %s", email)
		}
		return nil, fmt.Errorf("failed to look up %s: %w", email, err)
	}

	if user.IsAdmin() {
		return user, nil
	}

	if err := s.SetUserRole(ctx, user.ID, domain.RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to promote %s: %w", email, err)
	}
	user.Role = domain.RoleAdmin

	return user, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
