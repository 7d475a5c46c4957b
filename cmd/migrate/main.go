package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/carlomkt/codisec-itca/internal/auth"
	"github.com/carlomkt/codisec-itca/internal/migrate"
	"github.com/carlomkt/codisec-itca/internal/store/pg"
)

func main() {
	log.SetFlags(0)
	var (
		dsn            = flag.String("dsn", os.Getenv("CODISEC_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "migrations", "Path to SQL migrations")
		seedsPath      = flag.String("seeds", "seeds", "Path to SQL seeds")
		adminUser      = flag.String("admin-user", "codisecadm", "Admin username for ensure-admin")
		adminPassword  = flag.String("admin-password", os.Getenv("CODISEC_ADMIN_PASSWORD"), "Admin password for ensure-admin")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or CODISEC_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|seed|status|ensure-admin]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	mgr := migrate.NewManager(db, *migrationsPath, *seedsPath)

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	case "ensure-admin":
		err = ensureAdmin(ctx, db, *adminUser, *adminPassword)
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}

// ensureAdmin creates the administrator account if absent and makes sure it
// holds the ADMIN role.
func ensureAdmin(ctx context.Context, db *sql.DB, username, password string) error {
	if password == "" {
		return errors.New("missing admin password: provide via -admin-password or CODISEC_ADMIN_PASSWORD")
	}
	store := pg.NewStore(db)

	if err := store.EnsurePermissions(ctx, auth.BuiltinPermissions()); err != nil {
		return err
	}

	role, err := store.FindRoleByName(ctx, auth.RoleAdmin)
	if err != nil {
		return fmt.Errorf("find ADMIN role (run seed first): %w", err)
	}

	user, err := store.FindUserByUsername(ctx, username)
	if errors.Is(err, auth.ErrNotFound) {
		hash, hashErr := auth.HashPassword(password)
		if hashErr != nil {
			return hashErr
		}
		user = &auth.User{Username: username, PasswordHash: hash}
		if err := store.CreateUser(ctx, user); err != nil {
			return err
		}
		log.Printf("created admin user %q", username)
	} else if err != nil {
		return err
	}

	if err := store.SetUserRoles(ctx, user.ID, []string{role.ID}); err != nil {
		return err
	}
	log.Printf("admin role assigned to %q", username)
	return nil
}
