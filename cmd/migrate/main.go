package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"teamhub.app/internal/authz"
	"teamhub.app/internal/migrate"
	"teamhub.app/internal/store/pg"
)

func main() {
	log.SetFlags(0)
	var (
		dsn     = flag.String("dsn", os.Getenv("TEAMHUB_PG_DSN"), "PostgreSQL DSN")
		subject = flag.String("subject", "", "subject id for bootstrap")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or TEAMHUB_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|status|bootstrap -subject ID]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := pg.Open(*dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	mgr := migrate.NewManager(store.DB(), migrate.Embedded())

	switch flag.Arg(0) {
	case "up":
		var applied []string
		applied, err = mgr.Up(ctx)
		for _, name := range applied {
			fmt.Println("applied", name)
		}
	case "down":
		var name string
		name, err = mgr.Down(ctx)
		if err == nil {
			fmt.Println("rolled back", name)
		}
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		for _, item := range history {
			fmt.Println(item)
		}
	case "bootstrap":
		// First super_admin; every later grant goes through the API.
		err = bootstrap(ctx, store, *subject)
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}

func bootstrap(ctx context.Context, store *pg.Store, subject string) error {
	grants, err := authz.NewGrants(store)
	if err != nil {
		return err
	}
	a, err := grants.Grant(ctx, authz.Assignment{SubjectID: subject, Kind: authz.KindSuperAdmin})
	if err != nil {
		return err
	}
	fmt.Printf("granted %s to %s (%s)\n", a.Kind, a.SubjectID, a.ID)
	return nil
}
