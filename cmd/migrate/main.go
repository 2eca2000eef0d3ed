package main

import (
	"flag"
	"log"
	"os"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nea-data/nexuscontable-agenda-operativa/migrations"
)

func main() {
	var dsn = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres connection string")
	flag.Parse()

	action := "up"
	if args := flag.Args(); len(args) >= 1 && args[0] != "" {
		action = args[0]
	}
	if *dsn == "" {
		log.Fatal("DATABASE_URL (or -dsn) is required")
	}

	db, err := goose.OpenDBWithDriver("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("dialect: %v", err)
	}

	switch action {
	case "up":
		err = goose.Up(db, migrations.Dir)
	case "down":
		err = goose.Down(db, migrations.Dir)
	case "status":
		err = goose.Status(db, migrations.Dir)
	default:
		log.Fatalf("unknown action %q (want up, down or status)", action)
	}
	if err != nil {
		log.Fatalf("goose %s: %v", action, err)
	}
}
