// See: https://github.com/pressly/goose/blob/master/examples/go-migrations/main.go

package main

import (
	"flag"
	"log"
	"os"

	"github.com/laytan/tubescript/internal/store"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

var (
	flags   = flag.NewFlagSet("goose", flag.ExitOnError)
	dialect = flags.String("dialect", "postgres", "database dialect")
)

// Usage: goose [-dialect postgres] <dsn> <command> [args...]
// The migrations are the ones embedded in the store package.
func main() {
	flags.Parse(os.Args[1:])
	args := flags.Args()

	if len(args) < 2 {
		flags.Usage()
		return
	}

	dbstring, command := args[0], args[1]

	db, err := goose.OpenDBWithDriver(*dialect, dbstring)
	if err != nil {
		log.Fatalf("goose: failed to open DB: %v\n", err)
	}

	defer func() {
		if err := db.Close(); err != nil {
			log.Fatalf("goose: failed to close DB: %v\n", err)
		}
	}()

	arguments := []string{}
	if len(args) > 2 {
		arguments = append(arguments, args[2:]...)
	}

	goose.SetBaseFS(store.Migrations)
	if err := goose.Run(command, db, store.MigrationsDir, arguments...); err != nil {
		log.Fatalf("goose %v: %v", command, err)
	}
}
