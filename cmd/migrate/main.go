// migrate applies the embedded SQL migrations:
//
//	go run ./cmd/migrate -direction up
//	go run ./cmd/migrate -direction down -steps 1
//	go run ./cmd/migrate -force 1
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/floorcraft/floorplan-backend/config"
	"github.com/floorcraft/floorplan-backend/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	steps := flag.Int("steps", 0, "Apply or revert at most this many migrations (0 = all)")
	force := flag.Int("force", -1, "Mark the schema clean at this version without running SQL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail("config", err)
	}
	dsn := cfg.Database.DSN()

	if *force >= 0 {
		if err := migrate.Force(dsn, *force); err != nil {
			fail("force", err)
		}
		fmt.Printf("schema forced to version %d\n", *force)
		return
	}

	dir, err := migrate.ParseDirection(*direction)
	if err != nil {
		fail("migrate", err)
	}
	res, err := migrate.Run(dsn, dir, *steps)
	if err != nil {
		fail("migrate", err)
	}
	if !res.Changed() {
		fmt.Printf("schema already at version %d\n", res.To)
		return
	}
	fmt.Printf("schema migrated %s: version %d -> %d\n", dir, res.From, res.To)
}

func fail(stage string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", stage, err)
	os.Exit(1)
}
