// Package main provides a CLI tool for listing the campaigns stored in
// the database, most recently played first.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/icruces/mazmorra/internal/config"
	"github.com/icruces/mazmorra/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	repo := postgres.NewCampaignRepository(pool.DB())

	summaries, err := repo.List(ctx)
	if err != nil {
		log.Fatalf("listing campaigns: %v", err)
	}
	if len(summaries) == 0 {
		fmt.Println("no campaigns stored")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CAMPAIGN\tCHARACTER\tCLASS\tLEVEL\tLAST PLAYED\tID")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.Name, s.CharacterName, s.Class, s.Level,
			s.LastPlayedAt.Local().Format("2006-01-02 15:04"), s.ID)
	}
	w.Flush()
}
