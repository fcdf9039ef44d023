// Package main provides a CLI tool that validates a content directory:
// the JSON compendium, the YAML condition definitions, and the optional
// vocabulary override file. It runs the same loaders as the game, so a
// clean exit here means the content will load at play time.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/condition"
	"github.com/icruces/mazmorra/internal/game/vocab"
)

func main() {
	contentDir := flag.String("content", "content", "content root directory to validate")
	flag.Parse()

	if *contentDir == "" {
		fmt.Fprintln(os.Stderr, "usage: check-content [-content <dir>]")
		os.Exit(1)
	}

	start := time.Now()
	failures := 0

	compDir := filepath.Join(*contentDir, "compendio")
	comp, err := compendium.Load(compDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compendio: %v\n", err)
		failures++
	} else {
		fmt.Printf("compendio: ok (%d armas, %d conjuros, %d monstruos, %d objetos)\n",
			len(comp.Weapons()), len(comp.Spells()), len(comp.Monsters()), len(comp.Items()))
	}

	condDir := filepath.Join(*contentDir, "condiciones")
	if info, statErr := os.Stat(condDir); statErr == nil && info.IsDir() {
		reg := condition.BuiltinRegistry()
		before := len(reg.All())
		if err := reg.LoadDirectory(condDir); err != nil {
			fmt.Fprintf(os.Stderr, "condiciones: %v\n", err)
			failures++
		} else {
			fmt.Printf("condiciones: ok (%d definiciones, %d propias)\n",
				len(reg.All()), len(reg.All())-before)
		}
	} else {
		fmt.Println("condiciones: sin directorio, se usan las integradas")
	}

	vocabPath := filepath.Join(*contentDir, "vocabulario.yaml")
	if _, statErr := os.Stat(vocabPath); statErr == nil {
		table := vocab.Default()
		if err := table.LoadFile(vocabPath); err != nil {
			fmt.Fprintf(os.Stderr, "vocabulario: %v\n", err)
			failures++
		} else {
			fmt.Println("vocabulario: ok")
		}
	} else {
		fmt.Println("vocabulario: sin archivo, se usa el integrado")
	}

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "check failed: %d problem(s) in %s\n", failures, *contentDir)
		os.Exit(1)
	}
	fmt.Printf("check complete in %s\n", time.Since(start).Round(time.Millisecond))
}
