// Command owlrlctl is a minimal harness for driving the reasoner
// end-to-end from the command line: it loads one or more JSON-encoded
// axiom batches, reasons to quiescence, optionally runs a JSON-encoded
// query, and prints the result. Surface syntax parsing (DL/SWRL/REQL
// text) is out of scope for the core (spec §1); JSON is the minimal
// encoding needed to exercise load_axioms/select/ask without writing a
// parser this tool has no business owning.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/nodeadmin/owlrl-reasoner/dlir"
	"github.com/nodeadmin/owlrl-reasoner/reasoner"
)

func main() {
	axiomFiles := flag.String("axioms", "", "comma-separated paths to JSON-encoded []dlir.Axiom files")
	queryFile := flag.String("query", "", "path to a JSON-encoded dlir.Query file")
	variant := flag.String("variant", "default", "resource preset: small, default, large")
	logLevel := flag.String("log-level", "warn", "hclog level: trace, debug, info, warn, error")
	dumpEvents := flag.Bool("events", false, "print the event log after running")
	flag.Parse()

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "owlrlctl",
		Level: hclog.LevelFromString(*logLevel),
	})

	if *axiomFiles == "" {
		log.Error("no -axioms files given")
		os.Exit(1)
	}

	r := reasoner.New(reasoner.Options{Variant: parseVariant(*variant)}, log)

	axioms, err := loadAxiomFiles(strings.Split(*axiomFiles, ","))
	if err != nil {
		log.Error("loading axiom files", "error", err)
		os.Exit(1)
	}

	if err := r.LoadAxioms(axioms); err != nil {
		log.Error("load_axioms reported hard errors", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	stats := r.Reason(ctx)
	log.Info("reasoned to quiescence", "productions_fired", stats.ProductionsFired, "duration", stats.Duration)

	if *queryFile != "" {
		if err := runQuery(r, *queryFile); err != nil {
			log.Error("query failed", "error", err)
			os.Exit(1)
		}
	}

	if *dumpEvents {
		for _, e := range r.EventLog().Entries() {
			fmt.Fprintf(os.Stdout, "[%d] %s: %s\n", e.Seq, e.Kind, e.Detail)
		}
	}
}

func parseVariant(s string) reasoner.VariantHint {
	switch strings.ToLower(s) {
	case "small":
		return reasoner.VariantSmall
	case "large":
		return reasoner.VariantLarge
	default:
		return reasoner.VariantDefault
	}
}

// loadAxiomFiles decodes every file concurrently with errgroup (each
// file's JSON decode is independent I/O-bound work; this is the
// controlled-concurrency pattern the corpus uses for fan-out work of
// known, bounded size) and then concatenates the batches in input order,
// so the result is deterministic regardless of which goroutine finishes
// first.
func loadAxiomFiles(paths []string) ([]dlir.Axiom, error) {
	batches := make([][]dlir.Axiom, len(paths))
	g := new(errgroup.Group)
	for i, p := range paths {
		i, p := i, strings.TrimSpace(p)
		g.Go(func() error {
			data, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("reading %s: %w", p, err)
			}
			var batch []dlir.Axiom
			if err := json.Unmarshal(data, &batch); err != nil {
				return fmt.Errorf("decoding %s: %w", p, err)
			}
			batches[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []dlir.Axiom
	for _, b := range batches {
		out = append(out, b...)
	}
	return out, nil
}

func runQuery(r *reasoner.Reasoner, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var q dlir.Query
	if err := json.Unmarshal(data, &q); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if q.Select == dlir.SelectAsk {
		ok, err := r.Ask(q)
		if err != nil {
			return err
		}
		return enc.Encode(map[string]bool{"ask": ok})
	}

	table, err := r.Select(q)
	if err != nil {
		return err
	}
	return enc.Encode(table)
}
