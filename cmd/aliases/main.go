package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/app"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/aliases"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/config"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/entity"
)

const defaultConfigPath = "configs/resolver.yaml"

func usage() {
	fmt.Fprintf(os.Stderr, "usage: aliases [-config path] lint | lookup <name>\n")
	flag.PrintDefaults()
}

func main() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	configPath := flag.String("config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	classifier := entity.NewClassifier(cfg.Resolver.BTeamWhitelist...)
	ix, report, err := app.LoadAliases(cfg, classifier)
	if err != nil && !errors.Is(err, aliases.ErrLint) {
		log.Fatalf("aliases: %v", err)
	}

	switch flag.Arg(0) {
	case "lint":
		if werr := writeLint(os.Stdout, report); werr != nil {
			log.Fatalf("aliases: %v", werr)
		}
		if !report.OK() {
			os.Exit(1)
		}
	case "lookup":
		if flag.NArg() < 2 {
			usage()
			os.Exit(2)
		}
		if err != nil {
			log.Fatalf("aliases: %v (run lint)", err)
		}
		name := strings.Join(flag.Args()[1:], " ")
		if !writeLookup(os.Stdout, ix, name) {
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func writeLint(w io.Writer, report aliases.Report) error {
	if len(report.Conflicts) > 0 {
		fmt.Fprintf(w, "Conflicts (%d)\n", len(report.Conflicts))
		table := tablewriter.NewWriter(w)
		table.Header("Kind", "Key", "IDs", "Sources")
		for _, c := range report.Conflicts {
			if err := table.Append(string(c.Kind), c.Key, strings.Join(c.IDs, ", "), strings.Join(c.Sources, ", ")); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	if len(report.Orphans) > 0 {
		fmt.Fprintf(w, "Orphans (%d)\n", len(report.Orphans))
		table := tablewriter.NewWriter(w)
		table.Header("Source", "Key", "ID")
		for _, o := range report.Orphans {
			if err := table.Append(o.Source, o.Key, o.ID); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	if len(report.Warnings) > 0 {
		fmt.Fprintf(w, "Warnings (%d)\n", len(report.Warnings))
		table := tablewriter.NewWriter(w)
		table.Header("Code", "Source", "Key", "ID", "Detail")
		for _, wr := range report.Warnings {
			if err := table.Append(wr.Code, wr.Source, wr.Key, wr.ID, wr.Detail); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	status := "OK"
	if !report.OK() {
		status = "FAILED"
	}
	_, err := fmt.Fprintf(w, "lint %s: %d conflicts, %d orphans, %d warnings\n",
		status, len(report.Conflicts), len(report.Orphans), len(report.Warnings))
	return err
}

func writeLookup(w io.Writer, ix *aliases.Index, name string) bool {
	id, ok := ix.LookupCanonical(name)
	if !ok {
		fmt.Fprintf(w, "%q: no canonical id\n", name)
		return false
	}
	e, _ := ix.Entry(id)
	fmt.Fprintf(w, "%s (%s)\n", id, e.DisplayName)
	fmt.Fprintf(w, "keys:     %s\n", strings.Join(ix.AliasKeysForCanonical(id), ", "))
	fmt.Fprintf(w, "variants: %s\n", strings.Join(ix.Variants(name), " | "))
	return true
}
