package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"aijobsdash/services/dashboard/internal/filter"
	"aijobsdash/services/dashboard/internal/loader"
	"aijobsdash/services/dashboard/internal/views"

	"go.uber.org/zap"
)

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

func main() {
	var (
		file        = flag.String("file", "ai_job_dataset.csv", "path to the job postings CSV")
		viewID      = flag.String("view", "", "print a single view instead of the whole dashboard ("+strings.Join(views.IDs(), ", ")+")")
		locations   multiFlag
		experiences multiFlag
	)
	flag.Var(&locations, "location", "company location to keep (repeatable)")
	flag.Var(&experiences, "experience", "experience level label to keep (repeatable)")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	table, report, err := loader.New(logger).Load(ctx, loader.FileSource{Path: *file})
	if err != nil {
		logger.Fatal("failed to load dataset", zap.String("file", *file), zap.Error(err))
	}
	logger.Info("dataset loaded",
		zap.Int("rows_kept", report.RowsKept),
		zap.Int("dropped_incomplete", report.DroppedIncomplete),
		zap.Int("dropped_unparseable", report.DroppedUnparseable),
	)

	sel := filter.Selection{Locations: locations, ExperienceLabels: experiences}
	filtered := filter.Apply(ctx, table, sel, logger)

	var out interface{}
	if *viewID == "" {
		out = views.Build(ctx, filtered)
	} else {
		def, ok := views.Lookup(*viewID)
		if !ok {
			logger.Fatal("unknown view", zap.String("view", *viewID), zap.Strings("available", views.IDs()))
		}
		out = views.Compute(ctx, def, filtered)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
		os.Exit(1)
	}
}
