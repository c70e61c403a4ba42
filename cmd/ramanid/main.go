// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/poiesic/ramanid"
	"github.com/poiesic/ramanid/baseline"
	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/filter"
	"github.com/poiesic/ramanid/reprocess"
	"github.com/poiesic/ramanid/search"
	"github.com/poiesic/ramanid/similarity"
	"github.com/poiesic/ramanid/spectrumio"
	"github.com/urfave/cli/v2"
)

// Extensions picked up when a directory is passed to import.
var spectrumExtensions = []string{".txt", ".csv", ".tsv", ".dat"}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		EnvVars:  []string{"RAMANID_DB"},
		Required: true,
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ramanid",
		Usage: "Raman spectral library and mineral identification",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import spectrum files into the library",
				ArgsUsage: "FILE|DIR...",
				Action:    importCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of files parsed at once",
						Value: spectrumio.DefaultConcurrency,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of entries stored per transaction",
						Value: reprocess.DefaultBatchSize,
					},
				},
			},
			{
				Name:      "import-taxonomy",
				Usage:     "Replace the mineral taxonomy with records from a CSV file",
				ArgsUsage: "CSV",
				Action:    importTaxonomyCommand,
				Flags:     []cli.Flag{dbFlag()},
			},
			{
				Name:   "reprocess",
				Usage:  "Classify entries and detect missing peaks across the library",
				Action: reprocessCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of entries to process in each batch",
						Value: reprocess.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N entries",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: reprocess.DefaultConfig().RetryDelay,
					},
					&cli.BoolFlag{
						Name:  "resume",
						Usage: "Continue after the last checkpoint",
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Replace existing Hey classifications",
					},
					&cli.BoolFlag{
						Name:  "redetect",
						Usage: "Detect peaks for every entry, not only entries without peaks",
					},
					&cli.BoolFlag{
						Name:  "no-classify",
						Usage: "Skip taxonomy classification",
					},
					&cli.BoolFlag{
						Name:  "no-peaks",
						Usage: "Skip peak detection",
					},
				},
			},
			{
				Name:   "reset-checkpoint",
				Usage:  "Forget reprocessing progress so the next resume starts over",
				Action: resetCheckpointCommand,
				Flags:  []cli.Flag{dbFlag()},
			},
			{
				Name:   "stats",
				Usage:  "Show library totals",
				Action: statsCommand,
				Flags:  []cli.Flag{dbFlag()},
			},
			{
				Name:      "remove",
				Usage:     "Remove entries by name",
				ArgsUsage: "NAME...",
				Action:    removeCommand,
				Flags:     []cli.Flag{dbFlag()},
			},
			{
				Name:      "search",
				Usage:     "Match a query spectrum against the library",
				ArgsUsage: "FILE",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:    "algorithm",
						Aliases: []string{"a"},
						Usage:   "Similarity algorithm (correlation, peak, dtw, combined)",
						Value:   similarity.Correlation.String(),
					},
					&cli.IntFlag{
						Name:    "max-results",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   search.DefaultMaxResults,
					},
					&cli.Float64Flag{
						Name:    "threshold",
						Aliases: []string{"t"},
						Usage:   "Minimum score in [0, 1]",
						Value:   search.DefaultThreshold,
					},
					&cli.StringFlag{
						Name:  "family",
						Usage: "Chemical family substring",
					},
					&cli.StringFlag{
						Name:  "hey",
						Usage: "Hey classification substring",
					},
					&cli.StringFlag{
						Name:  "only-elements",
						Usage: "Comma separated elements; entries may contain no others",
					},
					&cli.StringFlag{
						Name:  "required-elements",
						Usage: "Comma separated elements every entry must contain",
					},
					&cli.StringFlag{
						Name:  "exclude-elements",
						Usage: "Comma separated elements no entry may contain",
					},
					&cli.StringFlag{
						Name:  "peaks",
						Usage: "Comma separated peak positions in cm⁻¹ every entry must have",
					},
					&cli.Float64Flag{
						Name:  "tolerance",
						Usage: "Peak position tolerance in cm⁻¹",
						Value: filter.DefaultTolerance,
					},
					&cli.BoolFlag{
						Name:  "smooth",
						Usage: "Apply Savitzky-Golay smoothing to the query",
					},
					&cli.StringFlag{
						Name:  "baseline",
						Usage: "Subtract a baseline from the query (als, linear, polynomial, moving_average)",
					},
				},
			},
		},
	}
}

// signalContext returns a context cancelled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func openDatabase(c *cli.Context) (*ramanid.Database, error) {
	db, err := ramanid.NewDatabase(c.String("db"), ramanid.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func importCommand(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	if c.NArg() == 0 {
		return fmt.Errorf("at least one file or directory is required")
	}
	batchSize := c.Int("batch-size")
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	paths, err := collectPaths(c.Args().Slice())
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no spectrum files found")
	}

	spectra, err := spectrumio.ReadFiles(ctx, paths, c.Int("concurrency"), spectrumio.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to read spectra: %w", err)
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline(ctx)
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	entries := make([]*core.DatabaseEntry, len(spectra))
	for i, s := range spectra {
		entries[i] = spectrumio.NewEntry(spectrumio.EntryName(paths[i]), s)
	}

	stored := 0
	for batch := range slices.Chunk(entries, batchSize) {
		added, err := pipeline.Add(ctx, batch...)
		if err != nil {
			return fmt.Errorf("failed to store entries: %w", err)
		}
		stored += len(added)
	}
	pipeline.Wait()

	fmt.Fprintf(c.App.Writer, "Imported %d entries from %d files\n", stored, len(paths))
	return nil
}

func importTaxonomyCommand(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	if c.NArg() != 1 {
		return fmt.Errorf("exactly one CSV file is required")
	}
	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.ImportTaxonomy(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to import taxonomy: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Imported %d taxonomy records\n", n)
	return nil
}

// reprocessConfig builds a reprocess configuration from command flags.
func reprocessConfig(c *cli.Context) (*reprocess.Config, error) {
	config := reprocess.DefaultConfig()
	config.BatchSize = c.Int("batch-size")
	config.ReportInterval = c.Int("report-interval")
	config.MaxRetries = c.Int("max-retries")
	config.RetryDelay = c.Duration("retry-delay")
	config.Resume = c.Bool("resume")
	config.Overwrite = c.Bool("overwrite")
	config.RedetectAll = c.Bool("redetect")
	config.Classify = !c.Bool("no-classify")
	config.DetectPeaks = !c.Bool("no-peaks")

	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return nil, fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return nil, fmt.Errorf("max-retries must be greater than 0")
	}
	if !config.Classify && !config.DetectPeaks {
		return nil, fmt.Errorf("nothing to do: both classification and peak detection are disabled")
	}
	return config, nil
}

func reprocessCommand(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	config, err := reprocessConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	reprocessor, err := db.NewReprocessor(ctx, config, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reprocessor: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Classify: %t, detect peaks: %t\n", config.Classify, config.DetectPeaks)
	fmt.Fprintln(os.Stderr)

	stats, err := reprocessor.Run(ctx)
	if err != nil {
		return fmt.Errorf("reprocessing failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Processed %d, updated %d, classified %d, peaks detected %d, failed %d\n",
		stats.Processed, stats.Updated, stats.Classified, stats.PeaksDetected, stats.Failed)
	return nil
}

func resetCheckpointCommand(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CheckpointRepository().DeleteCheckpoint(ctx, reprocess.ProcessorType); err != nil {
		return fmt.Errorf("failed to reset checkpoint: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "Checkpoint reset")
	return nil
}

func statsCommand(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.Stats(ctx)
	if err != nil {
		return err
	}
	printStats(c.App.Writer, stats)
	return nil
}

func removeCommand(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	if c.NArg() == 0 {
		return fmt.Errorf("at least one entry name is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SpectrumRepository().Delete(ctx, c.Args().Slice()...); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Removed %d entries\n", c.NArg())
	return nil
}

// searchRequest builds a search request for query from command flags.
func searchRequest(c *cli.Context, query *core.Spectrum) (search.Request, error) {
	req := search.NewRequest(*query)

	alg, err := similarity.ParseAlgorithm(c.String("algorithm"))
	if err != nil {
		return req, err
	}
	req.Algorithm = alg
	req.MaxResults = c.Int("max-results")
	req.Threshold = c.Float64("threshold")

	peakPositions, err := parseFloats(c.String("peaks"))
	if err != nil {
		return req, fmt.Errorf("invalid peaks: %w", err)
	}
	req.Criteria = filter.Criteria{
		PeakPositions:     peakPositions,
		Tolerance:         c.Float64("tolerance"),
		ChemicalFamily:    c.String("family"),
		HeyClassification: c.String("hey"),
		OnlyElements:      parseList(c.String("only-elements")),
		RequiredElements:  parseList(c.String("required-elements")),
		ExcludeElements:   parseList(c.String("exclude-elements")),
	}

	if c.Bool("smooth") {
		smooth := baseline.DefaultSmoothParams()
		req.Smoothing = &smooth
	}
	if name := c.String("baseline"); name != "" {
		method, err := baseline.ParseMethod(name)
		if err != nil {
			return req, err
		}
		params := baseline.DefaultParams()
		params.Method = method
		req.Baseline = &params
	}
	return req, req.Validate()
}

func searchCommand(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	if c.NArg() != 1 {
		return fmt.Errorf("exactly one query file is required")
	}
	query, err := spectrumio.ReadFile(c.Args().First(), spectrumio.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	req, err := searchRequest(c, query)
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := db.NewSearchEngine(search.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	defer engine.Release()

	results, err := engine.Search(ctx, req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	printResults(c.App.Writer, results)
	return nil
}

// collectPaths expands directories into the spectrum files they contain.
// Files named explicitly are kept whatever their extension.
func collectPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && slices.Contains(spectrumExtensions, strings.ToLower(filepath.Ext(path))) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// parseList splits a comma separated flag value, dropping empty items.
func parseList(value string) []string {
	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseFloats(value string) ([]float64, error) {
	items := parseList(value)
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]float64, len(items))
	for i, item := range items {
		f, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func printResults(w io.Writer, results []*core.MatchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No matches")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tSCORE\tFAMILY\tHEY CLASSIFICATION")
	for i, r := range results {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%s\t%s\n", i+1, r.Name, r.Score,
			filter.Lookup(r.Metadata, core.MetaChemicalFamily),
			filter.Lookup(r.Metadata, core.MetaHeyClassification))
	}
	tw.Flush()
}

func printStats(w io.Writer, stats *ramanid.Stats) {
	fmt.Fprintf(w, "Entries: %d\n", stats.Entries)
	fmt.Fprintf(w, "With peaks: %d\n", stats.WithPeaks)
	fmt.Fprintf(w, "Classified: %d\n", stats.Classified)
	fmt.Fprintf(w, "Taxonomy records: %d\n", stats.TaxonomyRecords)
	if len(stats.Families) == 0 {
		return
	}
	families := make([]string, 0, len(stats.Families))
	for family := range stats.Families {
		families = append(families, family)
	}
	slices.Sort(families)
	fmt.Fprintln(w, "Chemical families:")
	for _, family := range families {
		fmt.Fprintf(w, "  %s: %d\n", family, stats.Families[family])
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
