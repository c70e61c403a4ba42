package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/poiesic/ramanid"
	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/ingestion"
)

// mineral describes a synthetic reference spectrum.
type mineral struct {
	name     string
	family   string
	elements string
	bands    []float64
}

var minerals = []mineral{
	{"Quartz", "Silicate", "Si, O", []float64{128, 206, 464}},
	{"Calcite", "Carbonate", "Ca, C, O", []float64{156, 282, 712, 1086}},
	{"Aragonite", "Carbonate", "Ca, C, O", []float64{153, 206, 705, 1085}},
	{"Gypsum", "Sulfate", "Ca, S, O, H", []float64{415, 494, 1008, 1135}},
	{"Barite", "Sulfate", "Ba, S, O", []float64{453, 462, 617, 988}},
	{"Anatase", "Oxide", "Ti, O", []float64{144, 399, 516, 639}},
	{"Rutile", "Oxide", "Ti, O", []float64{143, 447, 612}},
	{"Hematite", "Oxide", "Fe, O", []float64{226, 293, 412, 612}},
	{"Diamond", "Native Element", "C", []float64{1332}},
	{"Graphite", "Native Element", "C", []float64{1350, 1580}},
}

var seedFileName = flag.String("src", "", "file of seed data, one mineral per line: name band...")

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// mineralsFromFile returns an iterator over minerals in a file.
// Malformed lines are logged and skipped.
func mineralsFromFile(filename string) (iter.Seq[mineral], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(mineral) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) < 2 {
				continue
			}
			m := mineral{name: fields[0]}
			for _, field := range fields[1:] {
				band, err := strconv.ParseFloat(field, 64)
				if err != nil {
					slog.Warn("skipping malformed line", "name", fields[0], "err", err)
					m.bands = nil
					break
				}
				m.bands = append(m.bands, band)
			}
			if len(m.bands) > 0 && !yield(m) {
				return
			}
		}
	}, nil
}

// mineralsFromSlice returns an iterator over a slice of minerals.
func mineralsFromSlice(ms []mineral) iter.Seq[mineral] {
	return func(yield func(mineral) bool) {
		for _, m := range ms {
			if !yield(m) {
				return
			}
		}
	}
}

// synthesize renders bands as Gaussians on a sloping background with noise.
func synthesize(m mineral, rng *rand.Rand) *core.DatabaseEntry {
	const (
		lo, hi, step = 100.0, 1800.0, 2.0
		width        = 6.0
	)
	n := int((hi-lo)/step) + 1
	entry := &core.DatabaseEntry{
		Name:        fmt.Sprintf("%s_R%06d", m.name, rng.IntN(1_000_000)),
		Wavenumbers: make([]float64, n),
		Intensities: make([]float64, n),
		Metadata:    map[string]string{core.MetaMineralName: m.name},
	}
	if m.family != "" {
		entry.Metadata[core.MetaChemicalFamily] = m.family
	}
	if m.elements != "" {
		entry.Metadata[core.MetaChemistryElements] = m.elements
	}
	for i := range n {
		w := lo + float64(i)*step
		y := 10 + 0.01*(w-lo) + rng.NormFloat64()*0.5
		for j, band := range m.bands {
			d := (w - band) / width
			y += 100 / float64(j+1) * math.Exp(-0.5*d*d)
		}
		entry.Wavenumbers[i] = w
		entry.Intensities[i] = y
	}
	return entry
}

// ingestBatched reads from a source iterator and ingests entries in batches.
func ingestBatched(ctx context.Context, pipeline *ingestion.Pipeline, source iter.Seq[mineral], batchSize int) error {
	rng := rand.New(rand.NewPCG(1, 2))
	batch := make([]*core.DatabaseEntry, 0, batchSize)

	for m := range source {
		batch = append(batch, synthesize(m, rng))
		if len(batch) == batchSize {
			if _, err := pipeline.Add(ctx, batch...); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}

	// Process any remaining entries
	if len(batch) > 0 {
		if _, err := pipeline.Add(ctx, batch...); err != nil {
			return err
		}
	}

	return nil
}

func main() {
	flag.Parse()

	db, err := ramanid.NewDatabase("./raman_db")
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ctx := context.Background()

	ingester, err := db.NewIngestionPipeline(ctx)
	if err != nil {
		panic(err)
	}
	defer ingester.Release()

	// Determine source of seed data
	var source iter.Seq[mineral]
	if seedFileName != nil && *seedFileName != "" {
		source, err = mineralsFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = mineralsFromSlice(minerals)
	}

	// Ingest in batches of 5
	if err := ingestBatched(ctx, ingester, source, 5); err != nil {
		panic(err)
	}
}
