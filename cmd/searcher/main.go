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
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/poiesic/ramanid"
	"github.com/poiesic/ramanid/search"
	"github.com/poiesic/ramanid/similarity"
	"github.com/poiesic/ramanid/spectrumio"
)

var (
	dbPath    = flag.String("db", "./raman_db", "database directory")
	algorithm = flag.String("algorithm", "correlation", "similarity algorithm")
	limit     = flag.Int("n", 5, "maximum number of hits")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

func main() {
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: searcher [-db dir] [-algorithm name] [-n hits] query-file")
		os.Exit(2)
	}
	query, err := spectrumio.ReadFile(flag.Arg(0))
	if err != nil {
		panic(err)
	}
	alg, err := similarity.ParseAlgorithm(*algorithm)
	if err != nil {
		panic(err)
	}

	db, err := ramanid.NewDatabase(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()
	engine, err := db.NewSearchEngine()
	if err != nil {
		panic(err)
	}
	defer engine.Release()

	req := search.NewRequest(*query)
	req.Algorithm = alg
	req.MaxResults = *limit
	req.Threshold = 0

	results, err := engine.Search(context.Background(), req)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: '%s' [%0.3f]\n", i, hit.Name, hit.Score)
	}
}
