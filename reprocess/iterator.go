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

package reprocess

import (
	"context"

	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/storage"
)

const (
	// DefaultBatchSize is the default number of entries to fetch in each batch
	DefaultBatchSize = 100
)

// EntryIterator iterates over stored entries in name order, in batches.
type EntryIterator struct {
	repo      storage.SpectrumRepository
	batchSize int
}

// NewEntryIterator creates a new entry iterator.
// batchSize: number of entries to fetch in each batch (defaults when <= 0)
func NewEntryIterator(repo storage.SpectrumRepository, batchSize int) *EntryIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &EntryIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of entries whose names sort after the
// given name. An empty after starts at the beginning. Iteration stops on the
// first error from fn or when all entries are processed. Context
// cancellation is checked between batches.
func (it *EntryIterator) ForEach(ctx context.Context, after string, fn func([]*core.DatabaseEntry) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := it.repo.Scan(ctx, after, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}

		if len(batch) < it.batchSize {
			return nil
		}
		after = batch[len(batch)-1].Name
	}
}
