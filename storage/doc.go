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

// Package storage provides the storage abstraction layer for ramanid.
//
// This package defines repository interfaces that decouple the spectrum
// database from the matching engine. The engine only needs to read every
// entry (GetAll) and to add or remove entries by name; how entries are
// persisted is a backend concern.
//
// # Architecture
//
//   - SpectrumRepository: reference spectra keyed by unique name
//   - TaxonomyRepository: mineral classification records
//   - CheckpointRepository: resume points for bulk processors
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	spectra := badger.NewSpectrumRepository(backend)
//	entries, err := spectra.GetAll(ctx)
//
// Use in tests with in-memory storage:
//
//	spectra, taxonomy, backend, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Writers are serialized
// with respect to readers, so GetAll always observes a consistent snapshot.
//
// # Encoding
//
// Values are encoded with MUS serializers from the core package. Spectrum
// entries are additionally zstd compressed when that makes them smaller.
package storage
