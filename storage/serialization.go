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

package storage

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/poiesic/ramanid/core"
)

// Entry encodings, stored as the first byte of an encoded entry.
const (
	encodingRaw  byte = 0
	encodingZstd byte = 1
)

// EncodeAll and DecodeAll are safe for concurrent use, so one encoder and
// one decoder serve every repository.
var (
	entryEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	entryDecoder, _ = zstd.NewReader(nil)
)

// MarshalEntry serializes a DatabaseEntry, compressing it when that saves
// space.
func MarshalEntry(entry *core.DatabaseEntry) []byte {
	buf := make([]byte, 1+core.DatabaseEntryMUS.Size(*entry))
	buf[0] = encodingRaw
	core.DatabaseEntryMUS.Marshal(*entry, buf[1:])

	compressed := entryEncoder.EncodeAll(buf[1:], []byte{encodingZstd})
	if len(compressed) < len(buf) {
		return compressed
	}
	return buf
}

// UnmarshalEntry deserializes a DatabaseEntry from bytes.
func UnmarshalEntry(data []byte) (*core.DatabaseEntry, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty entry", ErrSerializationFailed)
	}
	payload := data[1:]
	switch data[0] {
	case encodingRaw:
	case encodingZstd:
		var err error
		payload, err = entryDecoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown entry encoding %d", ErrSerializationFailed, data[0])
	}
	entry, _, err := core.DatabaseEntryMUS.Unmarshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &entry, nil
}

// MarshalClassification serializes a ClassificationRecord to bytes.
func MarshalClassification(record *core.ClassificationRecord) []byte {
	buf := make([]byte, core.ClassificationRecordMUS.Size(*record))
	core.ClassificationRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalClassification deserializes a ClassificationRecord from bytes.
func UnmarshalClassification(data []byte) (*core.ClassificationRecord, error) {
	record, _, err := core.ClassificationRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	buf := make([]byte, core.CheckpointMUS.Size(*checkpoint))
	core.CheckpointMUS.Marshal(*checkpoint, buf)
	return buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	checkpoint, _, err := core.CheckpointMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &checkpoint, nil
}
