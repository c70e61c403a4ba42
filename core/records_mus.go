package core

import (
	"errors"
	"slices"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ErrCorruptRecord indicates serialized data that cannot describe a valid value.
var ErrCorruptRecord = errors.New("corrupt record")

// MUS serializers for the persisted domain types. Field order is part of the
// storage format: append new fields at the end.
var (
	IDMUS                   = idMUS{}
	PeakDataMUS             = peakDataMUS{}
	DatabaseEntryMUS        = databaseEntryMUS{}
	ClassificationRecordMUS = classificationRecordMUS{}
	CheckpointMUS           = checkpointMUS{}
)

var (
	_ mus.Serializer[ID]                   = IDMUS
	_ mus.Serializer[PeakData]             = PeakDataMUS
	_ mus.Serializer[DatabaseEntry]        = DatabaseEntryMUS
	_ mus.Serializer[ClassificationRecord] = ClassificationRecordMUS
	_ mus.Serializer[Checkpoint]           = CheckpointMUS
)

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type peakDataMUS struct{}

func (peakDataMUS) Marshal(v PeakData, bs []byte) (n int) {
	n = varint.Int.Marshal(int(v.Kind), bs)
	switch v.Kind {
	case PeakKindWavenumbers:
		n += marshalSlice(raw.Float64, v.Wavenumbers, bs[n:])
	case PeakKindIndices:
		n += marshalSlice(varint.Int, v.Indices, bs[n:])
	}
	return
}

func (peakDataMUS) Unmarshal(bs []byte) (v PeakData, n int, err error) {
	kind, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	switch PeakKind(kind) {
	case PeakKindNone:
	case PeakKindWavenumbers:
		v.Wavenumbers, n1, err = unmarshalSlice(raw.Float64, bs[n:])
	case PeakKindIndices:
		v.Indices, n1, err = unmarshalSlice(varint.Int, bs[n:])
	default:
		err = ErrCorruptRecord
		return
	}
	v.Kind = PeakKind(kind)
	n += n1
	return
}

func (peakDataMUS) Size(v PeakData) (size int) {
	size = varint.Int.Size(int(v.Kind))
	switch v.Kind {
	case PeakKindWavenumbers:
		size += sizeSlice(raw.Float64, v.Wavenumbers)
	case PeakKindIndices:
		size += sizeSlice(varint.Int, v.Indices)
	}
	return
}

func (s peakDataMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type databaseEntryMUS struct{}

func (databaseEntryMUS) Marshal(v DatabaseEntry, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += marshalSlice(raw.Float64, v.Wavenumbers, bs[n:])
	n += marshalSlice(raw.Float64, v.Intensities, bs[n:])
	n += marshalStringMap(v.Metadata, bs[n:])
	n += PeakDataMUS.Marshal(v.Peaks, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return
}

func (databaseEntryMUS) Unmarshal(bs []byte) (v DatabaseEntry, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	if v.Name, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Wavenumbers, n1, err = unmarshalSlice(raw.Float64, bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Intensities, n1, err = unmarshalSlice(raw.Float64, bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Metadata, n1, err = unmarshalStringMap(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Peaks, n1, err = PeakDataMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	v.UpdatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (databaseEntryMUS) Size(v DatabaseEntry) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Name)
	size += sizeSlice(raw.Float64, v.Wavenumbers)
	size += sizeSlice(raw.Float64, v.Intensities)
	size += sizeStringMap(v.Metadata)
	size += PeakDataMUS.Size(v.Peaks)
	size += sizeTime(v.InsertedAt)
	return size + sizeTime(v.UpdatedAt)
}

func (s databaseEntryMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type classificationRecordMUS struct{}

func (classificationRecordMUS) Marshal(v ClassificationRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += ord.String.Marshal(v.HeyClassification, bs[n:])
	n += marshalStringMap(v.Extra, bs[n:])
	return
}

func (classificationRecordMUS) Unmarshal(bs []byte) (v ClassificationRecord, n int, err error) {
	v.Name, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	if v.HeyClassification, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.Extra, n1, err = unmarshalStringMap(bs[n:])
	n += n1
	return
}

func (classificationRecordMUS) Size(v ClassificationRecord) (size int) {
	return ord.String.Size(v.Name) + ord.String.Size(v.HeyClassification) + sizeStringMap(v.Extra)
}

func (s classificationRecordMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type checkpointMUS struct{}

func (checkpointMUS) Marshal(v Checkpoint, bs []byte) (n int) {
	n = ord.String.Marshal(v.ProcessorType, bs)
	n += ord.String.Marshal(v.LastName, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return
}

func (checkpointMUS) Unmarshal(bs []byte) (v Checkpoint, n int, err error) {
	v.ProcessorType, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	if v.LastName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.UpdatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (checkpointMUS) Size(v Checkpoint) (size int) {
	return ord.String.Size(v.ProcessorType) + ord.String.Size(v.LastName) + sizeTime(v.UpdatedAt)
}

func (s checkpointMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// Length-prefixed slices.

func marshalSlice[T any](ser mus.Serializer[T], vs []T, bs []byte) (n int) {
	n = varint.Int.Marshal(len(vs), bs)
	for _, v := range vs {
		n += ser.Marshal(v, bs[n:])
	}
	return
}

func unmarshalSlice[T any](ser mus.Serializer[T], bs []byte) (vs []T, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	// Every element occupies at least one byte.
	if length < 0 || length > len(bs)-n {
		err = ErrCorruptRecord
		return
	}
	if length == 0 {
		return
	}
	vs = make([]T, length)
	var n1 int
	for i := range vs {
		vs[i], n1, err = ser.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func sizeSlice[T any](ser mus.Serializer[T], vs []T) (size int) {
	size = varint.Int.Size(len(vs))
	for _, v := range vs {
		size += ser.Size(v)
	}
	return
}

// String maps are written in key order so identical maps encode identically.

func marshalStringMap(m map[string]string, bs []byte) (n int) {
	keys := sortedKeys(m)
	n = varint.Int.Marshal(len(keys), bs)
	for _, k := range keys {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(m[k], bs[n:])
	}
	return
}

func unmarshalStringMap(bs []byte) (m map[string]string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if length < 0 || length > len(bs)-n {
		err = ErrCorruptRecord
		return
	}
	if length == 0 {
		return
	}
	m = make(map[string]string, length)
	var (
		k, v string
		n1   int
	)
	for range length {
		if k, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += n1
		if v, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += n1
		m[k] = v
	}
	return
}

func sizeStringMap(m map[string]string) (size int) {
	size = varint.Int.Size(len(m))
	for k, v := range m {
		size += ord.String.Size(k) + ord.String.Size(v)
	}
	return
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Timestamps are stored as Unix microseconds; the zero time is stored as 0.

func timeToMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(timeToMicro(t), bs)
}

func unmarshalTime(bs []byte) (t time.Time, n int, err error) {
	micro, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micro == 0 {
		return
	}
	return time.UnixMicro(micro).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(timeToMicro(t))
}
