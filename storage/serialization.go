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
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/jobsift/core"
)

// embeddingEntryVersion prefixes every encoded entry.
const embeddingEntryVersion uint64 = 1

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// EmbeddingEntrySize returns the encoded size of an entry.
func EmbeddingEntrySize(entry *core.EmbeddingEntry) int {
	size := varint.Uint64.Size(embeddingEntryVersion)
	size += ord.String.Size(entry.JobID)
	size += varint.Uint64.Size(uint64(entry.Fingerprint))
	size += ord.String.Size(entry.Model)
	size += raw.Int64.Size(entry.CreatedAt.UnixMicro())
	size += varint.Uint64.Size(uint64(len(entry.Vector)))
	for _, f := range entry.Vector {
		size += raw.Float32.Size(f)
	}
	return size
}

// MarshalEmbeddingEntry serializes an EmbeddingEntry to bytes.
// Timestamps are stored with microsecond precision.
func MarshalEmbeddingEntry(entry *core.EmbeddingEntry) []byte {
	buf := make([]byte, EmbeddingEntrySize(entry))
	n := varint.Uint64.Marshal(embeddingEntryVersion, buf)
	n += ord.String.Marshal(entry.JobID, buf[n:])
	n += varint.Uint64.Marshal(uint64(entry.Fingerprint), buf[n:])
	n += ord.String.Marshal(entry.Model, buf[n:])
	n += raw.Int64.Marshal(entry.CreatedAt.UnixMicro(), buf[n:])
	n += varint.Uint64.Marshal(uint64(len(entry.Vector)), buf[n:])
	for _, f := range entry.Vector {
		n += raw.Float32.Marshal(f, buf[n:])
	}
	return buf
}

// UnmarshalEmbeddingEntry deserializes an EmbeddingEntry from bytes.
func UnmarshalEmbeddingEntry(data []byte) (*core.EmbeddingEntry, error) {
	var (
		entry core.EmbeddingEntry
		n     int
	)

	version, m, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: version: %w", ErrSerializationFailed, err)
	}
	if version != embeddingEntryVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	n += m

	entry.JobID, m, err = ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: job id: %w", ErrSerializationFailed, err)
	}
	n += m

	fingerprint, m, err := varint.Uint64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: fingerprint: %w", ErrSerializationFailed, err)
	}
	entry.Fingerprint = core.ID(fingerprint)
	n += m

	entry.Model, m, err = ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: model: %w", ErrSerializationFailed, err)
	}
	n += m

	created, m, err := raw.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: created at: %w", ErrSerializationFailed, err)
	}
	entry.CreatedAt = time.UnixMicro(created).UTC()
	n += m

	length, m, err := varint.Uint64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: vector length: %w", ErrSerializationFailed, err)
	}
	n += m

	// Each float32 takes four bytes; reject lengths the buffer cannot hold
	if length > uint64(len(data)-n)/4 {
		return nil, fmt.Errorf("%w: vector of %d floats in %d bytes", ErrTruncatedData, length, len(data)-n)
	}
	entry.Vector = make([]float32, length)
	for i := range entry.Vector {
		entry.Vector[i], m, err = raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: vector[%d]: %w", ErrSerializationFailed, i, err)
		}
		n += m
	}

	return &entry, nil
}
