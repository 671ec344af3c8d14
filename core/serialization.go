package core

import (
	"math"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the domain types persisted to BadgerDB. Timestamps are
// stored as Unix microseconds; float32 vector elements as their IEEE 754 bit
// patterns.

// DocumentMUS serializes Document values.
var DocumentMUS = documentMUS{}

// RateCounterMUS serializes RateCounter values.
var RateCounterMUS = rateCounterMUS{}

// JobMUS serializes Job values.
var JobMUS = jobMUS{}

// VectorRecordMUS serializes VectorRecord values.
var VectorRecordMUS = vectorRecordMUS{}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = ord.String.Marshal(string(d.Hash), bs)
	n += ord.String.Marshal(d.Owner, bs[n:])
	n += ord.String.Marshal(d.Ext, bs[n:])
	n += ord.String.Marshal(d.FileName, bs[n:])
	n += ord.String.Marshal(d.URL, bs[n:])
	n += varint.Int.Marshal(int(d.Status), bs[n:])
	n += varint.Int.Marshal(d.SchemaVersion, bs[n:])
	n += marshalTime(d.InsertedAt, bs[n:])
	n += marshalTime(d.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var (
		c      int
		hash   string
		status int
	)
	if hash, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	d.Hash = ContentHash(hash)
	if d.Owner, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + c, err
	}
	n += c
	if d.Ext, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + c, err
	}
	n += c
	if d.FileName, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + c, err
	}
	n += c
	if d.URL, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + c, err
	}
	n += c
	if status, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + c, err
	}
	d.Status = ProcessingStatus(status)
	n += c
	if d.SchemaVersion, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + c, err
	}
	n += c
	if d.InsertedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return d, n + c, err
	}
	n += c
	if d.UpdatedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return d, n + c, err
	}
	n += c
	return d, n, nil
}

func (documentMUS) Size(d Document) (size int) {
	size = ord.String.Size(string(d.Hash))
	size += ord.String.Size(d.Owner)
	size += ord.String.Size(d.Ext)
	size += ord.String.Size(d.FileName)
	size += ord.String.Size(d.URL)
	size += varint.Int.Size(int(d.Status))
	size += varint.Int.Size(d.SchemaVersion)
	size += sizeTime(d.InsertedAt)
	size += sizeTime(d.UpdatedAt)
	return size
}

type rateCounterMUS struct{}

func (rateCounterMUS) Marshal(r RateCounter, bs []byte) (n int) {
	n = varint.Uint64.Marshal(r.Count, bs)
	n += marshalTime(r.ExpiresAt, bs[n:])
	return n
}

func (rateCounterMUS) Unmarshal(bs []byte) (r RateCounter, n int, err error) {
	var c int
	if r.Count, n, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	if r.ExpiresAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return r, n + c, err
	}
	n += c
	return r, n, nil
}

func (rateCounterMUS) Size(r RateCounter) int {
	return varint.Uint64.Size(r.Count) + sizeTime(r.ExpiresAt)
}

type jobMUS struct{}

func (jobMUS) Marshal(j Job, bs []byte) (n int) {
	n = ord.String.Marshal(j.ID, bs)
	n += ord.String.Marshal(j.URL, bs[n:])
	n += ord.String.Marshal(j.Owner, bs[n:])
	n += varint.Int.Marshal(int(j.State), bs[n:])
	n += ord.String.Marshal(j.Result, bs[n:])
	n += marshalTime(j.InsertedAt, bs[n:])
	n += marshalTime(j.UpdatedAt, bs[n:])
	return n
}

func (jobMUS) Unmarshal(bs []byte) (j Job, n int, err error) {
	var (
		c     int
		state int
	)
	if j.ID, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if j.URL, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return j, n + c, err
	}
	n += c
	if j.Owner, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return j, n + c, err
	}
	n += c
	if state, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return j, n + c, err
	}
	j.State = JobState(state)
	n += c
	if j.Result, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return j, n + c, err
	}
	n += c
	if j.InsertedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return j, n + c, err
	}
	n += c
	if j.UpdatedAt, c, err = unmarshalTime(bs[n:]); err != nil {
		return j, n + c, err
	}
	n += c
	return j, n, nil
}

func (jobMUS) Size(j Job) (size int) {
	size = ord.String.Size(j.ID)
	size += ord.String.Size(j.URL)
	size += ord.String.Size(j.Owner)
	size += varint.Int.Size(int(j.State))
	size += ord.String.Size(j.Result)
	size += sizeTime(j.InsertedAt)
	size += sizeTime(j.UpdatedAt)
	return size
}

type vectorRecordMUS struct{}

func (vectorRecordMUS) Marshal(v VectorRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += varint.Int.Marshal(len(v.Values), bs[n:])
	for _, f := range v.Values {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	n += varint.Int.Marshal(len(v.Metadata), bs[n:])
	for _, k := range sortedKeys(v.Metadata) {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(v.Metadata[k], bs[n:])
	}
	return n
}

func (vectorRecordMUS) Unmarshal(bs []byte) (v VectorRecord, n int, err error) {
	var (
		c      int
		length int
		bits   uint32
	)
	if v.ID, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if length, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + c, err
	}
	n += c
	if length > 0 {
		v.Values = make([]float32, length)
		for i := 0; i < length; i++ {
			if bits, c, err = varint.Uint32.Unmarshal(bs[n:]); err != nil {
				return v, n + c, err
			}
			v.Values[i] = math.Float32frombits(bits)
			n += c
		}
	}
	if length, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + c, err
	}
	n += c
	if length > 0 {
		v.Metadata = make(map[string]string, length)
		for i := 0; i < length; i++ {
			var key, val string
			if key, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
				return v, n + c, err
			}
			n += c
			if val, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
				return v, n + c, err
			}
			n += c
			v.Metadata[key] = val
		}
	}
	return v, n, nil
}

func (vectorRecordMUS) Size(v VectorRecord) (size int) {
	size = ord.String.Size(v.ID)
	size += varint.Int.Size(len(v.Values))
	for _, f := range v.Values {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	size += varint.Int.Size(len(v.Metadata))
	for k, val := range v.Metadata {
		size += ord.String.Size(k)
		size += ord.String.Size(val)
	}
	return size
}

// marshalTime encodes a timestamp as Unix microseconds. The zero time is
// encoded as 0 so it round-trips as a zero time.
func marshalTime(t time.Time, bs []byte) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Marshal(micros, bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micros == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Size(micros)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic encoding keeps byte-identical values for identical records.
	slices.Sort(keys)
	return keys
}
