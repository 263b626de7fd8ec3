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
	"github.com/poiesic/shigen/core"
)

// resourceFormatVersion prefixes every encoded resource.
const resourceFormatVersion uint64 = 1

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
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// resourceStrings returns the string fields of a resource in wire order.
func resourceStrings(r *core.Resource) [13]string {
	return [13]string{
		r.ServiceName,
		r.Category,
		r.TargetUsers,
		r.Description,
		r.Eligibility,
		r.ApplicationProcess,
		r.Cost,
		r.Provider,
		r.Location,
		r.Contact.Phone,
		r.Contact.Fax,
		r.Contact.Email,
		r.Contact.URL,
	}
}

func unixMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromUnixMicro(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

func resourceSize(r *core.Resource) int {
	size := varint.Uint64.Size(resourceFormatVersion)
	size += varint.Uint64.Size(uint64(r.Id))
	for _, s := range resourceStrings(r) {
		size += ord.String.Size(s)
	}
	size += varint.Uint64.Size(uint64(len(r.Keywords)))
	for _, kw := range r.Keywords {
		size += ord.String.Size(kw)
	}
	size += varint.Uint64.Size(uint64(len(r.Vector)))
	for _, v := range r.Vector {
		size += raw.Float32.Size(v)
	}
	size += varint.Int64.Size(unixMicro(r.InsertedAt))
	size += varint.Int64.Size(unixMicro(r.UpdatedAt))
	return size
}

// MarshalResource serializes a Resource to bytes.
func MarshalResource(r *core.Resource) []byte {
	buf := make([]byte, resourceSize(r))
	n := varint.Uint64.Marshal(resourceFormatVersion, buf)
	n += varint.Uint64.Marshal(uint64(r.Id), buf[n:])
	for _, s := range resourceStrings(r) {
		n += ord.String.Marshal(s, buf[n:])
	}
	n += varint.Uint64.Marshal(uint64(len(r.Keywords)), buf[n:])
	for _, kw := range r.Keywords {
		n += ord.String.Marshal(kw, buf[n:])
	}
	n += varint.Uint64.Marshal(uint64(len(r.Vector)), buf[n:])
	for _, v := range r.Vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	n += varint.Int64.Marshal(unixMicro(r.InsertedAt), buf[n:])
	varint.Int64.Marshal(unixMicro(r.UpdatedAt), buf[n:])
	return buf
}

// decoder walks an encoded buffer, remembering the first error.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func (d *decoder) readUint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) readInt64() int64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) readString() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) readFloat32() float32 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

// count reads a collection length and rejects lengths the buffer cannot hold.
func (d *decoder) count() int {
	c := d.readUint64()
	if d.err == nil && c > uint64(len(d.bs)-d.n) {
		d.err = ErrTruncatedData
		return 0
	}
	return int(c)
}

// UnmarshalResource deserializes a Resource from bytes.
func UnmarshalResource(data []byte) (*core.Resource, error) {
	d := &decoder{bs: data}
	if version := d.readUint64(); d.err == nil && version != resourceFormatVersion {
		return nil, fmt.Errorf("%w: unknown resource format version %d", ErrSerializationFailed, version)
	}

	r := &core.Resource{}
	r.Id = core.ID(d.readUint64())
	r.ServiceName = d.readString()
	r.Category = d.readString()
	r.TargetUsers = d.readString()
	r.Description = d.readString()
	r.Eligibility = d.readString()
	r.ApplicationProcess = d.readString()
	r.Cost = d.readString()
	r.Provider = d.readString()
	r.Location = d.readString()
	r.Contact.Phone = d.readString()
	r.Contact.Fax = d.readString()
	r.Contact.Email = d.readString()
	r.Contact.URL = d.readString()

	if n := d.count(); n > 0 {
		r.Keywords = make([]string, n)
		for i := range r.Keywords {
			r.Keywords[i] = d.readString()
		}
	}
	if n := d.count(); n > 0 {
		r.Vector = make([]float32, n)
		for i := range r.Vector {
			r.Vector[i] = d.readFloat32()
		}
	}
	r.InsertedAt = fromUnixMicro(d.readInt64())
	r.UpdatedAt = fromUnixMicro(d.readInt64())

	if d.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, d.err)
	}
	return r, nil
}
