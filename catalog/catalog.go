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

package catalog

import (
	"sync/atomic"

	"github.com/poiesic/shigen/core"
)

// Catalog is the read-mostly set of resources searched by the engine.
//
// Readers take an immutable snapshot; Replace publishes a new snapshot
// atomically, so reloads never race with in-flight searches.
type Catalog struct {
	snapshot atomic.Pointer[[]*core.Resource]
}

// ReplaceStats reports what Replace did with its input.
type ReplaceStats struct {
	Loaded         int
	SkippedInvalid int // records without a service name
	Duplicates     int // later records sharing a normalized service name
}

// New creates a catalog holding resources.
func New(resources ...*core.Resource) *Catalog {
	c := &Catalog{}
	c.Replace(resources)
	return c
}

// Snapshot returns the current resources. The slice and the resources it
// points to must be treated as read-only.
func (c *Catalog) Snapshot() []*core.Resource {
	p := c.snapshot.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Len returns the number of resources in the current snapshot.
func (c *Catalog) Len() int {
	return len(c.Snapshot())
}

// Replace publishes a new snapshot built from resources.
// Invalid records are skipped and duplicates keep the first occurrence.
// The catalog takes ownership of the resources.
func (c *Catalog) Replace(resources []*core.Resource) ReplaceStats {
	kept, stats := dedupe(resources)
	c.snapshot.Store(&kept)
	return stats
}

// Find returns the resource whose normalized service name equals name, or nil.
func (c *Catalog) Find(name string) *core.Resource {
	want := core.NormalizeServiceName(name)
	for _, r := range c.Snapshot() {
		if core.NormalizeServiceName(r.ServiceName) == want {
			return r
		}
	}
	return nil
}

func dedupe(resources []*core.Resource) ([]*core.Resource, ReplaceStats) {
	var stats ReplaceStats
	kept := make([]*core.Resource, 0, len(resources))
	seen := make(map[string]struct{}, len(resources))

	for _, r := range resources {
		if core.ValidateResource(r) != nil {
			stats.SkippedInvalid++
			continue
		}
		key := core.NormalizeServiceName(r.ServiceName)
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		if r.Id == 0 {
			r.Id = core.IDFromServiceName(r.ServiceName)
		}
		kept = append(kept, r)
	}

	stats.Loaded = len(kept)
	return kept, stats
}
