// Copyright 2025 The pbnano Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pbnano

import (
	"iter"
	"slices"

	"github.com/hypoxic/pbnano/internal/scc"
)

// Component is a group of field tables that all refer to each other,
// directly or indirectly. A recursive message type shows up as a component
// that is Recursive.
type Component struct {
	// Offsets of the member tables, in ascending order.
	Tables []int64
	// Whether the tables refer to each other: the component has more than
	// one member, or its only member refers to itself.
	Recursive bool
	// Indices of the components the members refer to, in the slice
	// returned by [Result.Components].
	Deps []int
}

// Components groups the tables reached by a decode into strongly connected
// components of the "has a submessage field whose table is" relation.
//
// Components are in topological order: each one comes after every component
// it refers to. References to offsets that were never reached as tables,
// such as those outside the stream, are ignored.
func (r *Result) Components() []Component {
	if len(r.Tables) == 0 {
		return nil
	}

	byOffset := make(map[int64]*Table, len(r.Tables))
	for _, t := range r.Tables {
		byOffset[t.Offset] = t
	}

	refs := func(offset int64) iter.Seq[int64] {
		return func(yield func(int64) bool) {
			for _, ref := range byOffset[offset].Refs {
				if _, ok := byOffset[ref]; ok && !yield(ref) {
					return
				}
			}
		}
	}

	dag := scc.Sort(r.Tables[0].Offset, refs)
	out := make([]Component, 0, dag.Len())
	for c := range dag.Topological() {
		members := slices.Clone(c.Members())
		slices.Sort(members)

		recursive := len(members) > 1
		if !recursive {
			recursive = slices.Contains(byOffset[members[0]].Refs, members[0])
		}

		deps := []int{}
		for dep := range c.Deps() {
			deps = append(deps, dep.Index())
		}

		out = append(out, Component{
			Tables:    members,
			Recursive: recursive,
			Deps:      deps,
		})
	}
	return out
}
