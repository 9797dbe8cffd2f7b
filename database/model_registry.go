/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"cmp"
	"reflect"
	"slices"
	"sync"
)

// modelEntry is a Bun model pointer, usually typed nil such as (*Team)(nil),
// with its creation priority. Tables referenced by foreign keys need a lower
// priority than the tables referencing them.
type modelEntry struct {
	model    any
	priority int
}

type modelRegistry struct {
	mu      sync.RWMutex
	entries []modelEntry
}

var models modelRegistry

// add ignores a model type that is already present.
func (r *modelRegistry) add(model any, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	typ := reflect.TypeOf(model)
	if slices.ContainsFunc(r.entries, func(e modelEntry) bool { return reflect.TypeOf(e.model) == typ }) {
		return
	}
	r.entries = append(r.entries, modelEntry{model: model, priority: priority})
}

// sorted orders by priority; equal priorities keep registration order.
func (r *modelRegistry) sorted() []modelEntry {
	r.mu.RLock()
	out := slices.Clone(r.entries)
	r.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b modelEntry) int { return cmp.Compare(a.priority, b.priority) })
	return out
}

// RegisterModel makes model known to the connection (bun.DB.RegisterModel)
// and to the create-table migration. Entity packages call it from init.
func RegisterModel(model any, priority int) {
	models.add(model, priority)
}

// RegisteredModelInstances returns the registered models in creation order.
func RegisteredModelInstances() []any {
	entries := models.sorted()
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e.model
	}
	return out
}
