package condition

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
)

const maxCacheEntries = 512

type cacheEntry struct {
	result  Result
	expires time.Time
}

// cache memoizes results for a short TTL. Keys include the condition tree
// and every referenced value, so a stale hit can only happen if a
// definition's default changes within the TTL.
type cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

func newCache(ttl time.Duration) *cache {
	return &cache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *cache) get(key string, now time.Time) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	if now.After(entry.expires) {
		delete(c.entries, key)
		return Result{}, false
	}
	return copyResult(entry.result), true
}

func (c *cache) put(key string, res Result, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= maxCacheEntries {
		for k, entry := range c.entries {
			if now.After(entry.expires) {
				delete(c.entries, k)
			}
		}
		if len(c.entries) >= maxCacheEntries {
			c.entries = make(map[string]cacheEntry)
		}
	}
	c.entries[key] = cacheEntry{result: copyResult(res), expires: now.Add(c.ttl)}
}

// copyResult deep-copies everything a caller could mutate, so cached
// entries and returned results never share maps or condition trees.
func copyResult(r Result) Result {
	out := r
	out.EvaluatedVariables = copyValues(r.EvaluatedVariables)
	if r.Trace != nil {
		out.Trace = make([]TraceEntry, len(r.Trace))
		for i, entry := range r.Trace {
			entry.Condition = domain.CloneCondition(entry.Condition)
			entry.Values = copyValues(entry.Values)
			out.Trace[i] = entry
		}
	}
	return out
}

func copyValues(in map[string]domain.Value) map[string]domain.Value {
	if in == nil {
		return nil
	}
	out := make(map[string]domain.Value, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

// cacheKey returns "" when the condition cannot be keyed.
func cacheKey(c domain.Condition, defs map[string]domain.Variable, state domain.Values) string {
	tree, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	refs := domain.VariableRefs(c)
	sort.Strings(refs)

	var sb strings.Builder
	sb.Write(tree)
	for _, id := range refs {
		sb.WriteByte('|')
		sb.WriteString(id)
		sb.WriteByte('=')
		v, ok := state[id]
		if !ok {
			if def, defined := defs[id]; defined {
				v = def.Default
			} else {
				sb.WriteString("!undefined")
				continue
			}
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		sb.Write(raw)
		sb.WriteString(string(v.Kind()))
	}
	return sb.String()
}
