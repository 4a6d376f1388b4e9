package machine

// tableMaxLoad is the load factor cap that triggers a capacity doubling.
const tableMaxLoad = 0.75

// entry is one slot of a Table. Three states are possible: empty
// (Key == nil, Value is nil), tombstone (Key == nil, Value is BoolValue(true)),
// and occupied (Key != nil).
type entry struct {
	Key   *StringObj
	Value Value
}

// Table is the open-addressed, linear-probing hash table used for
// globals, instance fields, class method tables and string
// interning. Keys are compared by interned-string identity everywhere
// except FindString, which is the sole content-addressed probe used to
// implement interning itself.
type Table struct {
	// count tracks the entries charged against the load factor: occupied
	// slots plus tombstones. Deleting leaves the tombstone counted;
	// adjustCapacity resets it to the live-entry count.
	count   int
	entries []entry
}

// Count reports the number of entries counted against the load factor.
// With no intervening deletes this equals the number of live entries.
func (t *Table) Count() int { return t.count }

// Get returns the value associated with key, and whether it was found.
func (t *Table) Get(key *StringObj) (Value, bool) {
	if len(t.entries) == 0 {
		return NilValue, false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return NilValue, false
	}
	return e.Value, true
}

// Set associates key with value, growing the table if needed. It reports
// whether key was not already present.
func (t *Table) Set(key *StringObj, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.adjustCapacity(growCapacity(len(t.entries)))
	}

	e := findEntry(t.entries, key)
	isNew := e.Key == nil
	if isNew && e.Value.IsNil() {
		// a fresh slot, not a reused tombstone, counts against capacity
		t.count++
	}
	e.Key = key
	e.Value = value
	return isNew
}

// Delete removes key, leaving a tombstone so later probes for other keys
// that hashed into the same chain keep working.
func (t *Table) Delete(key *StringObj) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return false
	}
	e.Key = nil
	e.Value = BoolValue(true) // tombstone
	return true
}

// AddAll copies every live entry of src into t, used by the INHERIT
// opcode to copy a superclass's methods into a subclass's method table.
func (t *Table) AddAll(src *Table) {
	for _, e := range src.entries {
		if e.Key != nil {
			t.Set(e.Key, e.Value)
		}
	}
}

// FindString is the sole entry point for interning: it probes by raw
// content and hash rather than by identity, so it can discover whether an
// equal-content string already exists before allocating a new one.
func (t *Table) FindString(chars string, hash uint32) *StringObj {
	if len(t.entries) == 0 {
		return nil
	}

	mask := uint32(len(t.entries) - 1)
	index := hash & mask
	for {
		e := &t.entries[index]
		if e.Key == nil {
			// stop on a true empty slot (not a tombstone): the probe chain
			// for this hash ends here.
			if e.Value.IsNil() {
				return nil
			}
		} else if e.Key.Hash == hash && e.Key.Chars == chars {
			return e.Key
		}
		index = (index + 1) & mask
	}
}

// removeUnmarkedKeys deletes every entry whose key is unreachable. This is
// the GC's intern-table weak-reference pass, the only weak reference in
// the system.
func (t *Table) removeUnmarkedKeys() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil && !e.Key.Marked {
			e.Key = nil
			e.Value = BoolValue(true)
		}
	}
}

func findEntry(entries []entry, key *StringObj) *entry {
	mask := uint32(len(entries) - 1)
	index := key.Hash & mask
	var tombstone *entry
	for {
		e := &entries[index]
		switch {
		case e.Key == nil:
			if e.Value.IsNil() {
				// true empty slot: return the first tombstone seen, if any,
				// so insertion reuses it instead of growing the probe chain.
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		case e.Key == key:
			return e
		}
		index = (index + 1) & mask
	}
}

func growCapacity(cap int) int {
	if cap < 8 {
		return 8
	}
	return cap * 2
}

func (t *Table) adjustCapacity(capacity int) {
	newEntries := make([]entry, capacity)
	for i := range newEntries {
		// the zero Value is not nil under the nanbox representation
		newEntries[i].Value = NilValue
	}
	t.count = 0
	for _, e := range t.entries {
		if e.Key == nil {
			continue
		}
		dst := findEntry(newEntries, e.Key)
		dst.Key = e.Key
		dst.Value = e.Value
		t.count++
	}
	t.entries = newEntries
}
