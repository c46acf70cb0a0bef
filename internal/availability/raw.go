package availability

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Kind tags the recognized shapes of a raw per-weekday availability entry.
type Kind int

const (
	// KindUnrecognized is any shape not listed below. It is still mined for
	// slots so differently shaped data is not silently dropped.
	KindUnrecognized Kind = iota
	// KindRanges is an array of "HH:MM-HH:MM" strings.
	KindRanges
	// KindSlotObject is an object carrying timeSlots, start/end or open/close.
	KindSlotObject
	// KindFlag is an object that only says available:false.
	KindFlag
)

func (k Kind) String() string {
	switch k {
	case KindRanges:
		return "ranges"
	case KindSlotObject:
		return "slot_object"
	case KindFlag:
		return "flag"
	default:
		return "unrecognized"
	}
}

// RawEntry is one decoded weekday value from an availability payload.
type RawEntry struct {
	Kind Kind
	// Candidates holds start/end pairs in source order. Sides may be empty;
	// malformed pairs are discarded during resolution.
	Candidates []TimeRange
}

// Flag reports whether the entry belongs to the "day is off" bucket.
func (e RawEntry) Flag() bool {
	return e.Kind == KindFlag
}

// DecodeEntry inspects the JSON shape of a weekday value and tags it.
func DecodeEntry(data json.RawMessage) RawEntry {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return RawEntry{Kind: KindUnrecognized}
	}
	switch trimmed[0] {
	case '[':
		return decodeArray(trimmed)
	case '{':
		return decodeObject(trimmed)
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return RawEntry{Kind: KindUnrecognized}
		}
		return RawEntry{Kind: KindUnrecognized, Candidates: []TimeRange{candidate(s)}}
	default:
		return RawEntry{Kind: KindUnrecognized}
	}
}

func decodeArray(data []byte) RawEntry {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return RawEntry{Kind: KindUnrecognized}
	}
	entry := RawEntry{Kind: KindRanges}
	for _, item := range items {
		pairs, isString := decodeSlotItem(item)
		if !isString {
			entry.Kind = KindUnrecognized
		}
		entry.Candidates = append(entry.Candidates, pairs...)
	}
	return entry
}

func decodeObject(data []byte) RawEntry {
	fields, ok := objectFields(data)
	if !ok {
		return RawEntry{Kind: KindUnrecognized}
	}

	var entry RawEntry
	slotCount := 0
	if raw, ok := fields["timeslots"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			slotCount = len(items)
			for _, item := range items {
				pairs, _ := decodeSlotItem(item)
				entry.Candidates = append(entry.Candidates, pairs...)
			}
		} else if s, ok := stringField(fields, "timeslots"); ok {
			slotCount = 1
			entry.Candidates = append(entry.Candidates, candidate(*s))
		}
	}
	pairs, hasDirect, hasBounds := boundPairs(fields)
	entry.Candidates = append(entry.Candidates, pairs...)

	switch {
	case slotCount > 0 || hasDirect:
		entry.Kind = KindSlotObject
	case isFalse(fields, "available") && !hasBounds:
		entry.Kind = KindFlag
	default:
		entry.Kind = KindUnrecognized
	}
	return entry
}

// decodeSlotItem reads one element of a slot list: either a range string or a
// {start,end} / {open,close} object.
func decodeSlotItem(item json.RawMessage) (pairs []TimeRange, isString bool) {
	trimmed := bytes.TrimSpace(item)
	if len(trimmed) == 0 {
		return nil, false
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, false
		}
		return []TimeRange{candidate(s)}, true
	case '{':
		fields, ok := objectFields(trimmed)
		if !ok {
			return nil, false
		}
		pairs, _, _ = boundPairs(fields)
		return pairs, false
	default:
		return nil, false
	}
}

// objectFields splits an object into its members with lowercased keys. Each
// field is read on its own, so a mistyped sibling drops only
// itself.
func objectFields(data []byte) (map[string]json.RawMessage, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	fields := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		fields[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return fields, true
}

// stringField returns the named member when it is a JSON string.
func stringField(fields map[string]json.RawMessage, key string) (*string, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	return &s, true
}

func isFalse(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	if !ok {
		return false
	}
	var b bool
	return json.Unmarshal(raw, &b) == nil && !b
}

// present reports whether key is set to anything other than null.
func present(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// boundPairs collects start/end and open/close pairs. hasDirect means at
// least one pair has both sides as strings; hasBounds means any bound key is
// set, whatever its type.
func boundPairs(fields map[string]json.RawMessage) (pairs []TimeRange, hasDirect, hasBounds bool) {
	for _, keys := range [][2]string{{"start", "end"}, {"open", "close"}} {
		from, fromOK := stringField(fields, keys[0])
		to, toOK := stringField(fields, keys[1])
		if present(fields, keys[0]) || present(fields, keys[1]) {
			hasBounds = true
		}
		if fromOK || toOK {
			pairs = append(pairs, TimeRange{Start: deref(from), End: deref(to)})
		}
		if fromOK && toOK {
			hasDirect = true
		}
	}
	return pairs, hasDirect, hasBounds
}

// candidate splits a range string; unparseable input becomes an empty pair
// that resolution drops.
func candidate(s string) TimeRange {
	r, _ := ParseRange(s)
	return r
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
