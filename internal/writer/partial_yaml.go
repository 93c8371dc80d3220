package writer

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kurtosis-tech/stacktrace"
)

// parseYAMLDocument decodes a top-level mapping keeping key order and
// comments.
func parseYAMLDocument(data []byte) (yaml.MapSlice, yaml.CommentMap, error) {
	cm := yaml.CommentMap{}
	if len(bytes.TrimSpace(data)) == 0 {
		return yaml.MapSlice{}, cm, nil
	}
	var doc yaml.MapSlice
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap(), yaml.CommentToMap(cm)); err != nil {
		return nil, nil, stacktrace.Propagate(err, "document is not a YAML mapping")
	}
	return doc, cm, nil
}

func parseYAMLFragment(fragment string) (yaml.MapSlice, error) {
	var frag yaml.MapSlice
	if fragment == "" {
		return frag, nil
	}
	if err := yaml.UnmarshalWithOptions([]byte(fragment), &frag, yaml.UseOrderedMap()); err != nil {
		return nil, stacktrace.Propagate(err, "owned fragment is not a YAML mapping")
	}
	return frag, nil
}

// mergeYAML merges top-level keys of fragment into existing. Keys previous
// owned that fragment dropped are stripped. Sequences keep foreign items;
// other values are replaced.
func mergeYAML(existing []byte, previous string, fragment string) ([]byte, error) {
	doc, cm, err := parseYAMLDocument(existing)
	if err != nil {
		return nil, err
	}
	frag, err := parseYAMLFragment(fragment)
	if err != nil {
		return nil, err
	}
	prevFrag, err := parseYAMLFragment(previous)
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to parse previously written fragment")
	}

	for _, item := range prevFrag {
		if yamlKeyIndex(frag, item.Key) < 0 {
			doc = stripYAMLItem(doc, item)
		}
	}
	for _, item := range frag {
		idx := yamlKeyIndex(doc, item.Key)
		if idx < 0 {
			doc = append(doc, item)
			continue
		}
		newSeq, newIsSeq := item.Value.([]any)
		curSeq, curIsSeq := doc[idx].Value.([]any)
		if newIsSeq && curIsSeq {
			var prevSeq []any
			if prevIdx := yamlKeyIndex(prevFrag, item.Key); prevIdx >= 0 {
				prevSeq, _ = prevFrag[prevIdx].Value.([]any)
			}
			doc[idx].Value = mergeSequence(curSeq, prevSeq, newSeq)
			continue
		}
		doc[idx].Value = item.Value
	}
	return marshalYAMLDocument(doc, cm)
}

func stripYAML(existing []byte, fragment string) ([]byte, bool, error) {
	doc, cm, err := parseYAMLDocument(existing)
	if err != nil {
		return nil, false, err
	}
	frag, err := parseYAMLFragment(fragment)
	if err != nil {
		return nil, false, err
	}

	for _, item := range frag {
		doc = stripYAMLItem(doc, item)
	}
	if len(doc) == 0 {
		return nil, true, nil
	}
	data, err := marshalYAMLDocument(doc, cm)
	return data, false, err
}

// stripYAMLItem removes an owned top-level item from doc. Owned sequences
// lose only their own entries; the key goes once nothing foreign is left.
func stripYAMLItem(doc yaml.MapSlice, item yaml.MapItem) yaml.MapSlice {
	idx := yamlKeyIndex(doc, item.Key)
	if idx < 0 {
		return doc
	}
	ownedSeq, ownedIsSeq := item.Value.([]any)
	curSeq, curIsSeq := doc[idx].Value.([]any)
	if ownedIsSeq && curIsSeq {
		if kept := mergeSequence(curSeq, ownedSeq, nil); len(kept) > 0 {
			doc[idx].Value = kept
			return doc
		}
	} else if !reflect.DeepEqual(doc[idx].Value, item.Value) {
		return doc
	}
	return append(doc[:idx], doc[idx+1:]...)
}

// mergeSequence drops from current every item in previous or next, then
// appends next.
func mergeSequence(current []any, previous []any, next []any) []any {
	result := make([]any, 0, len(current)+len(next))
	for _, v := range current {
		if containsValue(previous, v) || containsValue(next, v) {
			continue
		}
		result = append(result, v)
	}
	return append(result, next...)
}

func containsValue(values []any, v any) bool {
	for _, candidate := range values {
		if reflect.DeepEqual(candidate, v) {
			return true
		}
	}
	return false
}

func yamlKeyIndex(doc yaml.MapSlice, key any) int {
	want := fmt.Sprint(key)
	for i, item := range doc {
		if fmt.Sprint(item.Key) == want {
			return i
		}
	}
	return -1
}

// pruneComments drops comments attached to keys or sequence items that no
// longer exist in doc.
func pruneComments(doc yaml.MapSlice, cm yaml.CommentMap) {
	for p := range cm {
		rest, ok := strings.CutPrefix(p, "$.")
		if !ok {
			continue
		}
		key, index, hasIndex := rest, -1, false
		if i := strings.IndexAny(rest, ".["); i >= 0 {
			key = rest[:i]
			if rest[i] == '[' {
				if end := strings.IndexByte(rest[i:], ']'); end > 0 {
					if n, err := strconv.Atoi(rest[i+1 : i+end]); err == nil {
						index, hasIndex = n, true
					}
				}
			}
		}
		idx := yamlKeyIndex(doc, key)
		if idx < 0 {
			delete(cm, p)
			continue
		}
		if seq, isSeq := doc[idx].Value.([]any); hasIndex && (!isSeq || index >= len(seq)) {
			delete(cm, p)
		}
	}
}

func marshalYAMLDocument(doc yaml.MapSlice, cm yaml.CommentMap) ([]byte, error) {
	pruneComments(doc, cm)
	var data []byte
	var err error
	if len(cm) > 0 {
		data, err = yaml.MarshalWithOptions(doc, yaml.WithComment(cm))
	} else {
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to marshal YAML document")
	}
	return data, nil
}
