package writer

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

const jsonIndent = "  "

// mergeJSON merges fragment into existing. Parts of previous that fragment
// no longer carries are stripped first. Objects merge recursively, arrays
// keep foreign elements and scalars are replaced. Bytes outside the edited
// values, comments included, are kept as they are.
func mergeJSON(existing []byte, previous string, fragment string) ([]byte, error) {
	frag := gjson.Parse(fragment)
	if !frag.IsObject() {
		return nil, stacktrace.NewError("owned fragment is not a JSON object")
	}
	if len(bytes.TrimSpace(existing)) == 0 {
		return append(prettyJSON(fragment, ""), '\n'), nil
	}

	e, err := newJSONEditor(existing)
	if err != nil {
		return nil, err
	}
	if previous != "" {
		stripStaleJSON(e, nil, gjson.Parse(previous), frag)
	}
	mergeJSONMembers(e, nil, frag)
	return e.result()
}

// stripStaleJSON removes what previous owned and fragment no longer does.
// Values fragment still carries stay in place so a rebuild does not move them.
func stripStaleJSON(e *jsonEditor, path []string, previous gjson.Result, fragment gjson.Result) {
	previous.ForEach(func(key, value gjson.Result) bool {
		p := appendJSONPath(path, key.Str)
		next, ok := jsonMember(fragment, key.Str)
		switch {
		case !ok:
			stripJSONValue(e, p, value)
		case value.IsObject() && next.IsObject():
			stripStaleJSON(e, p, value, next)
		case value.IsArray() && next.IsArray():
			var stale []gjson.Result
			for _, el := range value.Array() {
				if !containsJSON(next, el) {
					stale = append(stale, el)
				}
			}
			removeJSONElements(e, p, stale)
		}
		return true
	})
}

func mergeJSONMembers(e *jsonEditor, path []string, frag gjson.Result) {
	frag.ForEach(func(key, value gjson.Result) bool {
		p := appendJSONPath(path, key.Str)
		_, current, ok := e.lookup(p)
		switch {
		case ok && value.IsObject() && current.value.IsObject():
			mergeJSONMembers(e, p, value)
		case ok && value.IsArray() && current.value.IsArray():
			for _, el := range value.Array() {
				if _, current, _ = e.lookup(p); !containsJSON(current.value, el) {
					e.insertElement(current, el.Raw)
				}
			}
		default:
			e.set(p, value.Raw)
		}
		return true
	})
}

// stripJSON removes the owned fragment from existing. empty reports that
// nothing foreign is left.
func stripJSON(existing []byte, fragment string) ([]byte, bool, error) {
	if len(bytes.TrimSpace(existing)) == 0 {
		return nil, true, nil
	}
	e, err := newJSONEditor(existing)
	if err != nil {
		return nil, false, err
	}
	gjson.Parse(fragment).ForEach(func(key, value gjson.Result) bool {
		stripJSONValue(e, []string{key.Str}, value)
		return true
	})
	if len(e.root().value.Map()) == 0 {
		return nil, true, nil
	}
	data, err := e.result()
	return data, false, err
}

// stripJSONValue removes the owned value at path. Containers left empty are
// removed too.
func stripJSONValue(e *jsonEditor, path []string, owned gjson.Result) {
	_, current, ok := e.lookup(path)
	if !ok {
		return
	}
	switch {
	case owned.IsObject() && current.value.IsObject():
		owned.ForEach(func(key, value gjson.Result) bool {
			stripJSONValue(e, appendJSONPath(path, key.Str), value)
			return true
		})
		if _, current, ok = e.lookup(path); ok && len(current.value.Map()) == 0 {
			e.delete(path)
		}
	case owned.IsArray() && current.value.IsArray():
		removeJSONElements(e, path, owned.Array())
		if _, current, ok = e.lookup(path); ok && len(current.value.Array()) == 0 {
			e.delete(path)
		}
	case sameJSON(owned, current.value):
		e.delete(path)
	}
}

// removeJSONElements drops one matching element of the array at path for
// every entry of owned.
func removeJSONElements(e *jsonEditor, path []string, owned []gjson.Result) {
	for _, target := range owned {
		_, arr, ok := e.lookup(path)
		if !ok || !arr.value.IsArray() {
			return
		}
		arr.value.ForEach(func(_, el gjson.Result) bool {
			if sameJSON(el, target) {
				e.removeEntry(arr, el.Index, el.Index+len(el.Raw))
				return false
			}
			return true
		})
	}
}

func jsonMember(obj gjson.Result, key string) (gjson.Result, bool) {
	var found gjson.Result
	ok := false
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.Str == key {
			found, ok = v, true
			return false
		}
		return true
	})
	return found, ok
}

func containsJSON(arr gjson.Result, el gjson.Result) bool {
	for _, v := range arr.Array() {
		if sameJSON(v, el) {
			return true
		}
	}
	return false
}

func sameJSON(a gjson.Result, b gjson.Result) bool {
	return string(pretty.Ugly([]byte(a.Raw))) == string(pretty.Ugly([]byte(b.Raw)))
}

func appendJSONPath(path []string, key string) []string {
	return append(slices.Clip(path), key)
}

// jsonEditor edits a JSON or JSONC document by splicing its text. plain is
// src with comments and trailing commas blanked out; it keeps the offsets of
// src and is the copy that gets parsed.
type jsonEditor struct {
	src   []byte
	plain []byte
}

// jsonNode is a value located in the document. [start, end) is its range.
type jsonNode struct {
	value gjson.Result
	start int
	end   int
}

func newJSONEditor(data []byte) (*jsonEditor, error) {
	e := &jsonEditor{src: bytes.Clone(data)}
	e.reparse()
	if !gjson.ValidBytes(e.plain) {
		return nil, stacktrace.NewError("document is neither JSON nor JSONC")
	}
	if !e.root().value.IsObject() {
		return nil, stacktrace.NewError("document is not a JSON object")
	}
	return e, nil
}

func (e *jsonEditor) reparse() {
	e.plain = jsonc.ToJSON(e.src)
}

func (e *jsonEditor) result() ([]byte, error) {
	if !gjson.ValidBytes(e.plain) {
		return nil, stacktrace.NewError("merging produced an invalid document:\n%s", e.src)
	}
	return e.src, nil
}

func (e *jsonEditor) splice(start int, end int, repl string) {
	out := make([]byte, 0, len(e.src)-(end-start)+len(repl))
	out = append(out, e.src[:start]...)
	out = append(out, repl...)
	out = append(out, e.src[end:]...)
	e.src = out
	e.reparse()
}

func (e *jsonEditor) root() jsonNode {
	start := skipJSONSpace(e.plain, 0)
	end := lastJSONNonSpace(e.plain, len(e.plain)) + 1
	if start >= end {
		return jsonNode{}
	}
	v := gjson.ParseBytes(e.plain[start:end])
	v.Index = start
	return jsonNode{value: v, start: start, end: end}
}

// member finds key in the object n and returns where its key starts.
func (e *jsonEditor) member(n jsonNode, key string) (int, jsonNode, bool) {
	keyStart, child, ok := -1, jsonNode{}, false
	if !n.value.IsObject() {
		return keyStart, child, ok
	}
	n.value.ForEach(func(k, v gjson.Result) bool {
		if k.Str == key {
			keyStart, ok = k.Index, true
			child = jsonNode{value: v, start: v.Index, end: v.Index + len(v.Raw)}
			return false
		}
		return true
	})
	return keyStart, child, ok
}

func (e *jsonEditor) lookup(path []string) (int, jsonNode, bool) {
	keyStart, n, ok := -1, e.root(), true
	for _, key := range path {
		if keyStart, n, ok = e.member(n, key); !ok {
			break
		}
	}
	return keyStart, n, ok
}

// set writes raw at path, creating or replacing objects along the way.
func (e *jsonEditor) set(path []string, raw string) {
	parent := e.root()
	for i, key := range path {
		_, child, ok := e.member(parent, key)
		last := i == len(path)-1
		if !ok {
			e.insertMember(parent, key, nestJSON(path[i+1:], raw))
			return
		}
		if !last && !child.value.IsObject() {
			e.replace(child, nestJSON(path[i+1:], raw))
			return
		}
		parent = child
	}
	e.replace(parent, raw)
}

func (e *jsonEditor) delete(path []string) {
	if len(path) == 0 {
		return
	}
	_, parent, ok := e.lookup(path[:len(path)-1])
	if !ok {
		return
	}
	keyStart, child, ok := e.member(parent, path[len(path)-1])
	if !ok {
		return
	}
	e.removeEntry(parent, keyStart, child.end)
}

func (e *jsonEditor) replace(n jsonNode, raw string) {
	var value string
	if e.multiline() {
		value = string(prettyJSON(raw, lineIndent(e.src, n.start)))
	} else {
		value = string(pretty.Ugly([]byte(raw)))
	}
	e.splice(n.start, n.end, value)
}

func (e *jsonEditor) insertMember(obj jsonNode, key string, raw string) {
	e.insertEntry(obj, quoteJSON(key), raw)
}

func (e *jsonEditor) insertElement(arr jsonNode, raw string) {
	e.insertEntry(arr, "", raw)
}

// insertEntry adds a member (or an element when key is empty) after the
// last entry of container, following its layout.
func (e *jsonEditor) insertEntry(container jsonNode, key string, raw string) {
	closePos := container.end - 1
	last := lastJSONNonSpace(e.plain, closePos)
	isEmpty := last == container.start

	if !e.expanded(container) {
		entry := string(pretty.Ugly([]byte(raw)))
		if key != "" {
			entry = key + ":" + entry
		}
		if !isEmpty {
			entry = "," + entry
		}
		e.splice(last+1, last+1, entry)
		return
	}

	outer := lineIndent(e.src, container.start)
	inner := outer + jsonIndent
	entry := "\n" + inner
	if key != "" {
		entry += key + ": "
	}
	entry += string(prettyJSON(raw, inner))
	switch {
	case !isEmpty:
		e.splice(last+1, last+1, ","+entry)
	case isJSONSpace(e.src[container.start+1 : closePos]):
		e.splice(container.start+1, closePos, entry+"\n"+outer)
	default:
		e.splice(container.start+1, container.start+1, entry)
	}
}

// removeEntry deletes [start, end) from container along with the comma that
// separates it from its neighbours.
func (e *jsonEditor) removeEntry(container jsonNode, start int, end int) {
	closePos := container.end - 1
	if next := skipJSONSpace(e.plain, end); next < closePos && e.plain[next] == ',' {
		if !isJSONSpace(e.src[end:next]) {
			e.splice(next, next+1, "")
			e.splice(start, end, "")
			return
		}
		after := next + 1
		for after < len(e.src) && e.src[after] <= ' ' {
			after++
		}
		e.splice(start, after, "")
		return
	}
	if prev := lastJSONNonSpace(e.plain, start); prev > container.start && e.plain[prev] == ',' {
		if !isJSONSpace(e.src[prev+1 : start]) {
			e.splice(start, end, "")
			e.splice(prev, prev+1, "")
			return
		}
		e.splice(prev, end, "")
		return
	}
	if isJSONSpace(e.src[container.start+1:start]) && isJSONSpace(e.src[end:closePos]) {
		e.splice(container.start+1, closePos, "")
		return
	}
	e.splice(start, end, "")
}

// multiline reports whether the document spreads over several lines.
func (e *jsonEditor) multiline() bool {
	r := e.root()
	return bytes.IndexByte(e.plain[r.start:r.end], '\n') >= 0
}

// expanded reports whether entries of container go on their own lines. An
// empty container follows the document, an empty document is expanded.
func (e *jsonEditor) expanded(container jsonNode) bool {
	if lastJSONNonSpace(e.plain, container.end-1) != container.start {
		return bytes.IndexByte(e.plain[container.start:container.end], '\n') >= 0
	}
	if container.start == e.root().start {
		return true
	}
	return e.multiline()
}

// prettyJSON indents raw for a position whose line starts with indent. The
// first line carries no indent.
func prettyJSON(raw string, indent string) []byte {
	out := bytes.TrimRight(pretty.PrettyOptions([]byte(raw), &pretty.Options{Width: 80, Indent: jsonIndent}), "\n")
	if indent == "" {
		return out
	}
	return bytes.ReplaceAll(out, []byte("\n"), []byte("\n"+indent))
}

// nestJSON wraps raw in one object per key, innermost last.
func nestJSON(keys []string, raw string) string {
	for i := len(keys) - 1; i >= 0; i-- {
		obj, _ := sjson.SetRaw("{}", escapeJSONKey(keys[i]), raw)
		raw = obj
	}
	return raw
}

// escapeJSONKey escapes the characters sjson treats as path syntax.
func escapeJSONKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%', ':':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func quoteJSON(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func lineIndent(src []byte, pos int) string {
	start := bytes.LastIndexByte(src[:pos], '\n') + 1
	end := start
	for end < pos && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}

func skipJSONSpace(b []byte, i int) int {
	for i < len(b) && b[i] <= ' ' {
		i++
	}
	return i
}

// lastJSONNonSpace returns the index of the last non-space byte before i,
// or -1.
func lastJSONNonSpace(b []byte, i int) int {
	for i--; i >= 0 && b[i] <= ' '; i-- {
	}
	return i
}

func isJSONSpace(b []byte) bool {
	for _, c := range b {
		if c > ' ' {
			return false
		}
	}
	return true
}
