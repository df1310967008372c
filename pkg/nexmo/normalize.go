package nexmo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind tags the variant held by a Node
type Kind int

const (
	KindNull Kind = iota
	KindMap
	KindList
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Node is one element of a decoded gateway response. Exactly one of the
// payload fields is meaningful, selected by Kind.
type Node struct {
	kind   Kind
	fields map[string]*Node
	items  []*Node
	str    string // KindString text or KindNumber literal
	b      bool
}

// errEmptyBody marks a body with no JSON value at all
var errEmptyBody = fmt.Errorf("empty response body")

// Decode parses a JSON body into a normalized tree.
func Decode(body []byte) (*Node, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errEmptyBody
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("failed to decode response: trailing data after JSON value")
	}

	n, err := FromValue(raw)
	if err != nil {
		return nil, err
	}
	return Normalize(n), nil
}

// FromValue converts a plain decoded value (maps, slices, strings,
// json.Number, float64, bool, nil) into a Node without renaming keys.
func FromValue(v interface{}) (*Node, error) {
	switch t := v.(type) {
	case nil:
		return &Node{kind: KindNull}, nil
	case map[string]interface{}:
		n := &Node{kind: KindMap, fields: make(map[string]*Node, len(t))}
		for k, child := range t {
			c, err := FromValue(child)
			if err != nil {
				return nil, err
			}
			n.fields[k] = c
		}
		return n, nil
	case []interface{}:
		n := &Node{kind: KindList, items: make([]*Node, 0, len(t))}
		for _, child := range t {
			c, err := FromValue(child)
			if err != nil {
				return nil, err
			}
			n.items = append(n.items, c)
		}
		return n, nil
	case string:
		return &Node{kind: KindString, str: t}, nil
	case json.Number:
		return &Node{kind: KindNumber, str: t.String()}, nil
	case float64:
		return &Node{kind: KindNumber, str: strconv.FormatFloat(t, 'f', -1, 64)}, nil
	case int:
		return &Node{kind: KindNumber, str: strconv.Itoa(t)}, nil
	case bool:
		return &Node{kind: KindBool, b: t}, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

// Normalize returns a copy of n with hyphens removed from every map key,
// at every depth. Children are normalized before their parent's keys are
// renamed. When two keys collapse to the same name, a key that had no
// hyphen wins; otherwise the lexically smallest original key wins.
func Normalize(n *Node) *Node {
	if n == nil {
		return nil
	}

	switch n.kind {
	case KindMap:
		keys := make([]string, 0, len(n.fields))
		for k := range n.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := &Node{kind: KindMap, fields: make(map[string]*Node, len(keys))}
		owner := make(map[string]string, len(keys))
		for _, k := range keys {
			child := Normalize(n.fields[k])
			nk := strings.ReplaceAll(k, "-", "")
			if prev, taken := owner[nk]; taken && (prev == nk || k != nk) {
				continue
			}
			owner[nk] = k
			out.fields[nk] = child
		}
		return out
	case KindList:
		out := &Node{kind: KindList, items: make([]*Node, len(n.items))}
		for i, item := range n.items {
			out.items[i] = Normalize(item)
		}
		return out
	default:
		cp := *n
		return &cp
	}
}

// Kind returns the variant tag; a nil node is null.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindNull
	}
	return n.kind
}

// IsNull reports whether the node is absent or JSON null.
func (n *Node) IsNull() bool {
	return n.Kind() == KindNull
}

// Field returns the named child of a map node.
func (n *Node) Field(key string) (*Node, bool) {
	if n.Kind() != KindMap {
		return nil, false
	}
	c, ok := n.fields[key]
	return c, ok
}

// Path walks nested map fields.
func (n *Node) Path(keys ...string) (*Node, bool) {
	cur := n
	for _, k := range keys {
		next, ok := cur.Field(k)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Items returns the elements of a list node.
func (n *Node) Items() ([]*Node, bool) {
	if n.Kind() != KindList {
		return nil, false
	}
	return n.items, true
}

// Len is the number of fields or items; zero for scalars.
func (n *Node) Len() int {
	switch n.Kind() {
	case KindMap:
		return len(n.fields)
	case KindList:
		return len(n.items)
	default:
		return 0
	}
}

// Str returns the scalar as text. Numbers render as their JSON literal.
func (n *Node) Str() (string, bool) {
	switch n.Kind() {
	case KindString, KindNumber:
		return n.str, true
	case KindBool:
		return strconv.FormatBool(n.b), true
	default:
		return "", false
	}
}

// Int parses a number or numeric string.
func (n *Node) Int() (int, error) {
	s, ok := n.numericText()
	if !ok {
		return 0, fmt.Errorf("%s is not numeric", n.Kind())
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	return v, nil
}

// Decimal parses a number or numeric string.
func (n *Node) Decimal() (decimal.Decimal, error) {
	s, ok := n.numericText()
	if !ok {
		return decimal.Zero, fmt.Errorf("%s is not numeric", n.Kind())
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return d, nil
}

func (n *Node) numericText() (string, bool) {
	switch n.Kind() {
	case KindNumber:
		return n.str, true
	case KindString:
		return strings.TrimSpace(n.str), true
	default:
		return "", false
	}
}

// Interface converts the tree back into plain Go values.
func (n *Node) Interface() interface{} {
	switch n.Kind() {
	case KindMap:
		m := make(map[string]interface{}, len(n.fields))
		for k, v := range n.fields {
			m[k] = v.Interface()
		}
		return m
	case KindList:
		l := make([]interface{}, len(n.items))
		for i, v := range n.items {
			l[i] = v.Interface()
		}
		return l
	case KindString:
		return n.str
	case KindNumber:
		return json.Number(n.str)
	case KindBool:
		return n.b
	default:
		return nil
	}
}
