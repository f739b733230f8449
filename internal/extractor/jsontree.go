package extractor

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sjsage522/promolink/helpers"
)

// Kind tags the variant held by a Node
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// maxJSONDepth bounds array/object nesting accepted by ParseJSON
const maxJSONDepth = 10000

// Member is one key/value pair of an object, kept in document order
type Member struct {
	Key   string
	Value *Node
}

// Node is a parsed JSON value. Scalars keep their raw text in Scalar,
// arrays use Items and objects use Members.
type Node struct {
	Kind    Kind
	Scalar  string
	Items   []*Node
	Members []Member
}

// ParseJSON parses a single JSON document into a Node tree.
// Trailing data after the document is an error.
func ParseJSON(data string) (*Node, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()

	root, err := readNode(dec, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return root, nil
}

func readNode(dec *json.Decoder, depth int) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		if depth >= maxJSONDepth {
			return nil, fmt.Errorf("JSON nested deeper than %d levels", maxJSONDepth)
		}
		switch v {
		case '{':
			return readObject(dec, depth+1)
		case '[':
			return readArray(dec, depth+1)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", v)
	case json.Number:
		return &Node{Kind: KindNumber, Scalar: v.String()}, nil
	case string:
		return &Node{Kind: KindString, Scalar: v}, nil
	case bool:
		return &Node{Kind: KindBool, Scalar: strconv.FormatBool(v)}, nil
	case nil:
		return &Node{Kind: KindNull}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func readObject(dec *json.Decoder, depth int) (*Node, error) {
	node := &Node{Kind: KindObject}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", tok)
		}
		value, err := readNode(dec, depth)
		if err != nil {
			return nil, err
		}
		node.Members = append(node.Members, Member{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return node, nil
}

func readArray(dec *json.Decoder, depth int) (*Node, error) {
	node := &Node{Kind: KindArray}
	for dec.More() {
		item, err := readNode(dec, depth)
		if err != nil {
			return nil, err
		}
		node.Items = append(node.Items, item)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return node, nil
}

// Get returns the value of the first member whose key matches case-insensitively
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != KindObject {
		return nil
	}
	for _, m := range n.Members {
		if strings.EqualFold(m.Key, key) {
			return m.Value
		}
	}
	return nil
}

// Keys returns the object keys in document order
func (n *Node) Keys() []string {
	if n == nil || n.Kind != KindObject {
		return nil
	}
	keys := make([]string, len(n.Members))
	for i, m := range n.Members {
		keys[i] = m.Key
	}
	return keys
}

// Number converts a scalar into a number. Numbers are read as JSON numbers,
// strings go through the currency parser. Other kinds yield nil.
func (n *Node) Number() *float64 {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindNumber:
		v, err := strconv.ParseFloat(n.Scalar, 64)
		if err != nil {
			return nil
		}
		return &v
	case KindString:
		return helpers.ParseCurrencyNumber(n.Scalar)
	}
	return nil
}

// Visitor is called for every object member during a walk. Returning false
// skips the member's subtree.
type Visitor func(key string, value *Node) bool

// Walk visits every object member below n, depth first in document order
func Walk(n *Node, visit Visitor) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindObject:
		for _, m := range n.Members {
			if visit(m.Key, m.Value) {
				Walk(m.Value, visit)
			}
		}
	case KindArray:
		for _, item := range n.Items {
			Walk(item, visit)
		}
	}
}
