package parser

import "encoding/json"

// Element is one classified span of a filename.
type Element struct {
	Category Category `json:"category" yaml:"category" csv:"category"`
	Value    string   `json:"value" yaml:"value" csv:"value"`
}

// Elements is the ordered result of a parse. Order is discovery order and
// a category may hold several values (e.g. both ends of "11-12").
type Elements struct {
	items []Element
}

func newElements() *Elements {
	return &Elements{items: make([]Element, 0, 16)}
}

// IsEmpty reports whether the container holds no elements at all.
func (e *Elements) IsEmpty() bool {
	return e == nil || len(e.items) == 0
}

func (e *Elements) Len() int {
	if e == nil {
		return 0
	}
	return len(e.items)
}

func (e *Elements) Has(c Category) bool {
	return e.Count(c) > 0
}

// Count returns how many values were recorded for c.
func (e *Elements) Count(c Category) int {
	if e == nil {
		return 0
	}
	n := 0
	for _, el := range e.items {
		if el.Category == c {
			n++
		}
	}
	return n
}

// Get returns the first value recorded for c.
func (e *Elements) Get(c Category) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, el := range e.items {
		if el.Category == c {
			return el.Value, true
		}
	}
	return "", false
}

// GetAll returns every value recorded for c in discovery order. The result
// is never nil.
func (e *Elements) GetAll(c Category) []string {
	out := []string{}
	if e == nil {
		return out
	}
	for _, el := range e.items {
		if el.Category == c {
			out = append(out, el.Value)
		}
	}
	return out
}

// At returns the i-th element in discovery order.
func (e *Elements) At(i int) (Element, bool) {
	if e == nil || i < 0 || i >= len(e.items) {
		return Element{}, false
	}
	return e.items[i], true
}

// All returns a copy of every element in discovery order.
func (e *Elements) All() []Element {
	if e == nil {
		return []Element{}
	}
	out := make([]Element, len(e.items))
	copy(out, e.items)
	return out
}

func (e *Elements) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.All())
}

func (e *Elements) insert(c Category, value string) {
	e.items = append(e.items, Element{Category: c, Value: value})
}

func (e *Elements) empty(c Category) bool {
	return !e.Has(c)
}

func (e *Elements) remove(c Category) {
	kept := e.items[:0]
	for _, el := range e.items {
		if el.Category != c {
			kept = append(kept, el)
		}
	}
	e.items = kept
}
