package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// text accepts a JSON string, number or boolean. Numbers keep their
// literal form, so an id of 1 reads as "1".
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*t = ""
	case string:
		*t = text(x)
	case float64:
		*t = text(strings.TrimSpace(string(b)))
	case bool:
		*t = text(strconv.FormatBool(x))
	default:
		return fmt.Errorf("expected text, got %T", v)
	}
	return nil
}

// number accepts a JSON number or a numeric string such as "85" or "85%".
// Anything else reads as absent.
type number struct {
	v  float64
	ok bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = number{}
	switch x := v.(type) {
	case float64:
		*n = number{v: x, ok: true}
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(x), "%")
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = number{v: f, ok: true}
		}
	}
	return nil
}

func (n number) ptr() *float64 {
	if !n.ok {
		return nil
	}
	v := n.v
	return &v
}

// flag accepts a JSON boolean, a boolean-like string or a number.
// Anything else reads as false.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case bool:
		*f = flag(x)
	case float64:
		*f = x != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1", "on":
			*f = true
		default:
			*f = false
		}
	default:
		*f = false
	}
	return nil
}

// textList accepts an array of text values or a single text value. Items
// that are not text are dropped.
type textList []string

func (l *textList) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		var one text
		if json.Unmarshal(b, &one) == nil && one != "" {
			*l = textList{string(one)}
			return nil
		}
		*l = textList{}
		return nil
	}
	out := make(textList, 0, len(items))
	for _, item := range items {
		var t text
		if json.Unmarshal(item, &t) == nil && t != "" {
			out = append(out, string(t))
		}
	}
	*l = out
	return nil
}

// objectMap accepts a JSON object. Anything else reads as nil, which keeps
// the stored value.
type objectMap map[string]any

func (m *objectMap) UnmarshalJSON(b []byte) error {
	var v map[string]any
	if err := json.Unmarshal(b, &v); err != nil {
		*m = nil
		return nil
	}
	*m = v
	return nil
}
