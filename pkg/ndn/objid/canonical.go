package objid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
)

// Canonicalize produces a sort-keyed JSON encoding of v: every JSON
// object's keys are recursively emitted in ascending order, with no
// insignificant whitespace. Round-trip holds: decoding the canonical
// string back into a generic value and re-canonicalizing yields the
// same string, and two values that are deep-equal as JSON always
// canonicalize identically regardless of original key order.
func Canonicalize(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s", errors.ErrEncode, err)
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return "", fmt.Errorf("%w: %s", errors.ErrEncode, err)
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, generic); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(val.String())
	case string:
		enc, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("%w: %s", errors.ErrEncode, err)
		}
		buf.Write(enc)
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyEnc, err := json.Marshal(k)
			if err != nil {
				return fmt.Errorf("%w: %s", errors.ErrEncode, err)
			}
			buf.Write(keyEnc)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: unsupported canonical value type %T", errors.ErrEncode, v)
	}
	return nil
}
