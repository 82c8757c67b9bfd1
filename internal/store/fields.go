package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// flexInt decodes a JSON number or a string holding a whole number.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
		if s == "" {
			*n = 0
			return nil
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%s is not a whole number", b)
	}
	*n = flexInt(v)
	return nil
}

// extraFields returns the members of the JSON object data whose keys
// are not in known, compared case-insensitively the way encoding/json
// matches struct fields. Values are compacted so a saved and reloaded
// record compares equal. It returns nil when there are none.
func extraFields(data []byte, known []string) map[string]json.RawMessage {
	var extra map[string]json.RawMessage
	gjson.ParseBytes(data).ForEach(func(k, v gjson.Result) bool {
		isKnown := slices.ContainsFunc(known, func(name string) bool {
			return strings.EqualFold(name, k.String())
		})
		if !isKnown {
			if extra == nil {
				extra = make(map[string]json.RawMessage)
			}
			var buf bytes.Buffer
			if err := json.Compact(&buf, []byte(v.Raw)); err != nil {
				buf.Reset()
				buf.WriteString(v.Raw)
			}
			extra[k.String()] = json.RawMessage(buf.Bytes())
		}
		return true
	})
	return extra
}

// appendExtra adds extra to the encoded JSON object obj, keys sorted.
func appendExtra(obj []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return obj, nil
	}
	obj = bytes.TrimSpace(obj)
	if len(obj) < 2 || obj[len(obj)-1] != '}' {
		return nil, fmt.Errorf("encoding record: not a JSON object")
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var buf bytes.Buffer
	buf.Write(obj[:len(obj)-1])
	empty := len(bytes.TrimSpace(obj[1:len(obj)-1])) == 0
	for _, k := range keys {
		if !empty {
			buf.WriteByte(',')
		}
		empty = false
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
