package store

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// legacyEntry is the older on-disk shape: a picker item that was
// persisted as-is.
type legacyEntry struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

var errNotArray = errors.New("settings document is not a JSON array")

// decode parses a settings document. When the first element carries a
// "label" key, every element is decoded as a legacyEntry and converted
// with fromLegacy; migrated reports that this happened.
func decode[R Record](
	data []byte, fromLegacy func(legacyEntry) R,
) (items []R, migrated bool, err error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []R{}, false, nil
	}
	if !gjson.ValidBytes(data) {
		// json.Unmarshal gives a better error than gjson.
		var probe any
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, false, err
		}
		return nil, false, errors.New("invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, false, errNotArray
	}

	if fromLegacy != nil && doc.Get("0.label").Exists() {
		var old []legacyEntry
		if err := json.Unmarshal(data, &old); err != nil {
			return nil, false, err
		}
		items = make([]R, 0, len(old))
		for _, e := range old {
			items = append(items, fromLegacy(e))
		}
		return items, true, nil
	}

	items = []R{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, err
	}
	return items, false, nil
}
