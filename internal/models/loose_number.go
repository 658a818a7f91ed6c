package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// LooseNumber keeps a numeric field as the upstream sent it. The upstream
// emits numbers as JSON numbers, strings like "25,5 g" or null. Strings are
// kept verbatim and JSON numbers in plain decimal form. Decoding never
// fails; unusable values decode as unset.
type LooseNumber struct {
	raw string
	set bool
}

// NewLooseNumber wraps raw text as a LooseNumber
func NewLooseNumber(raw string) LooseNumber {
	return LooseNumber{raw: raw, set: true}
}

// Raw returns the original text
func (n LooseNumber) Raw() string {
	return n.raw
}

// IsSet reports whether the field was present and not null
func (n LooseNumber) IsSet() bool {
	return n.set
}

func (n *LooseNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*n = LooseNumber{}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*n = LooseNumber{raw: s, set: true}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		v, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return nil
		}
		*n = LooseNumber{raw: strconv.FormatFloat(v, 'f', -1, 64), set: true}
	}

	return nil
}

func (n LooseNumber) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	return json.Marshal(n.raw)
}
