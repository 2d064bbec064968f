// Package serialization provides the default Serializer capability.
package serialization

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	cbus "github.com/next-trace/scg-rabbit-bus/contract/bus"
	cerr "github.com/next-trace/scg-rabbit-bus/contract/errors"
)

// JSON serializes payloads as application/json.
type JSON struct{}

var _ cbus.Serializer = JSON{}

// NewJSON returns the default JSON serializer.
func NewJSON() JSON { return JSON{} }

func (JSON) ContentType() string { return "application/json" }

func (JSON) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, errors.Join(cerr.ErrSerializationFailed, err))
	}

	return b, nil
}

func (JSON) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %T: %w", v, errors.Join(cerr.ErrSerializationFailed, err))
	}

	return nil
}
