// Package codec registers the JSON codec the Matchmaking service is served with.
// Importing it is enough; clients then call with grpc.CallContentSubtype(codec.Name).
package codec

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const Name = "json"

type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (JSON) Name() string {
	return Name
}

func init() {
	encoding.RegisterCodec(JSON{})
}
