// Package rpcjson registers a JSON codec with grpc-go so services can expose
// gRPC endpoints over plain Go structs, without a protoc step.
//
// Clients select it per call with grpc.CallContentSubtype(rpcjson.Name) or
// per connection with grpc.WithDefaultCallOptions; servers pick it up from the
// content-subtype of the request once the package is imported.
package rpcjson

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// Name is the content-subtype ("application/grpc+json").
const Name = "json"

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (codec) Name() string { return Name }

func init() {
	encoding.RegisterCodec(codec{})
}
