package httpapi

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Protobuf clients exchange google.protobuf.Struct messages whose fields
// mirror the JSON bodies. Conversion goes through the JSON form so both
// encodings share one set of struct tags.
//
// Struct numbers are doubles: integers above 2^53 lose precision on the
// protobuf path. Clients handling larger amounts should use JSON.

// structToValue decodes a Struct into v via its JSON form.
func structToValue(s *structpb.Struct, v any) error {
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("struct to json: %w", err)
	}
	return json.Unmarshal(data, v)
}

// valueToStruct encodes v as JSON and parses it into a Struct. v must
// encode as a JSON object.
func valueToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("json to struct: %w", err)
	}
	return s, nil
}
