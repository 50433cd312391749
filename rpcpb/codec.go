package rpcpb

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodecName is registered as the grpc content-subtype used by
// every connection this module dials or serves. Real protobuf
// generation is out of reach without running protoc, and the
// network transport and serialization layer is explicitly a
// collaborator boundary, so grpc here carries plain JSON frames
// instead of protobuf wire format. The teacher carries real
// protoc-generated raftypb messages over grpc's default codec;
// this is the closest equivalent reachable by hand.
const jsonCodecName = "json"

// codec implements grpc's encoding.Codec using encoding/json.
type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (codec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(codec{})
}
