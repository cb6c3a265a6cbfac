package caster

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// FrameCodec converts typed values to and from wire frames.
type FrameCodec[T any] interface {
	Decode([]byte) (T, error)
	Encode(T) ([]byte, error)
}

// JSONFrameCodec is the codec used on the relay link.
type JSONFrameCodec[T any] struct{}

func (jc JSONFrameCodec[T]) Decode(data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Wrap(err, "decoding frame")
	}
	return v, nil
}

func (jc JSONFrameCodec[T]) Encode(v T) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding frame")
	}
	return data, nil
}
