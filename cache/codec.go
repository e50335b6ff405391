package cache

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Values cross the cache boundary as msgpack so that every reader gets its
// own copy and nobody can mutate a stored value in place.

func encode[T any](v T) ([]byte, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cache: encode %T: %w", v, err)
	}
	return b, nil
}

func decode[T any](b []byte) (T, error) {
	var out T
	if err := msgpack.Unmarshal(b, &out); err != nil {
		return out, err
	}
	return out, nil
}
