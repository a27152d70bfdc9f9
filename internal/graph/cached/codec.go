package cached

import (
	"encoding/json"
	"fmt"

	"dexgraph/internal/errors"
)

// envelopeVersion tags every stored entry. Bump it when a result type
// changes shape; old entries then fail loudly instead of decoding into the
// wrong fields.
const envelopeVersion = 1

type envelope struct {
	V      int             `json:"v"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
}

func encodeEntry[T any](method, key string, result T) ([]byte, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("encode %s result", method)),
			errors.CtxKey, key)
	}
	blob, err := json.Marshal(envelope{V: envelopeVersion, Method: method, Result: raw})
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeStorageError, "encode cache envelope"),
			errors.CtxKey, key)
	}
	return blob, nil
}

func decodeEntry[T any](method, key string, blob []byte) (T, error) {
	var zero T
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return zero, errors.AddContext(
			errors.Wrap(err, errors.CodeStorageError, "decode cache envelope"),
			errors.CtxKey, key)
	}
	if env.V != envelopeVersion {
		return zero, errors.AddContext(
			errors.New(errors.CodeStorageError, fmt.Sprintf("cache entry has envelope version %d, reader expects %d", env.V, envelopeVersion)),
			errors.CtxKey, key)
	}
	if env.Method != method {
		return zero, errors.AddContext(
			errors.New(errors.CodeStorageError, fmt.Sprintf("cache entry was written by %q, read as %q", env.Method, method)),
			errors.CtxKey, key)
	}
	var out T
	if err := json.Unmarshal(env.Result, &out); err != nil {
		return zero, errors.AddContext(
			errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("decode %s result", method)),
			errors.CtxKey, key)
	}
	return out, nil
}
