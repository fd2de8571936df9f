package bind

import (
	"net/http"
	"sort"

	perr "cardanoidx/internal/platform/errors"

	"github.com/mitchellh/mapstructure"
)

// ParseQuery decodes the URL query string into T by json tag, then validates it
// repeated keys keep the first value; unknown keys are ignored
// a value that does not convert fails with the key as the field
func ParseQuery[T any](r *http.Request) (T, error) {
	var zero, dst T

	in := map[string]any{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			in[k] = vs[0]
		}
	}

	if err := decode(in, &dst); err != nil {
		key := badKey[T](in)
		return zero, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "invalid value for query parameter %q", key), key)
	}

	v, _ := validate()
	if err := v.Struct(dst); err != nil {
		field, msg := firstViolation(err)
		return zero, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", msg), field)
	}
	return dst, nil
}

func decode(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// badKey finds the first key, in sorted order, that fails to decode on its own
func badKey[T any](in map[string]any) string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var one T
		if decode(map[string]any{k: in[k]}, &one) != nil {
			return k
		}
	}
	return "query"
}
