package docstore

import (
	"time"

	"github.com/goccy/go-json"

	domainerrors "github.com/uniquefilms/uniquefilms-server/internal/errors"
)

type serverTimestamp struct{}

type increment struct {
	n int64
}

// ServerTimestamp is a field value replaced with the store's clock when the
// write is committed.
var ServerTimestamp any = serverTimestamp{}

// Increment is a field value that atomically adds n to the stored number.
// A missing or non-numeric field counts as zero.
func Increment(n int64) any {
	return increment{n: n}
}

// resolve applies transforms in fields against the existing values, inside
// the write transaction.
func resolve(fields, existing map[string]any, now time.Time) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch t := v.(type) {
		case serverTimestamp:
			out[k] = now.UTC().Format(TimestampLayout)
		case increment:
			out[k] = numberOf(existing[k]) + float64(t.n)
		case map[string]any:
			sub, _ := existing[k].(map[string]any)
			r, err := resolve(t, sub, now)
			if err != nil {
				return nil, err
			}
			out[k] = r
		default:
			if err := checkEncodable(k, v); err != nil {
				return nil, err
			}
			out[k] = v
		}
	}
	return out, nil
}

func numberOf(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return 0
	}
}

// checkEncodable rejects values that would not survive the JSON record encoding.
func checkEncodable(field string, v any) error {
	switch v.(type) {
	case nil, string, bool, float64, float32, int, int32, int64, uint, uint32, uint64, []any, time.Time:
		return nil
	}
	if _, err := json.Marshal(v); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeValidation, "field %q cannot be stored", field)
	}
	return nil
}
