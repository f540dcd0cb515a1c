package mapping

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ShowFields is the typed set of mapped show fields shared by the store,
// the sync engine and the request layer.
type ShowFields struct {
	Title       string
	StartTime   time.Time
	Location    string
	Description string
	Presenter   *string
	Price       *float64
	TicketURL   *string
}

// LocalMap returns the fields keyed by local field name.
func (f ShowFields) LocalMap() map[string]interface{} {
	return map[string]interface{}{
		FieldTitle:       f.Title,
		FieldDateTime:    f.StartTime,
		FieldLocation:    f.Location,
		FieldDescription: f.Description,
		FieldPresenter:   f.Presenter,
		FieldPrice:       f.Price,
		FieldTicketURL:   f.TicketURL,
	}
}

// ToRemote translates local field names to Airtable columns. Keys that are
// not in FieldTable are dropped. Times become RFC 3339 strings and prices
// float64; nil optional values stay nil so Airtable clears the cell.
func ToRemote(local map[string]interface{}) map[string]interface{} {
	remote := make(map[string]interface{}, len(local))
	for key, val := range local {
		f, ok := byLocal[key]
		if !ok {
			continue
		}
		remote[f.Remote] = outboundValue(f.Kind, val)
	}
	return remote
}

func outboundValue(kind FieldKind, val interface{}) interface{} {
	switch v := val.(type) {
	case nil:
		return nil
	case *string:
		if v == nil {
			return nil
		}
		val = *v
	case *float64:
		if v == nil {
			return nil
		}
		val = *v
	case *time.Time:
		if v == nil {
			return nil
		}
		val = *v
	}

	switch kind {
	case KindTime:
		switch v := val.(type) {
		case time.Time:
			return FormatRemoteTime(v)
		case string:
			if t, ok := ParseStrict(v); ok {
				return FormatRemoteTime(t)
			}
			return v
		}
	case KindDecimal:
		if f, err := toFloat(val); err == nil {
			return f
		}
	}
	return val
}

// FromRemote builds local fields from an Airtable fields object. The remote
// column name wins over aliases. A date that cannot be parsed falls back to
// now (see ParseShowTime) and the returned TimeSource says so. A price that is
// present but not numeric is an error.
func FromRemote(remote map[string]interface{}, now time.Time) (*ShowFields, TimeSource, error) {
	out := &ShowFields{}
	source := TimeSourceFallback

	for _, f := range FieldTable {
		raw, found := f.remoteValue(remote)

		switch f.Local {
		case FieldTitle:
			out.Title = stringValue(raw)
		case FieldLocation:
			out.Location = stringValue(raw)
		case FieldDescription:
			out.Description = stringValue(raw)
		case FieldDateTime:
			out.StartTime, source = ParseShowTime(stringValue(raw), now)
		case FieldPresenter:
			out.Presenter = optionalString(raw)
		case FieldTicketURL:
			out.TicketURL = optionalString(raw)
		case FieldPrice:
			if !found {
				continue
			}
			if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
				continue
			}
			p, err := toFloat(raw)
			if err != nil {
				return nil, source, fmt.Errorf("field %q: %w", f.Remote, err)
			}
			out.Price = &p
		}
	}

	return out, source, nil
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}

func optionalString(v interface{}) *string {
	s := strings.TrimSpace(stringValue(v))
	if s == "" {
		return nil
	}
	return &s
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}
