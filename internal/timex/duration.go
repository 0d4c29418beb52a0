// Package timex provides a Duration wrapper that unmarshals from JSON as
// either a duration string ("24h") or integer nanoseconds. It exists so
// configuration files can state durations in a readable form.
package timex

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration embeds time.Duration and adds JSON unmarshalling.
type Duration struct {
	time.Duration
}

// UnmarshalJSON accepts either a string parsed by time.ParseDuration or a
// number treated as nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration: %v", v)
	}
	return nil
}
