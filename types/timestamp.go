package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// UnixTimestamp is unsigned seconds since epoch. Its wire form is the decimal
// string of the integer, never a JSON number, so permissive JSON decoders
// never round-trip it through a float and lose precision.
type UnixTimestamp uint64

// Now returns the current wall-clock time as a UnixTimestamp.
func Now() UnixTimestamp {
	return UnixTimestamp(time.Now().Unix())
}

func (t UnixTimestamp) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// ParseUnixTimestamp parses a decimal string, rejecting negative or
// non-integer forms.
func ParseUnixTimestamp(s string) (UnixTimestamp, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid unix timestamp %q: %w", s, err)
	}
	return UnixTimestamp(v), nil
}

func (t UnixTimestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *UnixTimestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unix timestamp must be a JSON string: %w", err)
	}
	v, err := ParseUnixTimestamp(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}
