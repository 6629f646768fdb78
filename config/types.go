package config

import (
	"encoding"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ByteSize wraps uint64 to provide json serialization and
// deserialization with "Ki", "Mi" and "Gi" suffixes.
//
// NOTE: the zero value encodes to "0".
type ByteSize uint64

var byteUnits = []struct {
	suffix string
	size   uint64
}{
	{"Gi", 1 << 30},
	{"Mi", 1 << 20},
	{"Ki", 1 << 10},
}

func (d *ByteSize) UnmarshalText(text []byte) error {
	str := strings.TrimSpace(string(text))
	if str == "" {
		*d = 0
		return nil
	}
	multiplier := uint64(1)
	for _, u := range byteUnits {
		if len(str) > len(u.suffix) && strings.EqualFold(str[len(str)-len(u.suffix):], u.suffix) {
			str = str[:len(str)-len(u.suffix)]
			multiplier = u.size
			break
		}
	}
	n, err := strconv.ParseUint(strings.TrimSpace(str), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid byte size %q", text)
	}
	*d = ByteSize(n * multiplier)
	return nil
}

func (d ByteSize) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d ByteSize) String() string {
	if d != 0 {
		for _, u := range byteUnits {
			if uint64(d)%u.size == 0 {
				return fmt.Sprintf("%d%s", uint64(d)/u.size, u.suffix)
			}
		}
	}
	return strconv.FormatUint(uint64(d), 10)
}

// Duration wraps time.Duration to provide json serialization and
// deserialization.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	*d = Duration(dur)
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

var _ encoding.TextUnmarshaler = (*Duration)(nil)
var _ encoding.TextMarshaler = (*Duration)(nil)
var _ encoding.TextUnmarshaler = (*ByteSize)(nil)
