package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// IDList stores a list of user IDs in a single text column as a
// comma-separated string. Used for resolved mention targets, where the list
// is small (capped) and only ever read back whole.
type IDList []uint

// Value implements driver.Valuer.
func (l IDList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "", nil
	}
	parts := make([]string, len(l))
	for i, id := range l {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ","), nil
}

// Scan implements sql.Scanner.
func (l *IDList) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported type %T for IDList", src)
	}

	if raw == "" {
		*l = nil
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make(IDList, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return fmt.Errorf("invalid id %q in IDList: %w", p, err)
		}
		out = append(out, uint(id))
	}
	*l = out
	return nil
}
