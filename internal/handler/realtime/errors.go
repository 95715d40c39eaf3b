package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errTooManyPending = errors.New("too many pending messages")

func errUnknownType(t string) error {
	return fmt.Errorf("unknown message type %q", t)
}

func decode(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return errors.New("data is required")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}
	return nil
}
