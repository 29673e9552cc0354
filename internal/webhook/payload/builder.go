package payload

import (
	"context"
	"encoding/json"
)

// PayloadBuilder builds the outbound payload for one event family.
type PayloadBuilder interface {
	BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error)
}
