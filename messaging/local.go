package messaging

import (
	"context"
	"encoding/json"
	"fmt"
)

// Local is an in-process Transport. Envelopes still pass through JSON so the
// handler sees exactly what it would receive over a socket.
type Local struct {
	Handler Handler
}

// RoundTrip implements Transport.
func (l Local) RoundTrip(ctx context.Context, env Envelope) (Response, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return Response{}, fmt.Errorf("encode envelope: %w", err)
	}
	var in Envelope
	if err := json.Unmarshal(data, &in); err != nil {
		return Response{}, fmt.Errorf("decode envelope: %w", err)
	}

	resp := Dispatch(ctx, l.Handler, in)
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	return resp, nil
}
