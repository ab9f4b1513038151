package card

import (
	"encoding/base64"
	"fmt"
)

// AudioSource is synthesized speech exactly as received over the bridge:
// base64 data plus its content type.
type AudioSource struct {
	ContentType string
	Data        string
}

// DataURL returns the source as a data: URL, the form a page audio element
// plays directly.
func (a AudioSource) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", a.ContentType, a.Data)
}

// Bytes decodes the audio payload.
func (a AudioSource) Bytes() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	return b, nil
}
