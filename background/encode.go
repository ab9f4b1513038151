package background

import (
	"encoding/base64"
	"strings"
)

// chunkSize is a multiple of 3 so every chunk but the last encodes without
// padding and the concatenation equals a one-shot encoding.
const chunkSize = 8190

// EncodeAudio base64-encodes audio in bounded chunks.
func EncodeAudio(audio []byte) string {
	var b strings.Builder
	b.Grow(base64.StdEncoding.EncodedLen(len(audio)))

	buf := make([]byte, base64.StdEncoding.EncodedLen(chunkSize))
	for len(audio) > 0 {
		n := min(chunkSize, len(audio))
		m := base64.StdEncoding.EncodedLen(n)
		base64.StdEncoding.Encode(buf[:m], audio[:n])
		b.Write(buf[:m])
		audio = audio[n:]
	}
	return b.String()
}
