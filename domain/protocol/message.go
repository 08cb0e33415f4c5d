// Package protocol frames relay traffic for the companion microcontroller
// and decodes the commands it sends back. Every message is one text line;
// there is no handshake, acknowledgment or checksum.
package protocol

import (
	"encoding/hex"
	"fmt"
)

// DefaultChunkSize is the number of image bytes carried per IMAGE_DATA line.
const DefaultChunkSize = 64

// Message is one outbound line.
type Message interface {
	Line() string
}

type ImageStart struct{}

type ImageChunk struct{ Hex string }

type ImageEnd struct{}

type ZoneAlert struct {
	AreaRatio  float64
	FrameIndex uint64
}

func (ImageStart) Line() string   { return "IMAGE_START:\n" }
func (m ImageChunk) Line() string { return "IMAGE_DATA:" + m.Hex + "\n" }
func (ImageEnd) Line() string     { return "IMAGE_END\n" }
func (m ZoneAlert) Line() string {
	return fmt.Sprintf("ZONE_DETECTED:Oil spill detected, area ratio: %.4f, frame: %d\n", m.AreaRatio, m.FrameIndex)
}

// ImageMessages frames buf as start, lowercase-hex chunks of chunkSize bytes
// (the last may be shorter), end.
func ImageMessages(buf []byte, chunkSize int) []Message {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	msgs := make([]Message, 0, len(buf)/chunkSize+3)
	msgs = append(msgs, ImageStart{})
	for off := 0; off < len(buf); off += chunkSize {
		end := min(off+chunkSize, len(buf))
		msgs = append(msgs, ImageChunk{Hex: hex.EncodeToString(buf[off:end])})
	}
	return append(msgs, ImageEnd{})
}

// Reassemble decodes the chunk payloads of msgs back into the image bytes.
// The ground side of the link does the same.
func Reassemble(msgs []Message) ([]byte, error) {
	var out []byte
	for _, m := range msgs {
		c, ok := m.(ImageChunk)
		if !ok {
			continue
		}
		b, err := hex.DecodeString(c.Hex)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}
