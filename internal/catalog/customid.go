package catalog

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	hashids "github.com/speps/go-hashids/v2"
)

// CustomIDGenerator mints the short immutable tokens that name media
// folders. A token is assigned once at creation and never reused, even
// after the node is deleted.
type CustomIDGenerator struct {
	h *hashids.HashID
}

func NewCustomIDGenerator(salt string) (*CustomIDGenerator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 4
	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("init hashids: %w", err)
	}
	return &CustomIDGenerator{h: h}, nil
}

func (g *CustomIDGenerator) New() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	n := int(binary.BigEndian.Uint32(buf[:]) & 0x7fffffff)
	id, err := g.h.Encode([]int{n})
	if err != nil {
		return "", fmt.Errorf("encode custom id: %w", err)
	}
	return id, nil
}
