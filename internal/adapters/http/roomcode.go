package http

import (
	"math/rand"

	"github.com/speps/go-hashids/v2"
)

// RoomCodeGenerator turns random integers into short public room codes.
// Hashids is reversible obfuscation, not hashing: the same salt always
// produces the same code for the same number.
type RoomCodeGenerator struct {
	hashids *hashids.HashID
}

func NewRoomCodeGenerator(salt string) (*RoomCodeGenerator, error) {
	data := hashids.NewData()
	data.Salt = salt
	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return &RoomCodeGenerator{hashids: h}, nil
}

func (g *RoomCodeGenerator) Generate() string {
	// 31-bit input keeps the encoded code short.
	code, err := g.hashids.Encode([]int{int(rand.Int31())})
	if err != nil {
		// Encode only fails on negative input; rand.Int31 is non-negative.
		return ""
	}
	return code
}
