package util

import "github.com/google/uuid"

// UUIDGenerator issues random v4 UUIDs with an optional prefix.
type UUIDGenerator struct {
	Prefix string
}

func (g *UUIDGenerator) GenerateID() string {
	return g.Prefix + uuid.NewString()
}
