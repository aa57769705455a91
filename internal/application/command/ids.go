// Package command contains write operations (CQRS - Commands).
package command

import "github.com/google/uuid"

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	GenerateID() string
}

// UUIDGenerator generates random (version 4) UUIDs.
type UUIDGenerator struct{}

// GenerateID implements IDGenerator.
func (UUIDGenerator) GenerateID() string {
	return uuid.NewString()
}
