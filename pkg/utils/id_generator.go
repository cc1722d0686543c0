package utils

import (
	"github.com/google/uuid"
)

// GenerateVisitorID generates the anonymous id stored in the visitor cookie
func GenerateVisitorID() string {
	return "VISITOR-" + uuid.New().String()
}

// GenerateAuditID generates a unique consent audit ID
func GenerateAuditID() string {
	return "AUDIT-" + uuid.New().String()
}

// IsValidVisitorID checks that id was produced by GenerateVisitorID
func IsValidVisitorID(id string) bool {
	const prefix = "VISITOR-"
	if len(id) <= len(prefix) || id[:len(prefix)] != prefix {
		return false
	}
	return IsValidUUID(id[len(prefix):])
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
