package utils

import (
	"strings"

	"github.com/google/uuid"
)

func GenerateID() string {
	return uuid.NewString()
}

// GenerateOrderNumber produces a human-legible order number like "FO3f2a1b8c".
func GenerateOrderNumber() string {
	return "FO" + strings.Split(uuid.NewString(), "-")[0]
}
