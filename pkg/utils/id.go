package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateExperimentID generates an experiment ID with a timestamp
// prefix so artifact files sort chronologically.
func GenerateExperimentID() string {
	timestamp := time.Now().Format("2006_01_02-15_04_05")
	return fmt.Sprintf("exp-%s-%s", timestamp, uuid.NewString()[:8])
}
