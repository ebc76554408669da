package workflow

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const productCodePrefix = "PRD"

// GenerateProductCode returns a fresh candidate product code: the PRD
// prefix plus a 6-digit random suffix. Uniqueness is not checked here; a
// collision is the backend's to reject.
func GenerateProductCode() string {
	return fmt.Sprintf("%s-%d", productCodePrefix, 100000+rand.IntN(900000))
}

func now() time.Time {
	return time.Now().UTC()
}
