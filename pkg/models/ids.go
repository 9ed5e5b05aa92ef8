package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a sortable entity identifier: the current Unix millisecond
// timestamp joined with the first segment of a random UUID. Lexicographic
// order of ids from the same process roughly follows creation order, which
// keeps provider listings stable without a separate sequence.
func NewID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), strings.SplitN(uuid.NewString(), "-", 2)[0])
}
