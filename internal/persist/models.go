package persist

import (
	"time"
)

// Assembly is a recorded payload assembly: the request as submitted and the
// payload it produced.
type Assembly struct {
	ID          string
	Preset      string
	RequestJSON string
	PayloadJSON string
	ItemCount   int
	CreatedAt   time.Time
}
