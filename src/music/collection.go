package music

import (
	"fmt"
	"strings"
	"time"
)

// Collection is a named root scope for tracked paths and tracks.
type Collection struct {
	ID        string
	Title     string
	Kind      string
	MusicDir  string
	CreatedAt time.Time
}

// Validate validates the collection fields.
func (c *Collection) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("collection title cannot be empty")
	}
	if strings.TrimSpace(c.MusicDir) == "" {
		return fmt.Errorf("collection music directory cannot be empty")
	}
	return nil
}
