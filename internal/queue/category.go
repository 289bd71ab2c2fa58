package queue

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is the lifecycle bucket a job was reported in.
type Category int

const (
	Queued Category = iota
	Downloading
	Completed
	Errored
)

// categoryOrder is the fixed display order. Every rendering path iterates it
// instead of the decoded map.
var categoryOrder = [...]Category{Queued, Downloading, Completed, Errored}

var labelCaser = cases.Title(language.English)

// Categories returns the four categories in display order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder[:])
	return out
}

// ParseCategory maps a snapshot bucket key to its Category.
func ParseCategory(key string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "queued":
		return Queued, true
	case "downloading":
		return Downloading, true
	case "completed":
		return Completed, true
	case "error":
		return Errored, true
	default:
		return 0, false
	}
}

// Key returns the bucket key used by the status endpoint.
func (c Category) Key() string {
	switch c {
	case Queued:
		return "queued"
	case Downloading:
		return "downloading"
	case Completed:
		return "completed"
	case Errored:
		return "error"
	default:
		return ""
	}
}

// Label returns the human readable category name ("Downloading").
func (c Category) Label() string {
	key := c.Key()
	if key == "" {
		return ""
	}
	return labelCaser.String(key)
}

// Cancelable reports whether jobs in this bucket can still be cancelled.
func (c Category) Cancelable() bool {
	switch c {
	case Queued, Downloading:
		return true
	default:
		return false
	}
}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	return c.Key() != ""
}

func (c Category) String() string {
	if key := c.Key(); key != "" {
		return key
	}
	return "unknown"
}
