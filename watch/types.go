package watch

import (
	"sync"
	"time"

	"github.com/aminech33/newmars/scanner"
)

// Event is one observed change to a component source file, with the
// dependency entry it produced.
type Event struct {
	Time       time.Time `json:"time"`
	Op         string    `json:"op"`   // CREATE, WRITE, REMOVE, RENAME
	Path       string    `json:"path"` // relative to the project root
	Component  string    `json:"component,omitempty"`
	Imports    []string  `json:"imports,omitempty"`
	StoreUsage []string  `json:"store_usage,omitempty"`
	Lines      int       `json:"lines,omitempty"`
	Delta      int       `json:"delta,omitempty"` // line count change (+/-)
}

// FileState is the per-file cache used to compute deltas and drop no-op writes.
type FileState struct {
	Lines int
	Hash  uint64
}

// Live holds the daemon's view of the project.
type Live struct {
	mu         sync.RWMutex
	Root       string
	Files      map[string]*scanner.CodeDependency // relative path -> dependency entry
	State      map[string]*FileState
	Counted    map[string]bool // every qualifying file, readable or not
	Events     []Event
	TotalFiles int // always len(Counted)
	LastScan   time.Time
}

// State is the snapshot persisted to .newmars/state.json.
type State struct {
	UpdatedAt    time.Time      `json:"updated_at"`
	FileCount    int            `json:"file_count"`
	Components   int            `json:"components"`
	StoreFields  map[string]int `json:"store_fields"`
	RecentEvents []Event        `json:"recent_events"`
}
