// Package record parses and serializes work-item files.
//
// One file holds one record: a frontmatter block of "key: value" lines
// between --- delimiters, followed by a free-text markdown body. Files are
// the durable source of truth; everything else in this module (the
// cache index, the structured store) is derived from them.
package record

import (
	"strings"
	"time"
)

// Record is one work-item file, parsed.
type Record struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	Priority        string `json:"priority"`
	FunctionalArea  string `json:"functionalArea"`
	ParentID        string `json:"parentId,omitempty"`
	Depth           int    `json:"depth"`
	OrderIndex      int    `json:"orderIndex"`
	EstimatedEffort string `json:"estimatedEffort,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Body string `json:"-"`

	// Scan-time fields. Not part of the frontmatter and excluded from
	// round-trip comparisons.
	HasDescription bool      `json:"hasDescription"`
	Path           string    `json:"path,omitempty"`
	Mtime          time.Time `json:"mtime,omitzero"`
	Size           int64     `json:"size,omitempty"`
	ContentHash    uint64    `json:"contentHash,omitempty"`

	// Derived by the index build, never stored in the file.
	SubtaskCount int  `json:"subtaskCount"`
	HasSubtasks  bool `json:"hasSubtasks"`
}

// Work-item types.
const (
	TypeFeature = "Feature"
	TypeBug     = "Bug"
	TypeEpic    = "Epic"
	TypeStory   = "Story"
	TypeTask    = "Task"
	TypeSubtask = "Subtask"
)

// Work-item statuses.
const (
	StatusPlanned    = "Planned"
	StatusInProgress = "InProgress"
	StatusInReview   = "InReview"
	StatusTesting    = "Testing"
	StatusDone       = "Done"
	StatusCancelled  = "Cancelled"
	StatusBlocked    = "Blocked"
	StatusDeferred   = "Deferred"
)

// Priorities.
const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityUrgent   = "Urgent"
	PriorityCritical = "Critical"
)

// Functional areas.
const (
	AreaSoftware   = "Software"
	AreaLegal      = "Legal"
	AreaOperations = "Operations"
	AreaMarketing  = "Marketing"
)

// Defaults applied by the rehydration import when a file's frontmatter
// omits the field and no directive supplies one.
const (
	DefaultType     = TypeTask
	DefaultStatus   = StatusPlanned
	DefaultPriority = PriorityMedium
)

var validTypes = []string{TypeFeature, TypeBug, TypeEpic, TypeStory, TypeTask, TypeSubtask}

var validStatuses = []string{
	StatusPlanned, StatusInProgress, StatusInReview, StatusTesting,
	StatusDone, StatusCancelled, StatusBlocked, StatusDeferred,
}

var validPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent, PriorityCritical}

// IsValidType reports whether t is a known work-item type.
func IsValidType(t string) bool {
	return contains(validTypes, t)
}

// IsValidStatus reports whether s is a known status.
func IsValidStatus(s string) bool {
	return contains(validStatuses, s)
}

// IsValidPriority reports whether p is a known priority.
func IsValidPriority(p string) bool {
	return contains(validPriorities, p)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}

	return false
}

// Filename returns the canonical filename for a record ID.
func Filename(id string) string {
	return id + ".md"
}

// IDFromFilename recovers the record ID from a filename.
func IDFromFilename(name string) string {
	return strings.TrimSuffix(name, ".md")
}
