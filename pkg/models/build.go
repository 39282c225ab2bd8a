package models

import "time"

// NextTest is the result of one pull against a build's pool: either an
// assigned test spec with StatusOngoing, or StatusDone once the pool is
// exhausted.
type NextTest struct {
	Status   Status `json:"status"`
	NextTest string `json:"next_test,omitempty"`
}

// BuildInfo is a read-only snapshot of one build, served by the
// dashboard and status endpoints.
type BuildInfo struct {
	ID            string    `json:"id"`
	CreatedOn     time.Time `json:"created_on"`
	Remaining     int       `json:"remaining"`      // Specs still pending
	Dispatched    int       `json:"dispatched"`     // Specs handed out so far
	Instances     int       `json:"instances"`      // Registered worker instances
	DoneInstances int       `json:"done_instances"` // Instances that reported completion
}
