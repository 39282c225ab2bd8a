package models

import "time"

// Status reports whether a participant (or a pull response) still has
// work ahead of it.
type Status string

const (
	StatusOngoing Status = "ongoing"
	StatusDone    Status = "done"
)

// Instance holds the registration record of one worker instance within
// a build. CandidateTests is what the instance declared at registration
// time and is read-only afterwards; TestList accumulates the specs the
// coordinator actually handed to this instance.
type Instance struct {
	ID             string    `json:"-"`
	CandidateTests []string  `json:"-"`
	TestList       []string  `json:"test_list"`
	TestStatus     Status    `json:"test_status"`
	IsMaster       bool      `json:"is_master"` // First instance to register for the build
	RegisteredAt   time.Time `json:"-"`
}
