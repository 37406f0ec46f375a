package store

import "time"

type ArchivedReport struct {
	ID         string
	Surface    string
	Generation uint64
	Range      string
	State      string
	Processes  []string
	CreatedAt  time.Time
	Payload    []byte
}
