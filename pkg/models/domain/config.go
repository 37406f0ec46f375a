package domain

import (
	"fmt"
	"time"
)

// BackendProfile points the gateway at one monitoring backend.
type BackendProfile struct {
	Name    string
	URL     string
	Timeout time.Duration
}

func (p BackendProfile) String() string {
	return fmt.Sprintf("%s:%s", p.Name, p.URL)
}
