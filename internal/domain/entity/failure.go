package entity

import "fmt"

// AttemptFailure is the tagged error half of a per-attempt result. Both
// orchestrator paths and the dispatcher aggregate these instead of aborting
// a batch or silently dropping an error.
type AttemptFailure struct {
	UPC    string `json:"upc,omitempty"`
	Source string `json:"source,omitempty"`
	Reason string `json:"reason"`
}

func (f AttemptFailure) String() string {
	switch {
	case f.UPC == "":
		return fmt.Sprintf("%s: %s", f.Source, f.Reason)
	case f.Source == "":
		return fmt.Sprintf("%s: %s", f.UPC, f.Reason)
	default:
		return fmt.Sprintf("%s/%s: %s", f.Source, f.UPC, f.Reason)
	}
}
