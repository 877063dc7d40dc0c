package domain

import (
	"fmt"
	"strings"
	"time"
)

// Process identifies an external asynchronous process observed through
// status events.
type Process string

const (
	ProcessCompilation         Process = "compilation"
	ProcessPlainTextExtraction Process = "plaintext_extraction"
	ProcessClassification      Process = "classification"
)

// ProcessState is the reported status of an external process.
type ProcessState string

const (
	ProcessRequested ProcessState = "requested"
	ProcessSucceeded ProcessState = "succeeded"
	ProcessFailed    ProcessState = "failed"
)

// Terminal reports whether the state ends a process run.
func (s ProcessState) Terminal() bool {
	return s == ProcessSucceeded || s == ProcessFailed
}

// ProcessStatus is an append-only, timestamped record of an external
// process's status. Records are never mutated after projection.
type ProcessStatus struct {
	Creator    Agent        `json:"creator"`
	Created    time.Time    `json:"created"`
	Process    Process      `json:"process"`
	Status     ProcessState `json:"status"`
	Identifier string       `json:"identifier"`
	Service    string       `json:"service,omitempty"`
	Version    string       `json:"version,omitempty"`
	Reason     string       `json:"reason,omitempty"`
}

// ProcessIdentifier builds the composite identifier shared by all records
// of one logical compilation: source id, content checksum, output format.
func ProcessIdentifier(sourceID, checksum, outputFormat string) string {
	return fmt.Sprintf("%s::%s::%s", sourceID, checksum, outputFormat)
}

// SplitProcessIdentifier is the inverse of ProcessIdentifier.
func SplitProcessIdentifier(identifier string) (sourceID, checksum, outputFormat string, err error) {
	parts := strings.Split(identifier, "::")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("malformed process identifier %q", identifier)
	}
	return parts[0], parts[1], parts[2], nil
}
