package domain

import (
	"sort"
	"time"
)

// CompilationStatus is the derived status of a compilation attempt.
type CompilationStatus string

const (
	CompilationInProgress CompilationStatus = "in_progress"
	CompilationSucceeded  CompilationStatus = "succeeded"
	CompilationFailed     CompilationStatus = "failed"
)

// Compilation is a derived view of one compilation attempt, computed from a
// contiguous run of ProcessStatus records. It is never stored.
type Compilation struct {
	SourceID     string            `json:"source_id"`
	Checksum     string            `json:"checksum"`
	OutputFormat string            `json:"output_format"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      *time.Time        `json:"end_time,omitempty"`
	Status       CompilationStatus `json:"status"`
}

// Identifier returns the composite process identifier of the attempt.
func (c Compilation) Identifier() string {
	return ProcessIdentifier(c.SourceID, c.Checksum, c.OutputFormat)
}

var compilationStatus = map[ProcessState]CompilationStatus{
	ProcessRequested: CompilationInProgress,
	ProcessSucceeded: CompilationSucceeded,
	ProcessFailed:    CompilationFailed,
}

// compilationFromRun derives a Compilation from one run of compilation
// process records, assumed sorted by creation time.
func compilationFromRun(run []ProcessStatus) *Compilation {
	if len(run) == 0 {
		return nil
	}
	latest := run[len(run)-1]
	sourceID, checksum, outputFormat, err := SplitProcessIdentifier(latest.Identifier)
	if err != nil {
		return nil
	}
	c := &Compilation{
		SourceID:     sourceID,
		Checksum:     checksum,
		OutputFormat: outputFormat,
		Status:       compilationStatus[latest.Status],
	}
	if latest.Status.Terminal() {
		end := latest.Created
		c.EndTime = &end
		c.StartTime = run[0].Created
		// Earliest REQUESTED record for the same identifier, scanning
		// backward from the terminal record.
		for i := len(run) - 1; i >= 0; i-- {
			if run[i].Identifier == latest.Identifier && run[i].Status == ProcessRequested {
				c.StartTime = run[i].Created
			}
		}
	} else {
		c.StartTime = run[0].Created
	}
	return c
}

// Compilations groups the submission's compilation process records into
// derived Compilation attempts. A record joins the current run when the run
// is empty, or when it shares the run's process identifier and the run has
// not already reached a terminal status.
func (s *Submission) Compilations() []Compilation {
	procs := make([]ProcessStatus, 0, len(s.Processes))
	for _, p := range s.Processes {
		if p.Process == ProcessCompilation {
			procs = append(procs, p)
		}
	}
	sort.SliceStable(procs, func(i, j int) bool {
		return procs[i].Created.Before(procs[j].Created)
	})

	var out []Compilation
	var run []ProcessStatus
	for _, p := range procs {
		if len(run) > 0 {
			last := run[len(run)-1]
			if last.Status.Terminal() || p.Identifier != last.Identifier {
				if c := compilationFromRun(run); c != nil {
					out = append(out, *c)
				}
				run = run[:0]
			}
		}
		run = append(run, p)
	}
	if len(run) > 0 {
		if c := compilationFromRun(run); c != nil {
			out = append(out, *c)
		}
	}
	return out
}

// LatestCompilation returns the most recent compilation attempt, or nil.
func (s *Submission) LatestCompilation() *Compilation {
	all := s.Compilations()
	if len(all) == 0 {
		return nil
	}
	return &all[len(all)-1]
}
