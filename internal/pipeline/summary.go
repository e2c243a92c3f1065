// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "time"

// ItemFailure describes one record that did not complete.
type ItemFailure struct {
	ID      string `json:"id" yaml:"id"`
	Outcome string `json:"outcome" yaml:"outcome"`
	Error   string `json:"error" yaml:"error"`
}

// RunSummary holds the counts from one run.
type RunSummary struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	Listed     int `json:"listed" yaml:"listed"`
	Novel      int `json:"novel" yaml:"novel"`
	Summarized int `json:"summarized" yaml:"summarized"`
	Persisted  int `json:"persisted" yaml:"persisted"`
	Notified   int `json:"notified" yaml:"notified"`
	Skipped    int `json:"skipped" yaml:"skipped"`
	Failed     int `json:"failed" yaml:"failed"`

	Failures []ItemFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

func (s *RunSummary) record(id, outcome string, err error) {
	switch outcome {
	case OutcomeNotified:
		s.Persisted++
		s.Notified++
	case OutcomeNotifyFailed:
		s.Persisted++
	case OutcomeAlreadyPresent:
		s.Skipped++
	}
	if err != nil {
		s.Failed++
		s.Failures = append(s.Failures, ItemFailure{ID: id, Outcome: outcome, Error: err.Error()})
	}
}
