package model

import (
	"fmt"
	"strings"
)

type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

func (o Outcome) String() string {
	return string(o)
}

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeProcessed, OutcomeSkipped, OutcomeFailed:
		return true
	default:
		return false
	}
}

func ParseOutcome(s string) (Outcome, error) {
	outcome := Outcome(strings.ToLower(strings.TrimSpace(s)))
	if !outcome.IsValid() {
		return "", fmt.Errorf("invalid outcome: %s", s)
	}

	return outcome, nil
}

func AllOutcomes() []Outcome {
	return []Outcome{OutcomeProcessed, OutcomeSkipped, OutcomeFailed}
}
