package application

import evaluation "survey-cadence/internal/evaluation/domain"

// EvaluationCompleted is published after a result is stored.
type EvaluationCompleted struct {
	Result evaluation.Result `json:"result"`
}
