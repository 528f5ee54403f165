package ports

import "thorplan/internal/domain/action"

type ActionMetrics interface {
	RecordSuccess(kind action.Kind)
	RecordFailure(kind action.Kind, outcome string)
}
