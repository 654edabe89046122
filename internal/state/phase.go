package state

// #region phase
// Phase is the cold-start phase derived from a user's interaction count.
type Phase string

const (
	PhaseClassification Phase = "classification"
	PhaseExploration    Phase = "exploration"
	PhaseNormal         Phase = "normal"
)

// Interaction counts at which a user leaves each cold-start phase.
const (
	ClassificationLimit = 15
	ExplorationLimit    = 50
)

// PhaseFor maps an interaction count to its phase.
func PhaseFor(count int) Phase {
	switch {
	case count < ClassificationLimit:
		return PhaseClassification
	case count < ExplorationLimit:
		return PhaseExploration
	default:
		return PhaseNormal
	}
}

// #endregion phase
