package queue

const TypePlanEvolve = "plan:evolve"

type PlanEvolvePayload struct {
	AnalysisID string `json:"analysis_id"`
}
