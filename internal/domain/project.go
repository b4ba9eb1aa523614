package domain

// ProjectPhase is the reporting phase of a budget envelope.
type ProjectPhase string

const (
	PhasePlanning       ProjectPhase = "Planning"
	PhaseOngoing        ProjectPhase = "Ongoing"
	PhaseNearCompletion ProjectPhase = "Near Completion"
	PhaseCompleted      ProjectPhase = "Completed"
)

// ProjectStatus marks whether an envelope still accepts spend.
type ProjectStatus string

const (
	ProjectActive ProjectStatus = "Active"
	ProjectClosed ProjectStatus = "Closed"
)

// Project is a budget envelope. A payment request's optional project link is
// used only for reporting, never for authorization. Budget is immutable.
type Project struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	ClientDetails string        `json:"clientDetails,omitempty"`
	Location      string        `json:"location,omitempty"`
	InCharge      string        `json:"inCharge,omitempty"`
	Budget        int64         `json:"budget"`
	Phase         ProjectPhase  `json:"phase"`
	CurrentWork   string        `json:"currentWork,omitempty"`
	NextWork      string        `json:"nextWork,omitempty"`
	Status        ProjectStatus `json:"status"`
}
