package domain

// Role determines which lifecycle transitions an operator may perform.
type Role string

const (
	// RoleAdmin administers reference data and may erase records.
	RoleAdmin Role = "ADMIN"
	// RoleApprover decides approve/hold on pending requests.
	RoleApprover Role = "APPROVER"
	// RoleSubmission raises new payment requests.
	RoleSubmission Role = "SUBMISSION"
	// RoleFinance settles approved requests.
	RoleFinance Role = "FINANCE"
)

// User identifies an operator session. Users are supplied by the
// authentication collaborator, not persisted by the core.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
}
