package chat

// Roles accepted on the event channel.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Message is a single transcript turn delivered over the event channel.
// Messages live only in memory for the lifetime of the process.
type Message struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// ValidRole reports whether the channel sent a role we know how to render.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAgent
}
