package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// AgentType distinguishes the kinds of actors that produce events.
type AgentType string

const (
	AgentUser   AgentType = "user"
	AgentSystem AgentType = "system"
	AgentClient AgentType = "client"
)

// Agent is an actor responsible for events: a human user, the system
// itself (rule-derived events), or an API client.
type Agent struct {
	NativeID     string    `json:"native_id"`
	Type         AgentType `json:"agent_type"`
	Email        string    `json:"email,omitempty"`
	Forename     string    `json:"forename,omitempty"`
	Surname      string    `json:"surname,omitempty"`
	Affiliation  string    `json:"affiliation,omitempty"`
	Endorsements []string  `json:"endorsements,omitempty"`
}

// Identifier is the stable identity of an agent, derived from its type and
// native ID so that the same actor always hashes the same way.
func (a Agent) Identifier() string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(string(a.Type)+":"+a.NativeID)).String()
}

// Name returns a display name for the agent.
func (a Agent) Name() string {
	if a.Forename == "" && a.Surname == "" {
		return a.NativeID
	}
	return fmt.Sprintf("%s %s", a.Forename, a.Surname)
}

// IsEndorsedFor reports whether the agent holds an endorsement for the
// given category. System agents are endorsed for everything.
func (a Agent) IsEndorsedFor(category string) bool {
	if a.Type == AgentSystem {
		return true
	}
	for _, c := range a.Endorsements {
		if c == category {
			return true
		}
	}
	return false
}

// Equal compares agents by identity, not by metadata.
func (a Agent) Equal(other Agent) bool {
	return a.Identifier() == other.Identifier()
}

// SystemAgent returns the agent used for rule-derived events.
func SystemAgent(name string) Agent {
	if name == "" {
		name = "subline"
	}
	return Agent{NativeID: name, Type: AgentSystem}
}
