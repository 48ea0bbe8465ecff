package models

import "sort"

// RoleAdmin and RolePartner are the user roles the billing views recognize.
const (
	RoleAdmin   = "admin"
	RolePartner = "partner"
)

// User is an operator account from the users file. Partners carry their
// commission rates as percentages.
type User struct {
	ID             ID     `json:"id"`
	Username       string `json:"username"`
	Password       string `json:"password,omitempty"`
	Role           string `json:"role"`
	AgentRate      Number `json:"agentRate,omitempty"`
	TechnicianRate Number `json:"technicianRate,omitempty"`
	IsAgent        bool   `json:"isAgent,omitempty"`
	IsTechnician   bool   `json:"isTechnician,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
}

// Capability is something an authenticated principal is allowed to act as.
type Capability string

const (
	CapabilityAdmin      Capability = "admin"
	CapabilityPartner    Capability = "partner"
	CapabilityAgent      Capability = "agent"
	CapabilityTechnician Capability = "technician"
)

// CapabilitySet is an unordered set of capabilities.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from the given capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// List returns the capabilities in sorted order.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Principal is the authenticated viewer of a request.
type Principal struct {
	ID             ID
	Username       string
	Role           string
	AgentRate      float64
	TechnicianRate float64
	Capabilities   CapabilitySet
}

// NewPrincipal derives a principal and its capabilities from a stored user.
func NewPrincipal(u User) Principal {
	caps := NewCapabilitySet()
	switch u.Role {
	case RoleAdmin:
		caps[CapabilityAdmin] = struct{}{}
	case RolePartner:
		caps[CapabilityPartner] = struct{}{}
	}
	if u.IsAgent {
		caps[CapabilityAgent] = struct{}{}
	}
	if u.IsTechnician {
		caps[CapabilityTechnician] = struct{}{}
	}

	return Principal{
		ID:             u.ID,
		Username:       u.Username,
		Role:           u.Role,
		AgentRate:      u.AgentRate.Float64(),
		TechnicianRate: u.TechnicianRate.Float64(),
		Capabilities:   caps,
	}
}

// Can reports whether the principal holds capability c.
func (p Principal) Can(c Capability) bool {
	return p.Capabilities.Has(c)
}

// IsAdmin reports whether the principal sees the operator-wide views.
func (p Principal) IsAdmin() bool {
	return p.Can(CapabilityAdmin)
}

// IsPartner reports whether the principal may see its own partner view.
func (p Principal) IsPartner() bool {
	return p.Can(CapabilityPartner) || p.Can(CapabilityAgent) || p.Can(CapabilityTechnician)
}
