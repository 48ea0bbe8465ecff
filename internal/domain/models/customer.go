package models

// Customer holds the partner assignments of a PPPoE subscriber, keyed by
// username in the customer data file.
type Customer struct {
	AgentID      ID     `json:"agentId,omitempty"`
	TechnicianID ID     `json:"technicianId,omitempty"`
	Name         string `json:"name,omitempty"`
	Address      string `json:"address,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// SharedPartner reports whether agent and technician are the same person.
func (c Customer) SharedPartner() bool {
	return c.AgentID == c.TechnicianID
}
