package models

// PPPoEUpdate lists the secret fields an operator may change. Empty fields
// are left untouched on the router.
type PPPoEUpdate struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Profile  string `json:"profile"`
	Service  string `json:"service"`
	Comment  string `json:"comment"`
}

// Empty reports whether nothing would be changed.
func (u PPPoEUpdate) Empty() bool {
	return u == PPPoEUpdate{}
}
