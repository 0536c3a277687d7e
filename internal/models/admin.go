package models

// AdminIdentity is the admin holding the current session.
type AdminIdentity struct {
	ID    int64  `json:"admin_id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// IsZero reports whether no admin is set.
func (a AdminIdentity) IsZero() bool {
	return a.ID == 0 && a.Name == ""
}
