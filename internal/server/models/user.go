package models

import "time"

const (
	RoleMaster = "master"
	RolePastor = "pastor"
	RoleLeader = "leader"
)

const (
	ScopeGlobal = "global"
	ScopeState  = "state"
	ScopeRegion = "region"
	ScopeChurch = "church"
)

// Permissions are UI capability flags carried with the user profile.
type Permissions struct {
	CanView   bool `json:"canView"`
	CanEdit   bool `json:"canEdit"`
	CanPrint  bool `json:"canPrint"`
	CanExport bool `json:"canExport"`
	CanShare  bool `json:"canShare"`
}

type User struct {
	UserID       string      `json:"userId"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash []byte      `json:"-"`
	Role         string      `json:"role"`
	Scope        string      `json:"scope"`
	ChurchID     string      `json:"churchId"`
	Church       string      `json:"church"`
	Region       string      `json:"region"`
	State        string      `json:"state"`
	Permissions  Permissions `json:"permissions"`
	Active       bool        `json:"active"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Caller is the authenticated identity attached to a request.
type Caller struct {
	UserID   string
	Name     string
	Role     string
	Scope    string
	ChurchID string
	Church   string
	Region   string
	State    string
}

// IsMaster reports whether the caller holds the privileged role.
func (c Caller) IsMaster() bool {
	return c.Role == RoleMaster
}
