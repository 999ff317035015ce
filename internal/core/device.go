package core

// GroupRole is a device's position in a multi-room group.
type GroupRole string

const (
	RoleStandalone GroupRole = "standalone"
	RoleMaster     GroupRole = "master"
	RoleSlave      GroupRole = "slave"
)

// Device identifies a managed speaker.
type Device struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Host     string    `json:"host"`
	Role     GroupRole `json:"role"`
	MasterID string    `json:"master_id,omitempty"`
}

// IsSlave returns true if the device follows a master.
func (d *Device) IsSlave() bool {
	return d != nil && d.Role == RoleSlave
}
