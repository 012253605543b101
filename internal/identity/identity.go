package identity

type Role string

const (
	RoleVendor     Role = "vendor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

type Capability string

const (
	CapOrderManage            Capability = "order.manage"
	CapOrderApprove           Capability = "order.approve"
	CapOrderControlledApprove Capability = "order.controlled.approve"
)

// Actor is the per-request caller context: role plus the capability set the
// identity service granted. The core consumes capabilities as opaque booleans.
type Actor struct {
	UserID       string
	Role         Role
	VendorID     string
	capabilities map[Capability]bool
}

func NewActor(userID string, role Role, vendorID string, capabilities []Capability) Actor {
	caps := make(map[Capability]bool, len(capabilities))
	for _, c := range capabilities {
		caps[c] = true
	}
	return Actor{UserID: userID, Role: role, VendorID: vendorID, capabilities: caps}
}

// Can reports whether the actor holds the capability. Super-admins hold all.
func (a Actor) Can(c Capability) bool {
	if a.Role == RoleSuperAdmin {
		return true
	}
	return a.capabilities[c]
}

func (a Actor) IsVendor() bool {
	return a.Role == RoleVendor
}

// OwnsVendor reports whether a vendor actor owns the given sub-order vendor id.
func (a Actor) OwnsVendor(vendorID *string) bool {
	if !a.IsVendor() || vendorID == nil {
		return false
	}
	return a.VendorID != "" && a.VendorID == *vendorID
}
