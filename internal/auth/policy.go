package auth

type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

type Resource string

const (
	ResourcePatient      Resource = "patient"
	ResourceDoctor       Resource = "doctor"
	ResourceSchedule     Resource = "schedule"
	ResourceAppointment  Resource = "appointment"
	ResourcePrescription Resource = "prescription"
	ResourceMedicine     Resource = "medicine"
	ResourceShortKey     Resource = "short_key"
	ResourceDental       Resource = "dental"
	ResourceReport       Resource = "report"
	ResourceUser         Resource = "user"
)

type grant struct {
	read, write bool
}

var (
	rw = grant{read: true, write: true}
	ro = grant{read: true}
)

// policy is the single source of role permissions. Admin is allowed everything
// and is not listed.
var policy = map[Role]map[Resource]grant{
	RoleDoctor: {
		ResourcePatient:      ro,
		ResourceDoctor:       ro,
		ResourceSchedule:     rw,
		ResourceAppointment:  rw,
		ResourcePrescription: rw,
		ResourceMedicine:     ro,
		ResourceShortKey:     rw,
		ResourceDental:       rw,
		ResourceReport:       ro,
	},
	RoleStaff: {
		ResourcePatient:      rw,
		ResourceDoctor:       ro,
		ResourceSchedule:     ro,
		ResourceAppointment:  rw,
		ResourcePrescription: ro,
		ResourceMedicine:     ro,
		ResourceShortKey:     ro,
		ResourceDental:       ro,
		ResourceReport:       ro,
	},
}

// Allowed reports whether role may perform action on resource.
func Allowed(role Role, action Action, resource Resource) bool {
	if role == RoleAdmin {
		return true
	}
	g, ok := policy[role][resource]
	if !ok {
		return false
	}
	switch action {
	case ActionRead:
		return g.read
	case ActionWrite:
		return g.write
	}
	return false
}
