// Policy evaluation over the closed role and action sets. All record-level
// authorization goes through Authorize; handlers never branch on roles
// themselves, which keeps the authorization surface a single auditable table.
package auth

import "github.com/hms/hms/internal/platform/respond"

// Role is the closed set of caller roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Action is the closed set of intended operations on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ResourceKind identifies what kind of resource is being authorized.
type ResourceKind string

const (
	KindMedicalRecord ResourceKind = "medical_record"
	KindPayment       ResourceKind = "payment"
	KindAppointment   ResourceKind = "appointment"
)

// Ownership carries the owning ids of the resource under authorization.
type Ownership struct {
	PatientID  string
	DoctorID   string
	HospitalID string
}

// Outcome distinguishes why access was granted or refused. Only Allowed and
// OutcomeNoIdentity are visible to callers through distinct HTTP statuses;
// role and ownership denials both surface as a bare "Access denied".
type Outcome int

const (
	OutcomeAllowed Outcome = iota
	OutcomeNoIdentity
	OutcomeRoleDenied
	OutcomeOwnershipDenied
)

// Decision is the result of a policy evaluation. Reason is for logs only.
type Decision struct {
	Outcome Outcome
	Reason  string
}

func (d Decision) Allowed() bool { return d.Outcome == OutcomeAllowed }

// Err maps a denial onto the error taxonomy. Nil for allowed decisions.
func (d Decision) Err() error {
	switch d.Outcome {
	case OutcomeAllowed:
		return nil
	case OutcomeNoIdentity:
		return respond.Unauthenticated("")
	default:
		return respond.Denied()
	}
}

// gate is the ownership condition a role must satisfy for an action.
type gate int

const (
	gateNever gate = iota // role is structurally incapable of the action
	gateAlways
	gateOwnPatient // resource's patient id must equal the subject
	gateOwnDoctor  // resource's doctor id must equal the subject
	gateHospital   // resource's hospital id must equal the claim's hospital
)

// policy is the full authorization table. Admin and manager bypass it.
// Absent entries deny.
var policy = map[Role]map[ResourceKind]map[Action]gate{
	RolePatient: {
		KindMedicalRecord: {ActionRead: gateOwnPatient},
		KindPayment:       {ActionRead: gateOwnPatient},
		KindAppointment:   {ActionRead: gateOwnPatient, ActionCreate: gateOwnPatient, ActionUpdate: gateOwnPatient},
	},
	RoleDoctor: {
		KindMedicalRecord: {ActionRead: gateOwnDoctor, ActionCreate: gateOwnDoctor, ActionUpdate: gateOwnDoctor, ActionDelete: gateOwnDoctor},
		KindPayment:       {ActionRead: gateOwnDoctor, ActionCreate: gateOwnDoctor, ActionUpdate: gateOwnDoctor},
		KindAppointment:   {ActionRead: gateOwnDoctor, ActionUpdate: gateOwnDoctor},
	},
	RoleStaff: {
		// Front-desk and billing staff operate within their own hospital:
		// attachments on records, payment entry, appointment scheduling.
		// Clinical creation and deletion stay with the treating doctor.
		KindMedicalRecord: {ActionRead: gateHospital, ActionUpdate: gateHospital},
		KindPayment:       {ActionRead: gateHospital, ActionCreate: gateHospital, ActionUpdate: gateHospital},
		KindAppointment:   {ActionRead: gateHospital, ActionCreate: gateHospital, ActionUpdate: gateHospital},
	},
}

// Authorize decides whether the caller may perform action on the resource
// described by own. The role gate is evaluated before the ownership gate:
// a role with no entry for the action is denied regardless of ownership.
func Authorize(claims *Claims, kind ResourceKind, own Ownership, action Action) Decision {
	if claims == nil || claims.Subject == "" {
		return Decision{Outcome: OutcomeNoIdentity, Reason: "no identity"}
	}

	if claims.Role == RoleAdmin || claims.Role == RoleManager {
		return Decision{Outcome: OutcomeAllowed, Reason: string(claims.Role) + " role"}
	}

	kinds, ok := policy[claims.Role]
	if !ok {
		return Decision{Outcome: OutcomeRoleDenied, Reason: "unknown role " + string(claims.Role)}
	}
	actions, ok := kinds[kind]
	if !ok {
		return Decision{Outcome: OutcomeRoleDenied, Reason: string(claims.Role) + " has no access to " + string(kind)}
	}
	g, ok := actions[action]
	if !ok || g == gateNever {
		return Decision{Outcome: OutcomeRoleDenied, Reason: string(claims.Role) + " may not " + string(action) + " " + string(kind)}
	}

	switch g {
	case gateAlways:
		return Decision{Outcome: OutcomeAllowed, Reason: "role grant"}
	case gateOwnPatient:
		if own.PatientID != "" && own.PatientID == claims.Subject {
			return Decision{Outcome: OutcomeAllowed, Reason: "own record"}
		}
		return Decision{Outcome: OutcomeOwnershipDenied, Reason: "patient does not own resource"}
	case gateOwnDoctor:
		if own.DoctorID != "" && own.DoctorID == claims.Subject {
			return Decision{Outcome: OutcomeAllowed, Reason: "treating doctor"}
		}
		return Decision{Outcome: OutcomeOwnershipDenied, Reason: "doctor does not own resource"}
	case gateHospital:
		if own.HospitalID != "" && own.HospitalID == claims.HospitalID {
			return Decision{Outcome: OutcomeAllowed, Reason: "hospital scope"}
		}
		return Decision{Outcome: OutcomeOwnershipDenied, Reason: "outside hospital scope"}
	}

	return Decision{Outcome: OutcomeRoleDenied, Reason: "no matching gate"}
}
