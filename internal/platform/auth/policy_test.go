package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hms/hms/internal/platform/respond"
)

func claimsFor(role Role, subject, hospitalID string) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Role:             role,
		HospitalID:       hospitalID,
	}
}

func TestAuthorizeNoIdentity(t *testing.T) {
	own := Ownership{PatientID: "PAT000001"}

	d := Authorize(nil, KindMedicalRecord, own, ActionRead)
	if d.Outcome != OutcomeNoIdentity {
		t.Fatalf("nil claims: got outcome %v, want OutcomeNoIdentity", d.Outcome)
	}

	d = Authorize(&Claims{}, KindMedicalRecord, own, ActionRead)
	if d.Outcome != OutcomeNoIdentity {
		t.Fatalf("empty subject: got outcome %v, want OutcomeNoIdentity", d.Outcome)
	}

	err := d.Err()
	if err == nil {
		t.Fatal("expected an error for no-identity denial")
	}
	if re, ok := err.(*respond.Error); !ok || re.Kind != respond.KindUnauthenticated {
		t.Fatalf("no-identity denial maps to %v, want KindUnauthenticated", err)
	}
}

func TestAuthorizePatientOwnership(t *testing.T) {
	own := Ownership{PatientID: "PAT000001", DoctorID: "DOC000001", HospitalID: "HOS000001"}

	d := Authorize(claimsFor(RolePatient, "PAT000001", ""), KindMedicalRecord, own, ActionRead)
	if !d.Allowed() {
		t.Fatalf("patient reading own record denied: %s", d.Reason)
	}

	d = Authorize(claimsFor(RolePatient, "PAT000002", ""), KindMedicalRecord, own, ActionRead)
	if d.Outcome != OutcomeOwnershipDenied {
		t.Fatalf("patient reading someone else's record: got %v, want OutcomeOwnershipDenied", d.Outcome)
	}

	// Role gate precedes ownership: a patient may never write a record,
	// even their own.
	for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
		d = Authorize(claimsFor(RolePatient, "PAT000001", ""), KindMedicalRecord, own, action)
		if d.Outcome != OutcomeRoleDenied {
			t.Fatalf("patient %s on own record: got %v, want OutcomeRoleDenied", action, d.Outcome)
		}
	}
}

func TestAuthorizeDoctorOwnership(t *testing.T) {
	own := Ownership{PatientID: "PAT000001", DoctorID: "DOC000001", HospitalID: "HOS000001"}

	for _, action := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
		d := Authorize(claimsFor(RoleDoctor, "DOC000001", ""), KindMedicalRecord, own, action)
		if !d.Allowed() {
			t.Fatalf("treating doctor %s denied: %s", action, d.Reason)
		}

		d = Authorize(claimsFor(RoleDoctor, "DOC000002", ""), KindMedicalRecord, own, action)
		if d.Allowed() {
			t.Fatalf("other doctor %s allowed", action)
		}
	}
}

func TestAuthorizeStaffHospitalScope(t *testing.T) {
	own := Ownership{PatientID: "PAT000001", DoctorID: "DOC000001", HospitalID: "HOS000001"}

	d := Authorize(claimsFor(RoleStaff, "STF000001", "HOS000001"), KindMedicalRecord, own, ActionUpdate)
	if !d.Allowed() {
		t.Fatalf("staff update in own hospital denied: %s", d.Reason)
	}

	d = Authorize(claimsFor(RoleStaff, "STF000001", "HOS000002"), KindMedicalRecord, own, ActionUpdate)
	if d.Outcome != OutcomeOwnershipDenied {
		t.Fatalf("staff update outside hospital: got %v, want OutcomeOwnershipDenied", d.Outcome)
	}

	d = Authorize(claimsFor(RoleStaff, "STF000001", "HOS000001"), KindMedicalRecord, own, ActionDelete)
	if d.Outcome != OutcomeRoleDenied {
		t.Fatalf("staff delete: got %v, want OutcomeRoleDenied", d.Outcome)
	}
}

func TestAuthorizeManagerAndAdminBypass(t *testing.T) {
	own := Ownership{PatientID: "PAT000009", DoctorID: "DOC000009", HospitalID: "HOS000009"}

	for _, role := range []Role{RoleManager, RoleAdmin} {
		for _, kind := range []ResourceKind{KindMedicalRecord, KindPayment, KindAppointment} {
			for _, action := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
				d := Authorize(claimsFor(role, "USR000001", ""), kind, own, action)
				if !d.Allowed() {
					t.Fatalf("%s %s on %s denied: %s", role, action, kind, d.Reason)
				}
			}
		}
	}
}

func TestAuthorizeUnknownRole(t *testing.T) {
	d := Authorize(claimsFor("intern", "USR000001", ""), KindMedicalRecord, Ownership{}, ActionRead)
	if d.Outcome != OutcomeRoleDenied {
		t.Fatalf("unknown role: got %v, want OutcomeRoleDenied", d.Outcome)
	}
}

func TestDenialErrorsDoNotLeakOwnership(t *testing.T) {
	own := Ownership{PatientID: "PAT000001"}

	roleDenied := Authorize(claimsFor(RolePatient, "PAT000001", ""), KindMedicalRecord, own, ActionDelete)
	ownershipDenied := Authorize(claimsFor(RolePatient, "PAT000002", ""), KindMedicalRecord, own, ActionRead)

	for _, d := range []Decision{roleDenied, ownershipDenied} {
		re, ok := d.Err().(*respond.Error)
		if !ok {
			t.Fatalf("denial error is %T, want *respond.Error", d.Err())
		}
		if re.Kind != respond.KindAccessDenied {
			t.Fatalf("denial kind = %v, want KindAccessDenied", re.Kind)
		}
		if re.Message != "Access denied" {
			t.Fatalf("denial message = %q, want the generic message", re.Message)
		}
	}
}
