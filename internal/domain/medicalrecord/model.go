package medicalrecord

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
)

// MedicalRecord maps to the medical_record table. Clinical content lives in
// JSONB sub-documents; the audit trail lives in its own table (see the
// audit package), not on the record.
type MedicalRecord struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	RecordID       string         `db:"record_id" json:"record_id"` // MR000001
	PatientID      string         `db:"patient_id" json:"patient_id"`
	DoctorID       string         `db:"doctor_id" json:"doctor_id"`
	HospitalID     string         `db:"hospital_id" json:"hospital_id"`
	AppointmentID  *string        `db:"appointment_id" json:"appointment_id,omitempty"`
	VisitDate      time.Time      `db:"visit_date" json:"visit_date"`
	ChiefComplaint string         `db:"chief_complaint" json:"chief_complaint"`
	Vitals         *Vitals        `db:"vitals" json:"vitals,omitempty"`
	Diagnoses      []Diagnosis    `db:"diagnoses" json:"diagnoses,omitempty"`
	TreatmentPlan  *TreatmentPlan `db:"treatment_plan" json:"treatment_plan,omitempty"`
	LabResults     []LabResult    `db:"lab_results" json:"lab_results,omitempty"`
	ImagingResults []ImagingResult `db:"imaging_results" json:"imaging_results,omitempty"`
	ProgressNotes  []ProgressNote `db:"progress_notes" json:"progress_notes,omitempty"`
	Allergies      []Allergy      `db:"allergies" json:"allergies,omitempty"`
	Attachments    []Attachment   `db:"attachments" json:"attachments,omitempty"`
	Active         bool           `db:"active" json:"active"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Ownership returns the owning ids the policy evaluator checks against.
func (r *MedicalRecord) Ownership() auth.Ownership {
	return auth.Ownership{
		PatientID:  r.PatientID,
		DoctorID:   r.DoctorID,
		HospitalID: r.HospitalID,
	}
}

// Vitals captured during the visit.
type Vitals struct {
	TemperatureC     float64   `json:"temperature_c,omitempty"`
	SystolicBP       int       `json:"systolic_bp,omitempty"`
	DiastolicBP      int       `json:"diastolic_bp,omitempty"`
	HeartRate        int       `json:"heart_rate,omitempty"`
	RespiratoryRate  int       `json:"respiratory_rate,omitempty"`
	OxygenSaturation float64   `json:"oxygen_saturation,omitempty"`
	HeightCM         float64   `json:"height_cm,omitempty"`
	WeightKG         float64   `json:"weight_kg,omitempty"`
	RecordedAt       time.Time `json:"recorded_at,omitempty"`
}

type Diagnosis struct {
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Severity    string    `json:"severity,omitempty"`
	DiagnosedAt time.Time `json:"diagnosed_at,omitempty"`
}

type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

type TreatmentPlan struct {
	Medications  []Medication `json:"medications,omitempty"`
	Procedures   []string     `json:"procedures,omitempty"`
	FollowUpDate *time.Time   `json:"follow_up_date,omitempty"`
	Instructions string       `json:"instructions,omitempty"`
}

type LabResult struct {
	TestName       string    `json:"test_name"`
	Result         string    `json:"result"`
	Unit           string    `json:"unit,omitempty"`
	ReferenceRange string    `json:"reference_range,omitempty"`
	Status         string    `json:"status,omitempty"`
	PerformedAt    time.Time `json:"performed_at,omitempty"`
}

type ImagingResult struct {
	Modality    string    `json:"modality"`
	BodySite    string    `json:"body_site,omitempty"`
	Findings    string    `json:"findings,omitempty"`
	Impression  string    `json:"impression,omitempty"`
	PerformedAt time.Time `json:"performed_at,omitempty"`
}

type ProgressNote struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  string    `json:"author_id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

type Allergy struct {
	Substance string `json:"substance"`
	Reaction  string `json:"reaction,omitempty"`
	Severity  string `json:"severity,omitempty"`
}

type Attachment struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ClinicalUpdate is the mutable clinical content of a record. Nil fields
// are left unchanged.
type ClinicalUpdate struct {
	ChiefComplaint *string          `json:"chief_complaint,omitempty"`
	Vitals         *Vitals          `json:"vitals,omitempty"`
	Diagnoses      []Diagnosis      `json:"diagnoses,omitempty"`
	TreatmentPlan  *TreatmentPlan   `json:"treatment_plan,omitempty"`
	LabResults     []LabResult      `json:"lab_results,omitempty"`
	ImagingResults []ImagingResult  `json:"imaging_results,omitempty"`
	Allergies      []Allergy        `json:"allergies,omitempty"`
}

// Apply merges the update into the record.
func (u *ClinicalUpdate) Apply(rec *MedicalRecord) {
	if u.ChiefComplaint != nil {
		rec.ChiefComplaint = *u.ChiefComplaint
	}
	if u.Vitals != nil {
		rec.Vitals = u.Vitals
	}
	if u.Diagnoses != nil {
		rec.Diagnoses = u.Diagnoses
	}
	if u.TreatmentPlan != nil {
		rec.TreatmentPlan = u.TreatmentPlan
	}
	if u.LabResults != nil {
		rec.LabResults = u.LabResults
	}
	if u.ImagingResults != nil {
		rec.ImagingResults = u.ImagingResults
	}
	if u.Allergies != nil {
		rec.Allergies = u.Allergies
	}
}
