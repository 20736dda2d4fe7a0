package medicalrecord

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/query"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const recCols = `id, record_id, patient_id, doctor_id, hospital_id, appointment_id,
	visit_date, chief_complaint, vitals, diagnoses, treatment_plan,
	lab_results, imaging_results, progress_notes, allergies, attachments,
	active, created_at, updated_at`

func (r *repoPG) NextRecordID(ctx context.Context) (string, error) {
	return db.NextID(ctx, r.conn(ctx), "MR", db.SeqMedicalRecord)
}

func (r *repoPG) Create(ctx context.Context, rec *MedicalRecord) error {
	rec.ID = uuid.New()
	docs, err := marshalSubDocs(rec)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_record (
			id, record_id, patient_id, doctor_id, hospital_id, appointment_id,
			visit_date, chief_complaint, vitals, diagnoses, treatment_plan,
			lab_results, imaging_results, progress_notes, allergies, attachments,
			active
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17
		)`,
		rec.ID, rec.RecordID, rec.PatientID, rec.DoctorID, rec.HospitalID, rec.AppointmentID,
		rec.VisitDate, rec.ChiefComplaint, docs.vitals, docs.diagnoses, docs.treatmentPlan,
		docs.labResults, docs.imagingResults, docs.progressNotes, docs.allergies, docs.attachments,
		rec.Active,
	)
	return err
}

func (r *repoPG) GetByRecordID(ctx context.Context, recordID string) (*MedicalRecord, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recCols+` FROM medical_record WHERE record_id = $1`, recordID))
}

func (r *repoPG) Update(ctx context.Context, rec *MedicalRecord) error {
	docs, err := marshalSubDocs(rec)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE medical_record SET
			appointment_id=$2, visit_date=$3, chief_complaint=$4,
			vitals=$5, diagnoses=$6, treatment_plan=$7,
			lab_results=$8, imaging_results=$9, progress_notes=$10,
			allergies=$11, attachments=$12, updated_at=NOW()
		WHERE record_id = $1`,
		rec.RecordID, rec.AppointmentID, rec.VisitDate, rec.ChiefComplaint,
		docs.vitals, docs.diagnoses, docs.treatmentPlan,
		docs.labResults, docs.imagingResults, docs.progressNotes,
		docs.allergies, docs.attachments,
	)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, recordID string, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE medical_record SET active=$2, updated_at=NOW() WHERE record_id=$1`,
		recordID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f *query.Filter, includeInactive bool) ([]*MedicalRecord, int, error) {
	where := "WHERE 1=1"
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !includeInactive {
		where += " AND active = TRUE"
	}
	if f.PatientID != "" {
		where += " AND patient_id = " + arg(f.PatientID)
	}
	if f.DoctorID != "" {
		where += " AND doctor_id = " + arg(f.DoctorID)
	}
	if f.HospitalID != "" {
		where += " AND hospital_id = " + arg(f.HospitalID)
	}
	if f.DateFrom != nil {
		where += " AND visit_date >= " + arg(*f.DateFrom)
	}
	if f.DateTo != nil {
		// inclusive upper bound on the calendar day
		where += " AND visit_date < " + arg(f.DateTo.AddDate(0, 0, 1))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medical_record `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := fmt.Sprintf(`SELECT %s FROM medical_record %s ORDER BY %s LIMIT %s OFFSET %s`,
		recCols, where, f.OrderClause(), arg(f.Page.Limit), arg(f.Page.Offset()))
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []*MedicalRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// subDocs holds the record's JSONB columns in wire form.
type subDocs struct {
	vitals, diagnoses, treatmentPlan, labResults []byte
	imagingResults, progressNotes, allergies     []byte
	attachments                                  []byte
}

func marshalSubDocs(rec *MedicalRecord) (*subDocs, error) {
	d := &subDocs{}
	var err error
	marshal := func(dst *[]byte, v interface{}, empty bool) {
		if err != nil || empty {
			return
		}
		*dst, err = json.Marshal(v)
	}
	marshal(&d.vitals, rec.Vitals, rec.Vitals == nil)
	marshal(&d.diagnoses, rec.Diagnoses, rec.Diagnoses == nil)
	marshal(&d.treatmentPlan, rec.TreatmentPlan, rec.TreatmentPlan == nil)
	marshal(&d.labResults, rec.LabResults, rec.LabResults == nil)
	marshal(&d.imagingResults, rec.ImagingResults, rec.ImagingResults == nil)
	marshal(&d.progressNotes, rec.ProgressNotes, rec.ProgressNotes == nil)
	marshal(&d.allergies, rec.Allergies, rec.Allergies == nil)
	marshal(&d.attachments, rec.Attachments, rec.Attachments == nil)
	if err != nil {
		return nil, fmt.Errorf("marshal record sub-documents: %w", err)
	}
	return d, nil
}

func scanRecord(row pgx.Row) (*MedicalRecord, error) {
	rec := &MedicalRecord{}
	var vitals, diagnoses, plan, labs, imaging, notes, allergies, attachments []byte

	if err := row.Scan(
		&rec.ID, &rec.RecordID, &rec.PatientID, &rec.DoctorID, &rec.HospitalID, &rec.AppointmentID,
		&rec.VisitDate, &rec.ChiefComplaint, &vitals, &diagnoses, &plan,
		&labs, &imaging, &notes, &allergies, &attachments,
		&rec.Active, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	unmarshal := func(data []byte, v interface{}) {
		if err != nil || len(data) == 0 {
			return
		}
		err = json.Unmarshal(data, v)
	}
	unmarshal(vitals, &rec.Vitals)
	unmarshal(diagnoses, &rec.Diagnoses)
	unmarshal(plan, &rec.TreatmentPlan)
	unmarshal(labs, &rec.LabResults)
	unmarshal(imaging, &rec.ImagingResults)
	unmarshal(notes, &rec.ProgressNotes)
	unmarshal(allergies, &rec.Allergies)
	unmarshal(attachments, &rec.Attachments)
	if err != nil {
		return nil, fmt.Errorf("unmarshal record sub-documents: %w", err)
	}

	return rec, nil
}
