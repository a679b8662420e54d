package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const appointmentColumns = `id, patient_email, patient_name, age, gender, symptoms, patient_phone, urgency, created_at`

const insertAppointment = `
	INSERT INTO appointments (patient_email, patient_name, age, gender, symptoms, patient_phone, urgency, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertAppointmentRow writes a, stamping now when a carries no creation time.
func insertAppointmentRow(ctx context.Context, e execer, a *Appointment, now int64) (sql.Result, error) {
	created := a.CreatedAt
	if created == 0 {
		created = now
	}
	return e.ExecContext(ctx, insertAppointment,
		a.PatientEmail, a.PatientName, a.Age, a.Gender, a.Symptoms, a.PatientPhone, a.Urgency, created)
}

// AddAppointment inserts an appointment record and returns its id.
func (db *DB) AddAppointment(ctx context.Context, a *Appointment) (int64, error) {
	res, err := insertAppointmentRow(ctx, db, a, time.Now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// BulkAddAppointments inserts several appointment records in one transaction.
func (db *DB) BulkAddAppointments(ctx context.Context, appts []Appointment) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for i := range appts {
		a := &appts[i]
		if _, err := insertAppointmentRow(ctx, tx, a, now); err != nil {
			return fmt.Errorf("insert appointment for %q: %w", a.PatientEmail, err)
		}
	}
	return tx.Commit()
}

// FirstAppointmentFor returns the earliest stored appointment whose
// patient_email matches exactly, or nil if none exists.
func (db *DB) FirstAppointmentFor(ctx context.Context, patientEmail string) (*Appointment, error) {
	var a Appointment
	err := db.QueryRowContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_email = ?
		ORDER BY id ASC
		LIMIT 1`, patientEmail).
		Scan(&a.ID, &a.PatientEmail, &a.PatientName, &a.Age, &a.Gender, &a.Symptoms, &a.PatientPhone, &a.Urgency, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
