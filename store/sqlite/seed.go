package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"
)

const createTables = `
CREATE TABLE IF NOT EXISTS patients (
	patient_id INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	date_of_birth DATE NOT NULL,
	gender TEXT NOT NULL,
	blood_group TEXT NOT NULL,
	contact_no TEXT NOT NULL,
	email TEXT,
	address TEXT,
	city TEXT,
	state TEXT,
	emergency_contact_name TEXT,
	emergency_contact_no TEXT,
	created_date DATE DEFAULT CURRENT_DATE
);

CREATE TABLE IF NOT EXISTS medical_records (
	record_id INTEGER PRIMARY KEY AUTOINCREMENT,
	patient_id INTEGER NOT NULL,
	diagnosis TEXT NOT NULL,
	symptoms TEXT,
	prescribed_medication TEXT,
	doctor_name TEXT NOT NULL,
	visit_date DATE NOT NULL,
	next_appointment DATE,
	notes TEXT,
	is_diabetic BOOLEAN DEFAULT 0,
	has_bp BOOLEAN DEFAULT 0,
	allergies TEXT,
	FOREIGN KEY (patient_id) REFERENCES patients(patient_id)
);

CREATE TABLE IF NOT EXISTS appointments (
	appointment_id INTEGER PRIMARY KEY AUTOINCREMENT,
	patient_id INTEGER NOT NULL,
	doctor_name TEXT NOT NULL,
	appointment_date DATE NOT NULL,
	appointment_time TEXT NOT NULL,
	department TEXT NOT NULL,
	status TEXT DEFAULT 'Scheduled',
	reason TEXT,
	FOREIGN KEY (patient_id) REFERENCES patients(patient_id)
);
`

type seedPatient struct {
	firstName, lastName, dob, gender, bloodGroup, contact, email string
	address, city, state, emergencyName, emergencyContact        string
}

var seedPatients = []seedPatient{
	{"Rajesh", "Kumar", "1985-03-15", "Male", "O+", "9876543210", "rajesh.kumar@email.com", "123 MG Road", "Bangalore", "Karnataka", "Priya Kumar", "9876543211"},
	{"Priya", "Sharma", "1990-07-22", "Female", "A+", "9876543212", "priya.sharma@email.com", "456 Park Street", "Mumbai", "Maharashtra", "Amit Sharma", "9876543213"},
	{"Amit", "Patel", "1978-11-08", "Male", "B+", "9876543214", "amit.patel@email.com", "789 Gandhi Nagar", "Ahmedabad", "Gujarat", "Neha Patel", "9876543215"},
	{"Neha", "Singh", "1995-05-30", "Female", "AB+", "9876543216", "neha.singh@email.com", "321 Lake View", "Delhi", "Delhi", "Vikram Singh", "9876543217"},
	{"Vikram", "Reddy", "1982-09-12", "Male", "O-", "9876543218", "vikram.reddy@email.com", "654 Beach Road", "Chennai", "Tamil Nadu", "Lakshmi Reddy", "9876543219"},
	{"Lakshmi", "Iyer", "1988-01-25", "Female", "A-", "9876543220", "lakshmi.iyer@email.com", "987 Temple Street", "Hyderabad", "Telangana", "Ramesh Iyer", "9876543221"},
	{"Ramesh", "Gupta", "1975-12-03", "Male", "B-", "9876543222", "ramesh.gupta@email.com", "147 River View", "Pune", "Maharashtra", "Anjali Gupta", "9876543223"},
	{"Anjali", "Mehta", "1992-08-17", "Female", "AB-", "9876543224", "anjali.mehta@email.com", "258 Hill Station", "Kolkata", "West Bengal", "Rohan Mehta", "9876543225"},
	{"Rohan", "Nair", "1980-04-28", "Male", "O+", "9876543226", "rohan.nair@email.com", "369 Garden Road", "Kochi", "Kerala", "Divya Nair", "9876543227"},
	{"Divya", "Chopra", "1993-10-14", "Female", "A+", "9876543228", "divya.chopra@email.com", "741 Market Street", "Jaipur", "Rajasthan", "Karan Chopra", "9876543229"},
	{"Sandeep", "Jain", "1987-02-18", "Male", "B+", "9876543230", "sandeep.jain@email.com", "159 Crescent Road", "Bangalore", "Karnataka", "Pooja Jain", "9876543231"},
	{"Pooja", "Mishra", "1991-11-20", "Female", "O-", "9876543232", "pooja.mishra@email.com", "753 Lotus Lane", "Pune", "Maharashtra", "Sandeep Jain", "9876543233"},
	{"Karan", "Malhotra", "1979-06-05", "Male", "A-", "9876543234", "karan.malhotra@email.com", "852 Sunrise Apartments", "Delhi", "Delhi", "Deepa Malhotra", "9876543235"},
	{"Deepa", "Verma", "1983-09-25", "Female", "AB+", "9876543236", "deepa.verma@email.com", "963 Palm Grove", "Mumbai", "Maharashtra", "Karan Malhotra", "9876543237"},
	{"Arjun", "Rao", "1996-01-10", "Male", "O+", "9876543238", "arjun.rao@email.com", "147 Sterling Towers", "Hyderabad", "Telangana", "Meera Rao", "9876543239"},
	{"Meera", "Krishnan", "1994-04-03", "Female", "B-", "9876543240", "meera.krishnan@email.com", "258 Pearl Residency", "Chennai", "Tamil Nadu", "Arjun Rao", "9876543241"},
	{"Suresh", "Bose", "1972-07-19", "Male", "A+", "9876543242", "suresh.bose@email.com", "369 Victoria Garden", "Kolkata", "West Bengal", "Mala Bose", "9876543243"},
	{"Mala", "Sen", "1976-12-28", "Female", "O+", "9876543244", "mala.sen@email.com", "741 Howrah Bridge", "Kolkata", "West Bengal", "Suresh Bose", "9876543245"},
	{"Vivek", "Anand", "1989-08-08", "Male", "AB-", "9876543246", "vivek.anand@email.com", "852 Silicon Oasis", "Bangalore", "Karnataka", "Sunita Anand", "9876543247"},
	{"Sunita", "Narayanan", "1990-03-12", "Female", "B+", "9876543248", "sunita.narayanan@email.com", "963 Electronic City", "Bangalore", "Karnataka", "Vivek Anand", "9876543249"},
}

var (
	diagnoses = []string{"Type 2 Diabetes", "Hypertension", "Common Cold", "Migraine", "Asthma",
		"Arthritis", "Gastritis", "Anxiety", "Back Pain", "Allergic Rhinitis", "PCOS", "GERD"}
	medications = []string{"Metformin", "Amlodipine", "Paracetamol", "Ibuprofen", "Salbutamol",
		"Aspirin", "Omeprazole", "Sertraline", "Diclofenac", "Cetirizine", "Myo-Inositol", "Pantoprazole"}
	doctors = []string{"Dr. Ramesh Kumar", "Dr. Priya Sharma", "Dr. Amit Patel", "Dr. Sneha Reddy",
		"Dr. Vikram Singh", "Dr. Alok Gupta", "Dr. Meena Iyer"}
	departments = []string{"Cardiology", "General Medicine", "Orthopedics", "Neurology",
		"Pediatrics", "Gynecology", "Endocrinology"}
	appointmentTimes = []string{"09:00 AM", "10:30 AM", "02:00 PM", "03:30 PM", "05:00 PM"}
	statuses         = []string{"Scheduled", "Completed", "Cancelled", "No Show"}
)

// Seed creates the schema and populates the synthetic patient dataset. It is
// idempotent: a database that already holds patients is left untouched.
func (s *Store) Seed(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTables); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients`).Scan(&count); err != nil {
		return fmt.Errorf("count patients: %w", err)
	}
	if count > 0 {
		s.logger.Info("database already seeded", "patients", count)
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	insertPatient, err := tx.PrepareContext(ctx, `
		INSERT INTO patients (first_name, last_name, date_of_birth, gender, blood_group,
			contact_no, email, address, city, state, emergency_contact_name, emergency_contact_no)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare patient insert: %w", err)
	}
	defer insertPatient.Close()

	for _, p := range seedPatients {
		if _, err := insertPatient.ExecContext(ctx, p.firstName, p.lastName, p.dob, p.gender,
			p.bloodGroup, p.contact, p.email, p.address, p.city, p.state,
			p.emergencyName, p.emergencyContact); err != nil {
			return fmt.Errorf("insert patient %s %s: %w", p.firstName, p.lastName, err)
		}
	}

	if err := seedMedicalRecords(ctx, tx, len(seedPatients)); err != nil {
		return err
	}
	if err := seedAppointments(ctx, tx, len(seedPatients)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	s.logger.Info("database seeded", "patients", len(seedPatients))
	return nil
}

func seedMedicalRecords(ctx context.Context, tx *sql.Tx, patients int) error {
	stmt := `
		INSERT INTO medical_records (patient_id, diagnosis, symptoms, prescribed_medication,
			doctor_name, visit_date, next_appointment, notes, is_diabetic, has_bp, allergies)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now()
	for patientID := 1; patientID <= patients; patientID++ {
		for n := 2 + rand.Intn(4); n > 0; n-- {
			diagnosis := diagnoses[rand.Intn(len(diagnoses))]
			visitDate := now.AddDate(0, 0, -(1 + rand.Intn(365))).Format("2006-01-02")
			nextAppointment := now.AddDate(0, 0, 30+rand.Intn(91)).Format("2006-01-02")

			isDiabetic := 0
			if diagnosis == "Type 2 Diabetes" || rand.Intn(4) == 0 {
				isDiabetic = 1
			}
			hasBP := 0
			if diagnosis == "Hypertension" || rand.Intn(4) == 0 {
				hasBP = 1
			}
			allergies := "None"
			if rand.Float64() <= 0.3 {
				allergies = "Penicillin"
			}

			if _, err := tx.ExecContext(ctx, stmt,
				patientID, diagnosis, "Symptoms related to "+diagnosis,
				medications[rand.Intn(len(medications))],
				doctors[rand.Intn(len(doctors))],
				visitDate, nextAppointment,
				"Follow-up recommended for "+diagnosis,
				isDiabetic, hasBP, allergies); err != nil {
				return fmt.Errorf("insert medical record for patient %d: %w", patientID, err)
			}
		}
	}
	return nil
}

func seedAppointments(ctx context.Context, tx *sql.Tx, patients int) error {
	stmt := `
		INSERT INTO appointments (patient_id, doctor_name, appointment_date, appointment_time,
			department, status, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	now := time.Now()
	for patientID := 1; patientID <= patients; patientID++ {
		for n := 1 + rand.Intn(4); n > 0; n-- {
			appointmentDate := now.AddDate(0, 0, 1+rand.Intn(90)).Format("2006-01-02")
			if _, err := tx.ExecContext(ctx, stmt,
				patientID,
				doctors[rand.Intn(len(doctors))],
				appointmentDate,
				appointmentTimes[rand.Intn(len(appointmentTimes))],
				departments[rand.Intn(len(departments))],
				statuses[rand.Intn(len(statuses))],
				"Regular checkup"); err != nil {
				return fmt.Errorf("insert appointment for patient %d: %w", patientID, err)
			}
		}
	}
	return nil
}
