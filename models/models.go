// models.go
// Defines the core data structures shared by the SiteSafe backend:
// attendance records, user presence documents, safety reports, and
// invite codes. All structs map directly to Firestore documents.

package models

import (
	"time"
)

// TimeLayout is the wire format for attendance timestamps. Records are
// stored as zero-padded local-time strings so that lexical order on the
// stored field equals chronological order, which is what the range
// queries in the attendance store rely on.
const TimeLayout = "2006-01-02 15:04:05"

// FormatTime renders t in the attendance wire format.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// ParseTime parses an attendance timestamp string.
func ParseTime(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, time.Local)
}

// AttendanceStatus is the direction of an attendance record.
type AttendanceStatus string

const (
	StatusSigningIn  AttendanceStatus = "Signing In"
	StatusSigningOut AttendanceStatus = "Signing Out"
)

// AttendanceRecord is one immutable sign-in or sign-out event. Records
// are never updated or deleted after creation.
type AttendanceRecord struct {
	ID        string           `firestore:"record_id" json:"record_id"`
	Time      string           `firestore:"time" json:"time"` // TimeLayout format
	Location  string           `firestore:"location" json:"location"`
	Status    AttendanceStatus `firestore:"status" json:"status"`
	Contract  string           `firestore:"contract" json:"contract"`
	FirstName string           `firestore:"firstName" json:"first_name"`
	LastName  string           `firestore:"lastName" json:"last_name"`
	UserID    string           `firestore:"userID" json:"user_id"`
}

// Coordinate is a device GPS fix.
type Coordinate struct {
	Latitude  float64 `firestore:"latitude" json:"latitude"`
	Longitude float64 `firestore:"longitude" json:"longitude"`
}

// NoneValue is stored in the presence document's contract and address
// fields while the user is signed out.
const NoneValue = "None"

// UserPresence is the per-user document in the "users" collection. It
// carries both the account profile and the live signed-in state; there
// is exactly one per user id.
type UserPresence struct {
	UID            string      `firestore:"uid" json:"uid"`
	FirstName      string      `firestore:"firstName" json:"first_name"`
	LastName       string      `firestore:"lastName" json:"last_name"`
	Email          string      `firestore:"email" json:"email"`
	IsAdmin        bool        `firestore:"isAdmin" json:"is_admin"`
	IsSignedIn     bool        `firestore:"isSignedIn" json:"is_signed_in"`
	LastUpdated    time.Time   `firestore:"lastUpdated" json:"last_updated"`
	Contract       string      `firestore:"contract" json:"contract"`
	SignInLocation *Coordinate `firestore:"signInLocation" json:"sign_in_location,omitempty"`
	SignInAddress  string      `firestore:"signInAddress" json:"sign_in_address"`
}

// ReportType selects the destination collection for a safety report.
type ReportType string

const (
	ReportAccident ReportType = "Accident"
	ReportIncident ReportType = "Incident"
	ReportNearMiss ReportType = "Near Miss"
)

// Report is an immutable compliance log entry. The envelope fields are
// common to all three report types; the remaining fields are filled in
// for accident reports and left blank otherwise. Reports are write-only
// from the application's perspective.
type Report struct {
	FirstName      string     `firestore:"firstName" json:"first_name"`
	LastName       string     `firestore:"lastName" json:"last_name"`
	UserID         string     `firestore:"uid" json:"user_id"`
	Location       string     `firestore:"location" json:"location"`
	Date           time.Time  `firestore:"date" json:"date"`
	Type           ReportType `firestore:"-" json:"type"`
	Description    string     `firestore:"description" json:"description"`
	Severity       string     `firestore:"severity" json:"severity"`
	InjuryReported bool       `firestore:"injuryReported" json:"injury_reported"`
	WitnessNames   string     `firestore:"witnessNames" json:"witness_names"`
	Quarter        string     `firestore:"quarterOfFinancialYear" json:"quarter_of_financial_year"`

	// Accident detail fields.
	TimeOfAccident    string `firestore:"timeOfAccident" json:"time_of_accident"`
	Address           string `firestore:"address" json:"address"`
	PhoneNumber       string `firestore:"phoneNumber" json:"phone_number"`
	JobTitle          string `firestore:"jobTitle" json:"job_title"`
	Contract          string `firestore:"accidentContract" json:"contract"`
	LineManager       string `firestore:"lineManager" json:"line_manager"`
	EmploymentDetails string `firestore:"employmentDetails" json:"employment_details"`
	TypeOfInjury      string `firestore:"typeOfInjury" json:"type_of_injury"`
	PartOfBody        string `firestore:"partOfBody" json:"part_of_body"`
	PersonGender      string `firestore:"personGender" json:"person_gender"`
	PersonAge         string `firestore:"personAge" json:"person_age"`
	ActionsTaken      string `firestore:"actionsTaken" json:"actions_taken"`
}

// InviteCode gates self-service account creation.
type InviteCode struct {
	Code   string `firestore:"code" json:"code"`
	IsUsed bool   `firestore:"isUsed" json:"is_used"`
}
