// reference.go
// Fixed reference lists consumed by the report and sign-in forms. These
// are closed enumerations; they are not editable at runtime.

package models

// Contracts are the client engagements a worker can sign in against.
var Contracts = []string{
	"ECO4",
	"Plus Dane SHDF",
	"Torus",
	"Livv SHDF",
	"Sandwell SHDF",
	"WMCA HUG",
	"Northumberland HUG",
	"Manchester HUG",
	"Cheshire East HUG",
	"Weaver Vale",
}

// JobTitles are the roles selectable on an accident report.
var JobTitles = []string{
	"Site Manager",
	"Site Supervisor",
	"Contracts Manager",
	"Project Manager",
	"Quantity Surveyor",
	"Health and Safety Officer",
	"Retrofit Coordinator",
	"Retrofit Assessor",
	"Surveyor",
	"Electrician",
	"Electrician's Mate",
	"Plumber",
	"Heating Engineer",
	"Insulation Installer",
	"Joiner",
	"Plasterer",
	"Bricklayer",
	"Scaffolder",
	"Roofer",
	"Labourer",
	"Apprentice",
	"Office Staff",
	"Other",
}

// Genders as recorded on a report.
var Genders = []string{
	"Male",
	"Female",
	"Prefer not to say",
}

// AccidentTypes classify how an accident happened.
var AccidentTypes = []string{
	"Slip, trip or fall",
	"Fall from height",
	"Manual handling",
	"Struck by object",
	"Contact with machinery",
	"Electrical",
}

// BodyParts selectable for the injured part of body.
var BodyParts = []string{
	"Head",
	"Eye",
	"Face",
	"Neck",
	"Shoulder",
	"Arm",
	"Wrist",
	"Hand",
	"Finger",
	"Back",
	"Leg",
	"Ankle",
	"Foot",
}

// Severities follow the RIDDOR-style classification.
var Severities = []string{
	"Minor",
	"Serious",
	"Major / RIDDOR reportable",
}

// InjuryTypes classify the injury sustained.
var InjuryTypes = []string{
	"Bruising",
	"Cut or laceration",
	"Burn",
	"Fracture",
	"Sprain or strain",
	"Dislocation",
	"Crush injury",
	"Puncture wound",
	"Electric shock",
	"Loss of consciousness",
	"Other",
}

// EmploymentTypes of the person involved.
var EmploymentTypes = []string{
	"Employee",
	"Subcontractor",
	"Member of public",
}
