package store

// ChecklistQuestions is the fixed readiness checklist shown before
// sign-in. Every question must be affirmed before an attendance record
// and presence update are committed; the gate never applies to sign-out.
var ChecklistQuestions = []string{
	"I am fit and well to work today",
	"I have the correct PPE for the tasks I will carry out",
	"I have read and understood the risk assessment and method statement",
	"My tools and equipment have been inspected and are safe to use",
	"I know the site emergency and first aid arrangements",
	"The work area is free from obvious hazards",
	"I am trained and competent for the tasks I will carry out",
	"I will report any accidents, incidents or near misses immediately",
}

// CheckAnswers validates a completed checklist. It fails with
// ErrChecklistIncomplete unless there is one affirmative answer per
// question.
func CheckAnswers(answers []bool) error {
	if len(answers) != len(ChecklistQuestions) {
		return ErrChecklistIncomplete
	}
	for _, answered := range answers {
		if !answered {
			return ErrChecklistIncomplete
		}
	}
	return nil
}
