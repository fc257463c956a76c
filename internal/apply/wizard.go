package apply

import (
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/api"
)

// Step of the application wizard. Steps advance only after the
// current one validates.
type Step int

const (
	StepPersonalInfo Step = iota
	StepProfessional
	StepDocuments
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepPersonalInfo:
		return "personal_info"
	case StepProfessional:
		return "professional_details"
	case StepDocuments:
		return "documents"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

const maxResumeSize = 10 << 20

type PersonalInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type ProfessionalDetails struct {
	CurrentTitle    string `json:"current_title"`
	YearsExperience int    `json:"years_experience"`
	ExpectedSalary  string `json:"expected_salary"`
}

type Documents struct {
	ResumeName  string `json:"resume_name"`
	Resume      []byte `json:"-"`
	CoverLetter string `json:"cover_letter"`
}

// Wizard collects application data across the four fixed steps and
// produces one submission request. The idempotency key is minted once
// per wizard instance, so re-submitting the same wizard cannot create
// a second application.
type Wizard struct {
	jobID          int64
	step           Step
	personal       PersonalInfo
	professional   ProfessionalDetails
	documents      Documents
	idempotencyKey string
}

func NewWizard(jobID int64) *Wizard {
	return &Wizard{
		jobID:          jobID,
		step:           StepPersonalInfo,
		idempotencyKey: uuid.NewString(),
	}
}

func (w *Wizard) JobID() int64           { return w.jobID }
func (w *Wizard) Step() Step             { return w.step }
func (w *Wizard) IdempotencyKey() string { return w.idempotencyKey }

func (w *Wizard) SetPersonalInfo(info PersonalInfo) error {
	if err := validatePersonalInfo(info); err != nil {
		return err
	}
	w.personal = info
	return nil
}

func (w *Wizard) SetProfessionalDetails(details ProfessionalDetails) error {
	if err := validateProfessionalDetails(details); err != nil {
		return err
	}
	w.professional = details
	return nil
}

func (w *Wizard) SetDocuments(docs Documents) error {
	if err := validateDocuments(docs); err != nil {
		return err
	}
	w.documents = docs
	return nil
}

// Next advances the wizard after validating the current step.
func (w *Wizard) Next() error {
	if w.step >= StepReview {
		return fmt.Errorf("wizard: already at review step")
	}
	if err := w.validateStep(w.step); err != nil {
		return err
	}
	w.step++
	return nil
}

// Back returns to the previous step. Going back never validates.
func (w *Wizard) Back() {
	if w.step > StepPersonalInfo {
		w.step--
	}
}

func (w *Wizard) validateStep(step Step) error {
	switch step {
	case StepPersonalInfo:
		return validatePersonalInfo(w.personal)
	case StepProfessional:
		return validateProfessionalDetails(w.professional)
	case StepDocuments:
		return validateDocuments(w.documents)
	default:
		return nil
	}
}

// validateAll re-checks every step, used as the submission gate.
func (w *Wizard) validateAll() error {
	for step := StepPersonalInfo; step < StepReview; step++ {
		if err := w.validateStep(step); err != nil {
			return fmt.Errorf("step %s: %w", step, err)
		}
	}
	return nil
}

func (w *Wizard) HasResume() bool {
	return len(w.documents.Resume) > 0
}

// Request assembles the submission payload. The cover-letter language
// is attached when detection is confident enough to be useful.
func (w *Wizard) Request() api.ApplicationRequest {
	req := api.ApplicationRequest{
		JobID:          w.jobID,
		FullName:       w.personal.FullName,
		Email:          w.personal.Email,
		Phone:          w.personal.Phone,
		CurrentTitle:   w.professional.CurrentTitle,
		YearsExp:       w.professional.YearsExperience,
		ExpectedSalary: w.professional.ExpectedSalary,
		CoverLetter:    w.documents.CoverLetter,
	}
	if letter := strings.TrimSpace(w.documents.CoverLetter); letter != "" {
		info := whatlanggo.Detect(letter)
		if info.IsReliable() {
			req.Language = whatlanggo.LangToString(info.Lang)
		}
	}
	return req
}

func validatePersonalInfo(info PersonalInfo) error {
	if strings.TrimSpace(info.FullName) == "" {
		return fmt.Errorf("full name is required")
	}
	email := strings.TrimSpace(info.Email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return fmt.Errorf("invalid email %q", email)
	}
	return nil
}

func validateProfessionalDetails(details ProfessionalDetails) error {
	if details.YearsExperience < 0 {
		return fmt.Errorf("years of experience cannot be negative")
	}
	return nil
}

func validateDocuments(docs Documents) error {
	if len(docs.Resume) == 0 {
		return nil
	}
	if strings.TrimSpace(docs.ResumeName) == "" {
		return fmt.Errorf("resume file name is required")
	}
	if len(docs.Resume) > maxResumeSize {
		return fmt.Errorf("resume exceeds %d bytes", maxResumeSize)
	}
	return nil
}
