package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"pass-eligibility-api/internal/models"
)

var employeeNumberRegex = regexp.MustCompile(`^[A-Za-z0-9-]{1,20}$`)

const (
	maxNameLength     = 100
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt ignores anything past 72 bytes
	maxAge            = 120
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Registration is a validated RegisterRequest.
type Registration struct {
	EmployeeNumber string
	Password       string
	Profile        ProfileAttributes
}

// ProfileAttributes are the validated employment attributes of a titular.
type ProfileAttributes struct {
	FirstName     string
	LastName      string
	Email         string
	TenureStart   models.Date
	MaritalStatus models.MaritalStatus
	Hierarchical  bool
	Retired       bool
	OnLeave       bool
	LeaveKind     models.LeaveKind
}

// Apply copies the attributes onto p.
func (a ProfileAttributes) Apply(p *models.Profile) {
	p.FirstName = a.FirstName
	p.LastName = a.LastName
	p.Email = a.Email
	p.TenureStart = a.TenureStart
	p.MaritalStatus = a.MaritalStatus
	p.Hierarchical = a.Hierarchical
	p.Retired = a.Retired
	p.OnLeave = a.OnLeave
	p.LeaveKind = a.LeaveKind
}

// BeneficiaryAttributes are the validated caller-supplied beneficiary fields.
type BeneficiaryAttributes struct {
	FirstName     string
	LastName      string
	BirthDate     models.Date
	Relationship  models.Relationship
	Student       bool
	Documentation bool
}

// Apply copies the attributes onto b. The family group is left untouched.
func (a BeneficiaryAttributes) Apply(b *models.Beneficiary) {
	b.FirstName = a.FirstName
	b.LastName = a.LastName
	b.BirthDate = a.BirthDate
	b.Relationship = a.Relationship
	b.Student = a.Student
	b.Documentation = a.Documentation
}

func ValidateRegister(req models.RegisterRequest, now time.Time) (Registration, error) {
	employeeNumber := SanitizeString(req.EmployeeNumber)
	if employeeNumber == "" {
		return Registration{}, &ValidationError{Field: "legajo", Message: "is required"}
	}
	if !employeeNumberRegex.MatchString(employeeNumber) {
		return Registration{}, &ValidationError{
			Field:   "legajo",
			Message: "must be 1-20 letters, digits or dashes",
		}
	}

	if err := ValidatePassword(req.Password); err != nil {
		return Registration{}, err
	}

	attrs, err := ValidateProfileUpdate(models.ProfileUpdateRequest{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		TenureStart:   req.TenureStart,
		MaritalStatus: req.MaritalStatus,
		Hierarchical:  req.Hierarchical,
		Retired:       req.Retired,
		OnLeave:       req.OnLeave,
		LeaveKind:     req.LeaveKind,
	}, now)
	if err != nil {
		return Registration{}, err
	}

	return Registration{
		EmployeeNumber: employeeNumber,
		Password:       req.Password,
		Profile:        attrs,
	}, nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Message: "is required"}
	}
	if len(password) < minPasswordLength {
		return &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("must be at least %d characters", minPasswordLength),
		}
	}
	if len(password) > maxPasswordLength {
		return &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("cannot exceed %d bytes", maxPasswordLength),
		}
	}
	return nil
}

func ValidateProfileUpdate(req models.ProfileUpdateRequest, now time.Time) (ProfileAttributes, error) {
	firstName, err := validateName(req.FirstName, "nombre")
	if err != nil {
		return ProfileAttributes{}, err
	}
	lastName, err := validateName(req.LastName, "apellido")
	if err != nil {
		return ProfileAttributes{}, err
	}

	email := SanitizeString(req.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return ProfileAttributes{}, &ValidationError{Field: "email", Message: "must be a valid email address"}
		}
	}

	tenureStart, err := ValidateDate(req.TenureStart, "fecha_ingreso")
	if err != nil {
		return ProfileAttributes{}, err
	}
	if tenureStart.After(now) {
		return ProfileAttributes{}, &ValidationError{Field: "fecha_ingreso", Message: "cannot be in the future"}
	}

	status, err := ValidateMaritalStatus(req.MaritalStatus)
	if err != nil {
		return ProfileAttributes{}, err
	}

	// the leave kind only matters while on leave
	var leave models.LeaveKind
	if req.OnLeave {
		if leave, err = ValidateLeaveKind(req.LeaveKind); err != nil {
			return ProfileAttributes{}, err
		}
	}

	return ProfileAttributes{
		FirstName:     firstName,
		LastName:      lastName,
		Email:         email,
		TenureStart:   tenureStart,
		MaritalStatus: status,
		Hierarchical:  req.Hierarchical,
		Retired:       req.Retired,
		OnLeave:       req.OnLeave,
		LeaveKind:     leave,
	}, nil
}

func ValidateBeneficiary(req models.BeneficiaryRequest, now time.Time) (BeneficiaryAttributes, error) {
	firstName, err := validateName(req.FirstName, "nombre")
	if err != nil {
		return BeneficiaryAttributes{}, err
	}
	lastName, err := validateName(req.LastName, "apellido")
	if err != nil {
		return BeneficiaryAttributes{}, err
	}

	relationship, err := ValidateRelationship(req.Relationship)
	if err != nil {
		return BeneficiaryAttributes{}, err
	}
	if relationship == models.RelationshipTitular {
		return BeneficiaryAttributes{}, &ValidationError{
			Field:   "parentesco",
			Message: "the titular cannot be registered as a beneficiary",
		}
	}

	birthDate, err := ValidateDate(req.BirthDate, "fecha_nacimiento")
	if err != nil {
		return BeneficiaryAttributes{}, err
	}
	if birthDate.After(now) {
		return BeneficiaryAttributes{}, &ValidationError{Field: "fecha_nacimiento", Message: "cannot be in the future"}
	}
	if birthDate.Before(now.AddDate(-maxAge, 0, 0)) {
		return BeneficiaryAttributes{}, &ValidationError{
			Field:   "fecha_nacimiento",
			Message: fmt.Sprintf("cannot be more than %d years in the past", maxAge),
		}
	}

	return BeneficiaryAttributes{
		FirstName:     firstName,
		LastName:      lastName,
		BirthDate:     birthDate,
		Relationship:  relationship,
		Student:       req.Student,
		Documentation: req.Documentation,
	}, nil
}

// ValidateTransfer returns the canonical origin and destination ids.
func ValidateTransfer(req models.TransferRequest) (from, to string, err error) {
	if from, err = ValidateUUID(req.FromBeneficiaryID, "beneficiario_origen_id"); err != nil {
		return "", "", err
	}
	if to, err = ValidateUUID(req.ToBeneficiaryID, "beneficiario_destino_id"); err != nil {
		return "", "", err
	}
	if from == to {
		return "", "", &ValidationError{
			Field:   "beneficiario_destino_id",
			Message: "must differ from beneficiario_origen_id",
		}
	}
	return from, to, nil
}

func ValidateMaritalStatus(s string) (models.MaritalStatus, error) {
	s = SanitizeString(s)
	if s == "" {
		return "", &ValidationError{Field: "estado_civil", Message: "is required"}
	}
	for _, status := range models.MaritalStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", &ValidationError{Field: "estado_civil", Message: fmt.Sprintf("unknown marital status %q", s)}
}

func ValidateLeaveKind(s string) (models.LeaveKind, error) {
	s = SanitizeString(s)
	if s == "" {
		return "", &ValidationError{Field: "tipo_licencia", Message: "is required when en_licencia is true"}
	}
	for _, kind := range models.LeaveKinds {
		if string(kind) == s {
			return kind, nil
		}
	}
	return "", &ValidationError{Field: "tipo_licencia", Message: fmt.Sprintf("unknown leave kind %q", s)}
}

func ValidateRelationship(s string) (models.Relationship, error) {
	s = SanitizeString(s)
	if s == "" {
		return "", &ValidationError{Field: "parentesco", Message: "is required"}
	}
	for _, rel := range models.Relationships {
		if string(rel) == s {
			return rel, nil
		}
	}
	return "", &ValidationError{Field: "parentesco", Message: fmt.Sprintf("unknown relationship %q", s)}
}

func ValidateFamilyGroup(s string) (models.FamilyGroup, error) {
	s = SanitizeString(s)
	if s == "" {
		return "", &ValidationError{Field: "group", Message: "is required"}
	}
	for _, group := range models.FamilyGroups {
		if string(group) == s {
			return group, nil
		}
	}
	return "", &ValidationError{Field: "group", Message: fmt.Sprintf("unknown family group %q", s)}
}

func validateName(s, fieldName string) (string, error) {
	s = SanitizeString(s)
	if s == "" {
		return "", &ValidationError{Field: fieldName, Message: "is required"}
	}
	if len([]rune(s)) > maxNameLength {
		return "", &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("cannot exceed %d characters", maxNameLength),
		}
	}
	return s, nil
}

func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}

// ValidateUUID checks that id is a version 4 UUID and returns it in canonical
// lower-case form.
func ValidateUUID(id, fieldName string) (string, error) {
	id = SanitizeString(id)
	if id == "" {
		return "", &ValidationError{
			Field:   fieldName,
			Message: "is required",
		}
	}

	parsed, err := uuid.Parse(id)
	if err != nil || parsed.Version() != 4 || parsed.Variant() != uuid.RFC4122 {
		return "", &ValidationError{
			Field:   fieldName,
			Message: "must be a valid UUID v4",
		}
	}

	return parsed.String(), nil
}

// ValidateDate parses an ISO 8601 calendar date.
func ValidateDate(s, fieldName string) (models.Date, error) {
	s = SanitizeString(s)
	if s == "" {
		return models.Date{}, &ValidationError{
			Field:   fieldName,
			Message: "is required",
		}
	}

	d, err := models.ParseDate(s)
	if err != nil {
		return models.Date{}, &ValidationError{
			Field:   fieldName,
			Message: "must be a valid date (YYYY-MM-DD)",
		}
	}

	return d, nil
}
