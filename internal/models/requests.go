package models

// RegisterRequest is the request body for registering a titular employee.
type RegisterRequest struct {
	EmployeeNumber string `json:"legajo"`
	Password       string `json:"password"`
	FirstName      string `json:"nombre"`
	LastName       string `json:"apellido"`
	Email          string `json:"email"`
	TenureStart    string `json:"fecha_ingreso"`
	MaritalStatus  string `json:"estado_civil"`
	Hierarchical   bool   `json:"es_jerarquico"`
	Retired        bool   `json:"es_jubilado"`
	OnLeave        bool   `json:"en_licencia"`
	LeaveKind      string `json:"tipo_licencia,omitempty"`
}

// LoginRequest is the request body for logging in.
type LoginRequest struct {
	EmployeeNumber string `json:"legajo"`
	Password       string `json:"password"`
}

// LoginResponse carries the session token and the authenticated profile.
type LoginResponse struct {
	Token   string  `json:"token"`
	Profile Profile `json:"usuario"`
}

// ProfileUpdateRequest is the request body for updating employment attributes.
type ProfileUpdateRequest struct {
	FirstName     string `json:"nombre"`
	LastName      string `json:"apellido"`
	Email         string `json:"email"`
	TenureStart   string `json:"fecha_ingreso"`
	MaritalStatus string `json:"estado_civil"`
	Hierarchical  bool   `json:"es_jerarquico"`
	Retired       bool   `json:"es_jubilado"`
	OnLeave       bool   `json:"en_licencia"`
	LeaveKind     string `json:"tipo_licencia,omitempty"`
}

// BeneficiaryRequest is the request body for creating or updating a beneficiary.
// The family group is always derived and cannot be supplied.
type BeneficiaryRequest struct {
	FirstName     string `json:"nombre"`
	LastName      string `json:"apellido"`
	BirthDate     string `json:"fecha_nacimiento"`
	Relationship  string `json:"parentesco"`
	Student       bool   `json:"es_estudiante"`
	Documentation bool   `json:"documentacion"`
}

// TransferRequest is the request body for creating a transfer.
type TransferRequest struct {
	FromBeneficiaryID string `json:"beneficiario_origen_id"`
	ToBeneficiaryID   string `json:"beneficiario_destino_id"`
}

// BeneficiaryEligibility pairs a beneficiary with its evaluation.
type BeneficiaryEligibility struct {
	Beneficiary Beneficiary       `json:"beneficiario"`
	Result      EligibilityResult `json:"verificacion"`
}

// ProfileEligibilityResponse is the evaluation of every active beneficiary.
type ProfileEligibilityResponse struct {
	ProfileID     string                   `json:"usuario_id"`
	TenureMonths  int                      `json:"antiguedad_meses"`
	Blackout      BlackoutStatus           `json:"veda"`
	Beneficiaries []BeneficiaryEligibility `json:"beneficiarios"`
}
