package models

import "time"

// MaritalStatus is the titular employee's marital status.
type MaritalStatus string

const (
	MaritalSingle    MaritalStatus = "soltero"
	MaritalMarried   MaritalStatus = "casado"
	MaritalWidowed   MaritalStatus = "viudo"
	MaritalSeparated MaritalStatus = "separado"
	MaritalDivorced  MaritalStatus = "divorciado"
	MaritalCommonLaw MaritalStatus = "union_hecho"
)

// MaritalStatuses lists every accepted marital status.
var MaritalStatuses = []MaritalStatus{
	MaritalSingle, MaritalMarried, MaritalWidowed,
	MaritalSeparated, MaritalDivorced, MaritalCommonLaw,
}

// Relationship is the kinship of a beneficiary to the titular employee.
type Relationship string

const (
	RelationshipTitular      Relationship = "titular"
	RelationshipSpouse       Relationship = "conyuge"
	RelationshipPartner      Relationship = "concubino"
	RelationshipChild        Relationship = "hijo"
	RelationshipStepchild    Relationship = "hijastro"
	RelationshipDependent    Relationship = "menor_cargo"
	RelationshipParent       Relationship = "padre"
	RelationshipStepparent   Relationship = "padrastro"
	RelationshipSibling      Relationship = "hermano"
	RelationshipStepsibling  Relationship = "hermanastro"
	RelationshipSiblingInLaw Relationship = "cunado"
	RelationshipNiblings     Relationship = "sobrino"
	RelationshipGrandchild   Relationship = "nieto"
	RelationshipParentInLaw  Relationship = "suegro"
	RelationshipChildInLaw   Relationship = "yerno_nuera"
	RelationshipGrandparent  Relationship = "abuelo"
	// RelationshipNoName is the anonymous "No Name" ticket holder.
	RelationshipNoName       Relationship = "no_name"
)

// Relationships lists every accepted relationship.
var Relationships = []Relationship{
	RelationshipTitular, RelationshipSpouse, RelationshipPartner,
	RelationshipChild, RelationshipStepchild, RelationshipDependent,
	RelationshipParent, RelationshipStepparent, RelationshipSibling,
	RelationshipStepsibling, RelationshipSiblingInLaw, RelationshipNiblings,
	RelationshipGrandchild, RelationshipParentInLaw, RelationshipChildInLaw,
	RelationshipGrandparent, RelationshipNoName,
}

// FamilyGroup is the benefit tier a beneficiary falls into.
type FamilyGroup string

const (
	GroupBasic          FamilyGroup = "basico"
	GroupAssimilable    FamilyGroup = "habilitado_asimilable"
	GroupNonAssimilable FamilyGroup = "habilitado_no_asimilable"
	GroupNoName         FamilyGroup = "no_name"
)

// FamilyGroups lists every family group.
var FamilyGroups = []FamilyGroup{GroupBasic, GroupAssimilable, GroupNonAssimilable, GroupNoName}

// LeaveKind is the kind of leave an employee is on.
type LeaveKind string

const (
	LeaveMedical   LeaveKind = "medica"
	LeaveAccident  LeaveKind = "accidente"
	LeavePregnancy LeaveKind = "embarazo"
	LeaveExcedency LeaveKind = "excedencia"
	LeaveUnpaid    LeaveKind = "sin_goce"
)

// LeaveKinds lists every accepted leave kind.
var LeaveKinds = []LeaveKind{LeaveMedical, LeaveAccident, LeavePregnancy, LeaveExcedency, LeaveUnpaid}

// Profile is the titular employee record.
type Profile struct {
	ID             string        `json:"id"`
	EmployeeNumber string        `json:"legajo"`
	FirstName      string        `json:"nombre"`
	LastName       string        `json:"apellido"`
	Email          string        `json:"email"`
	TenureStart    Date          `json:"fecha_ingreso"`
	MaritalStatus  MaritalStatus `json:"estado_civil"`
	Hierarchical   bool          `json:"es_jerarquico"`
	Retired        bool          `json:"es_jubilado"`
	OnLeave        bool          `json:"en_licencia"`
	LeaveKind      LeaveKind     `json:"tipo_licencia,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Beneficiary is a family member registered by a titular employee.
type Beneficiary struct {
	ID            string       `json:"id"`
	ProfileID     string       `json:"usuario_id"`
	FirstName     string       `json:"nombre"`
	LastName      string       `json:"apellido"`
	BirthDate     Date         `json:"fecha_nacimiento"`
	Relationship  Relationship `json:"parentesco"`
	FamilyGroup   FamilyGroup  `json:"grupo_familiar"`
	Student       bool         `json:"es_estudiante"`
	Documentation bool         `json:"documentacion"`
	Active        bool         `json:"activo"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Transfer assigns a vacation allowance from a basic-group beneficiary to an
// enabled non-assimilable relative for one vacation year.
type Transfer struct {
	ID                string    `json:"id"`
	ProfileID         string    `json:"usuario_id"`
	FromBeneficiaryID string    `json:"beneficiario_origen_id"`
	ToBeneficiaryID   string    `json:"beneficiario_destino_id"`
	VacationYear      string    `json:"periodo_vacacional"`
	CreatedAt         time.Time `json:"fecha"`
	Active            bool      `json:"activa"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
