package rules

import "pass-eligibility-api/internal/models"

type relationshipSet map[models.Relationship]struct{}

func setOf(relationships ...models.Relationship) relationshipSet {
	s := make(relationshipSet, len(relationships))
	for _, r := range relationships {
		s[r] = struct{}{}
	}
	return s
}

func (s relationshipSet) has(r models.Relationship) bool {
	_, ok := s[r]
	return ok
}

var (
	basicWhenUnpartnered = setOf(
		models.RelationshipParent, models.RelationshipStepparent,
		models.RelationshipChild, models.RelationshipStepchild, models.RelationshipDependent,
	)
	basicWhenPartnered = setOf(
		models.RelationshipSpouse, models.RelationshipPartner,
		models.RelationshipChild, models.RelationshipStepchild, models.RelationshipDependent,
	)

	// basicByMaritalStatus maps the titular's marital status to the
	// relationships that belong to the basic family group.
	basicByMaritalStatus = map[models.MaritalStatus]relationshipSet{
		models.MaritalSingle:    basicWhenUnpartnered,
		models.MaritalWidowed:   basicWhenUnpartnered,
		models.MaritalSeparated: basicWhenUnpartnered,
		models.MaritalDivorced:  basicWhenUnpartnered,
		models.MaritalMarried:   basicWhenPartnered,
		models.MaritalCommonLaw: basicWhenPartnered,
	}

	assimilable = setOf(
		models.RelationshipParent, models.RelationshipStepparent,
		models.RelationshipSibling, models.RelationshipStepsibling,
	)

	children = setOf(models.RelationshipChild, models.RelationshipStepchild)
)

const (
	childAgeLimit   = 21
	studentAgeLimit = 25
)

// DetermineFamilyGroup classifies a beneficiary. Children are classified by
// age and student status alone, regardless of the titular's marital status.
// A nil age for a child defaults to the basic group.
func DetermineFamilyGroup(rel models.Relationship, status models.MaritalStatus, age *int, student bool) models.FamilyGroup {
	if rel == models.RelationshipNoName {
		return models.GroupNoName
	}

	if children.has(rel) {
		switch {
		case age == nil:
			return models.GroupBasic
		case *age < childAgeLimit:
			return models.GroupBasic
		case *age < studentAgeLimit && student:
			return models.GroupBasic
		default:
			return models.GroupAssimilable
		}
	}

	if basicByMaritalStatus[status].has(rel) {
		return models.GroupBasic
	}

	if assimilable.has(rel) {
		return models.GroupAssimilable
	}

	// in-laws, nephews, grandchildren and anything unrecognised
	return models.GroupNonAssimilable
}
