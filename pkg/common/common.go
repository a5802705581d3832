package common

import (
	"fmt"
	"strings"
	"time"
)

// DocumentType classifies an ingested legal document.
type DocumentType string

const (
	DocumentTypeContract          DocumentType = "CONTRACT"
	DocumentTypeTermsAndConditions DocumentType = "TERMS_AND_CONDITIONS"
	DocumentTypeInternalDirective DocumentType = "INTERNAL_DIRECTIVE"
	DocumentTypeRegulation        DocumentType = "REGULATION"
	DocumentTypeOther             DocumentType = "OTHER"
)

// ParseDocumentType validates a document type string.
func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(strings.ToUpper(strings.TrimSpace(s))) {
	case DocumentTypeContract:
		return DocumentTypeContract, nil
	case DocumentTypeTermsAndConditions:
		return DocumentTypeTermsAndConditions, nil
	case DocumentTypeInternalDirective:
		return DocumentTypeInternalDirective, nil
	case DocumentTypeRegulation:
		return DocumentTypeRegulation, nil
	case DocumentTypeOther:
		return DocumentTypeOther, nil
	}
	return "", fmt.Errorf("unknown document type: %q", s)
}

// EntityType classifies an extracted legal entity.
type EntityType string

const (
	EntityTypeTimePeriod    EntityType = "TIME_PERIOD"
	EntityTypeMonetaryValue EntityType = "MONETARY_VALUE"
	EntityTypeParty         EntityType = "PARTY"
	EntityTypeObligation    EntityType = "OBLIGATION"
	EntityTypeRight         EntityType = "RIGHT"
	EntityTypeCondition     EntityType = "CONDITION"
	EntityTypePenalty       EntityType = "PENALTY"
	EntityTypeClause        EntityType = "CLAUSE"
)

// ParseEntityType validates an entity type string.
func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(strings.ToUpper(strings.TrimSpace(s))) {
	case EntityTypeTimePeriod:
		return EntityTypeTimePeriod, nil
	case EntityTypeMonetaryValue:
		return EntityTypeMonetaryValue, nil
	case EntityTypeParty:
		return EntityTypeParty, nil
	case EntityTypeObligation:
		return EntityTypeObligation, nil
	case EntityTypeRight:
		return EntityTypeRight, nil
	case EntityTypeCondition:
		return EntityTypeCondition, nil
	case EntityTypePenalty:
		return EntityTypePenalty, nil
	case EntityTypeClause:
		return EntityTypeClause, nil
	}
	return "", fmt.Errorf("unknown entity type: %q", s)
}

// RelationType labels a directed RELATES_TO edge between two entities.
type RelationType string

const (
	RelationTypeDefines       RelationType = "DEFINES"
	RelationTypeReferences    RelationType = "REFERENCES"
	RelationTypeOverrides     RelationType = "OVERRIDES"
	RelationTypeConflictsWith RelationType = "CONFLICTS_WITH"
	RelationTypeDependsOn     RelationType = "DEPENDS_ON"
)

// ParseRelationType validates a relation type string.
func ParseRelationType(s string) (RelationType, error) {
	switch RelationType(strings.ToUpper(strings.TrimSpace(s))) {
	case RelationTypeDefines:
		return RelationTypeDefines, nil
	case RelationTypeReferences:
		return RelationTypeReferences, nil
	case RelationTypeOverrides:
		return RelationTypeOverrides, nil
	case RelationTypeConflictsWith:
		return RelationTypeConflictsWith, nil
	case RelationTypeDependsOn:
		return RelationTypeDependsOn, nil
	}
	return "", fmt.Errorf("unknown relation type: %q", s)
}

// ConflictSeverity grades a detected conflict. The ordering
// LOW < MEDIUM < HIGH < CRITICAL is fixed and exposed through Rank;
// severities are never used as numeric scores.
type ConflictSeverity string

const (
	SeverityLow      ConflictSeverity = "LOW"
	SeverityMedium   ConflictSeverity = "MEDIUM"
	SeverityHigh     ConflictSeverity = "HIGH"
	SeverityCritical ConflictSeverity = "CRITICAL"
)

// Rank returns the position of the severity in the fixed ordering.
// Unknown severities rank below LOW.
func (s ConflictSeverity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// ParseConflictSeverity validates a severity string.
func ParseConflictSeverity(s string) (ConflictSeverity, error) {
	switch ConflictSeverity(strings.ToUpper(strings.TrimSpace(s))) {
	case SeverityLow:
		return SeverityLow, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityHigh:
		return SeverityHigh, nil
	case SeverityCritical:
		return SeverityCritical, nil
	}
	return "", fmt.Errorf("unknown conflict severity: %q", s)
}

// Document is an ingested legal document together with the entities
// extracted from it. A document owns its entities: deleting the document
// removes them, and an entity never moves to another document.
type Document struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Content      string       `json:"content"`
	DocumentType DocumentType `json:"document_type"`
	CreatedAt    time.Time    `json:"created_at"`
	Entities     []Entity     `json:"entities"`
}

// Entity is a structured fact extracted from a document, for example a
// payment deadline or a contracting party. Name is the human-readable key
// used when reconciling AI output against stored entities.
type Entity struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	EntityType    EntityType       `json:"entity_type"`
	Value         string           `json:"value"`
	SourceContext string           `json:"source_context"`
	Relations     []EntityRelation `json:"relations"`
}

// EntityRelation is a typed outgoing edge to another entity. Targets only
// ever point at entities created in the same extraction batch.
type EntityRelation struct {
	TargetEntityID string       `json:"target_entity_id"`
	Type           RelationType `json:"type"`
}

// Conflict is a detected contradiction between two or more entities.
// Conflicts reference entities, they do not own them, and are immutable
// once persisted.
type Conflict struct {
	ID             string           `json:"id"`
	Description    string           `json:"description"`
	Severity       ConflictSeverity `json:"severity"`
	Reasoning      string           `json:"reasoning"`
	LegalPrinciple string           `json:"legal_principle,omitempty"`
	DetectedAt     time.Time        `json:"detected_at"`
	Entities       []Entity         `json:"entities"`
}

// EntityIDs returns the ids of the involved entities.
func (c *Conflict) EntityIDs() []string {
	ids := make([]string, 0, len(c.Entities))
	for _, e := range c.Entities {
		ids = append(ids, e.ID)
	}
	return ids
}
