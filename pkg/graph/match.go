package graph

import (
	"sort"
	"strings"

	"github.com/lexguard/backend/pkg/common"
)

// findBestMatchingEntity resolves an entity name reported by the reasoning
// model against the persisted entities. Matching is tiered: an exact
// case-insensitive name match wins, then a name containment match in
// either direction, then a containment match against the entity value.
// Within a tier the first entity in input order wins.
func findBestMatchingEntity(name string, entities []common.Entity) (common.Entity, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return common.Entity{}, false
	}

	for _, e := range entities {
		if strings.ToLower(strings.TrimSpace(e.Name)) == needle {
			return e, true
		}
	}

	for _, e := range entities {
		candidate := strings.ToLower(strings.TrimSpace(e.Name))
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			return e, true
		}
	}

	// Value matches only one way: the stored value must contain the
	// reported name. A name that merely contains the value ("14 days
	// notice" against value "14 days") does not count.
	for _, e := range entities {
		value := strings.ToLower(e.Value)
		if value == "" {
			continue
		}
		if strings.Contains(value, needle) {
			return e, true
		}
	}

	return common.Entity{}, false
}

// findInvolvedEntities resolves the reported entity names to distinct
// persisted entities. Names that do not resolve are dropped; two names
// resolving to the same entity count once.
func findInvolvedEntities(names []string, entities []common.Entity) []common.Entity {
	involved := make([]common.Entity, 0, len(names))
	seen := make(map[string]struct{}, len(names))

	for _, name := range names {
		entity, ok := findBestMatchingEntity(name, entities)
		if !ok {
			continue
		}
		if _, dup := seen[entity.ID]; dup {
			continue
		}
		seen[entity.ID] = struct{}{}
		involved = append(involved, entity)
	}

	return involved
}

// isDuplicateConflict reports whether a detected conflict already exists.
// A conflict counts as a duplicate when an existing conflict involves
// exactly the same entity set, or when one description contains the other
// case-insensitively. The containment check is deliberately naive: an
// empty description is contained in every other one.
func isDuplicateConflict(entityIDs []string, description string, existing []common.Conflict) bool {
	candidateKey := entitySetKey(entityIDs)
	candidateDesc := strings.ToLower(description)

	for _, c := range existing {
		if entitySetKey(c.EntityIDs()) == candidateKey {
			return true
		}
		existingDesc := strings.ToLower(c.Description)
		if strings.Contains(existingDesc, candidateDesc) || strings.Contains(candidateDesc, existingDesc) {
			return true
		}
	}
	return false
}

func entitySetKey(ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}
