package core

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"bootstrapper/internal/types"
)

const idSeparator = "-"

// Manifest is a set-up channel manifest: derived identifiers, the
// required set and the dependency graph are computed once in NewManifest
// and every query afterwards works on derived identifiers.
type Manifest struct {
	list       types.ComponentList
	components []*types.Component
	byID       map[string]*types.Component
	byRawID    map[string][]*types.Component
	owner      map[*types.Component]string
	categories map[string]*types.Category
	deps       map[string][]string
	dependants map[string][]string
	required   map[string]struct{}
	selected   map[string]struct{}
}

// NewManifest runs setup on a copy of list: identifier derivation,
// dependency resolution and required-set computation. The selected set
// starts out equal to the required set.
func NewManifest(ctx context.Context, list types.ComponentList) *Manifest {
	m := &Manifest{
		list:       list.Clone(),
		byID:       map[string]*types.Component{},
		byRawID:    map[string][]*types.Component{},
		owner:      map[*types.Component]string{},
		categories: map[string]*types.Category{},
		deps:       map[string][]string{},
		dependants: map[string][]string{},
		required:   map[string]struct{}{},
		selected:   map[string]struct{}{},
	}
	for i := range m.list.Categories {
		deriveCategoryIDs(&m.list.Categories[i], "")
	}
	for i := range m.list.Categories {
		m.index(ctx, &m.list.Categories[i])
	}
	m.resolveDependencies(ctx)

	var required []string
	for i := range m.list.Categories {
		m.collectRequired(&m.list.Categories[i], &required)
	}
	for _, id := range required {
		m.required[id] = struct{}{}
		m.selected[id] = struct{}{}
	}
	m.list.Required = sortedKeys(m.required)
	m.list.Selected = sortedKeys(m.selected)

	log.Ctx(ctx).Debug().
		Int("categories", len(m.categories)).
		Int("components", len(m.components)).
		Int("required", len(m.required)).
		Msg("manifest set up")
	return m
}

func deriveCategoryIDs(category *types.Category, parentID string) {
	if category.RawID == "" {
		category.RawID = category.ID
	}
	category.ID = joinID(parentID, category.RawID)
	for i := range category.Subcategories {
		deriveCategoryIDs(&category.Subcategories[i], category.ID)
	}
	for i := range category.Components {
		component := &category.Components[i]
		if component.RawID == "" {
			component.RawID = component.ID
		}
		component.ID = joinID(category.ID, component.RawID)
	}
}

func joinID(parentID string, rawID string) string {
	if parentID == "" {
		return rawID
	}
	return parentID + idSeparator + rawID
}

func (m *Manifest) index(ctx context.Context, category *types.Category) {
	if _, exists := m.categories[category.ID]; !exists {
		m.categories[category.ID] = category
	}
	for i := range category.Subcategories {
		m.index(ctx, &category.Subcategories[i])
	}
	for i := range category.Components {
		component := &category.Components[i]
		m.components = append(m.components, component)
		m.owner[component] = category.ID
		m.byRawID[component.RawID] = append(m.byRawID[component.RawID], component)
		if _, exists := m.byID[component.ID]; exists {
			log.Ctx(ctx).Warn().Str("component", component.ID).Msg("duplicate component id in manifest, keeping first")
			continue
		}
		m.byID[component.ID] = component
	}
}

func (m *Manifest) resolveDependencies(ctx context.Context) {
	for _, component := range m.components {
		if _, exists := m.deps[component.ID]; exists {
			continue
		}
		var resolved []string
		for _, token := range component.DependsOn() {
			target, ok := m.resolveReference(component, token)
			if !ok {
				log.Ctx(ctx).Debug().
					Str("component", component.ID).
					Str("dependency", token).
					Msg("ignoring dangling dependency")
				continue
			}
			resolved = append(resolved, target)
			m.dependants[target] = append(m.dependants[target], component.ID)
		}
		m.deps[component.ID] = resolved
	}
}

// resolveReference maps a depends token to a derived component id. Exact
// derived ids win, then a sibling with that raw id, then the first
// component in manifest order with that raw id.
func (m *Manifest) resolveReference(from *types.Component, token string) (string, bool) {
	if _, ok := m.byID[token]; ok {
		return token, true
	}
	candidates := m.byRawID[token]
	if len(candidates) == 0 {
		return "", false
	}
	for _, candidate := range candidates {
		if m.owner[candidate] == m.owner[from] {
			return candidate.ID, true
		}
	}
	return candidates[0].ID, true
}

// collectRequired reports whether category is fully required. An explicit
// required flag on a category short-circuits the bottom-up check for the
// whole branch.
func (m *Manifest) collectRequired(category *types.Category, required *[]string) bool {
	if category.Required {
		collectBranch(category, required)
		return true
	}
	fully := true
	for _, component := range category.Components {
		if !component.Required {
			fully = false
			continue
		}
		*required = append(*required, m.FindDependencies(component.ID)...)
	}
	for i := range category.Subcategories {
		if !m.collectRequired(&category.Subcategories[i], required) {
			fully = false
		}
	}
	if fully {
		*required = append(*required, category.ID)
	}
	return fully
}

func collectBranch(category *types.Category, ids *[]string) {
	*ids = append(*ids, category.ID)
	for i := range category.Subcategories {
		collectBranch(&category.Subcategories[i], ids)
	}
	for _, component := range category.Components {
		*ids = append(*ids, component.ID)
	}
}

// FindDependencies returns the transitive dependency closure of a
// component including the component itself, or for a category the union
// over every component beneath it. Unknown ids yield an empty result.
func (m *Manifest) FindDependencies(id string) []string {
	found := map[string]struct{}{}
	if _, ok := m.byID[id]; ok {
		m.walkDependencies(id, found)
		found[id] = struct{}{}
	} else if category, ok := m.categories[id]; ok {
		for _, component := range categoryComponents(category) {
			m.walkDependencies(component.ID, found)
			found[component.ID] = struct{}{}
		}
	}
	return sortedKeys(found)
}

func (m *Manifest) walkDependencies(id string, found map[string]struct{}) {
	for _, dep := range m.deps[id] {
		if _, seen := found[dep]; seen {
			continue
		}
		found[dep] = struct{}{}
		m.walkDependencies(dep, found)
	}
}

// FindDependants is the reverse of FindDependencies. Required ids are
// never reported, since they can not be removed.
func (m *Manifest) FindDependants(id string) []string {
	found := map[string]struct{}{}
	if _, ok := m.byID[id]; ok {
		m.walkDependants(id, found)
		found[id] = struct{}{}
	} else if category, ok := m.categories[id]; ok {
		for _, component := range categoryComponents(category) {
			m.walkDependants(component.ID, found)
			found[component.ID] = struct{}{}
		}
	}
	for requiredID := range m.required {
		delete(found, requiredID)
	}
	return sortedKeys(found)
}

func (m *Manifest) walkDependants(id string, found map[string]struct{}) {
	for _, dependant := range m.dependants[id] {
		if _, seen := found[dependant]; seen {
			continue
		}
		found[dependant] = struct{}{}
		m.walkDependants(dependant, found)
	}
}

func (m *Manifest) FindCategory(id string) (types.Category, bool) {
	category, ok := m.categories[id]
	if !ok {
		return types.Category{}, false
	}
	return category.Clone(), true
}

func (m *Manifest) FindComponent(id string) (types.Component, bool) {
	component, ok := m.byID[id]
	if !ok {
		return types.Component{}, false
	}
	return *component, true
}

// Has reports whether id names a component or a category.
func (m *Manifest) Has(id string) bool {
	if _, ok := m.byID[id]; ok {
		return true
	}
	_, ok := m.categories[id]
	return ok
}

// Components lists every component, subcategories before a category's
// own components.
func (m *Manifest) Components() []types.Component {
	out := make([]types.Component, 0, len(m.components))
	for _, component := range m.components {
		out = append(out, *component)
	}
	return out
}

func (m *Manifest) URL() string {
	return m.list.URL
}

func (m *Manifest) Required() []string {
	return sortedKeys(m.required)
}

func (m *Manifest) IsRequired(id string) bool {
	_, ok := m.required[id]
	return ok
}

// List returns a deep copy of the manifest including the current
// selection.
func (m *Manifest) List() types.ComponentList {
	list := m.list.Clone()
	list.Required = sortedKeys(m.required)
	list.Selected = sortedKeys(m.selected)
	return list
}

func categoryComponents(category *types.Category) []*types.Component {
	var out []*types.Component
	for i := range category.Subcategories {
		out = append(out, categoryComponents(&category.Subcategories[i])...)
	}
	for i := range category.Components {
		out = append(out, &category.Components[i])
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
