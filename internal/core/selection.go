package core

import "bootstrapper/internal/types"

// Select adds id and its dependency closure to the selected set.
func (m *Manifest) Select(id string) []string {
	for _, dep := range m.FindDependencies(id) {
		m.selected[dep] = struct{}{}
	}
	return m.Selected()
}

// Unselect removes id and everything that depends on it, leaving required
// identifiers in place.
func (m *Manifest) Unselect(id string) []string {
	for _, dependant := range m.FindDependants(id) {
		delete(m.selected, dependant)
	}
	if !m.IsRequired(id) {
		delete(m.selected, id)
	}
	return m.Selected()
}

func (m *Manifest) Selected() []string {
	return sortedKeys(m.selected)
}

func (m *Manifest) IsSelected(id string) bool {
	_, ok := m.selected[id]
	return ok
}

// SelectedComponents returns the selected components in manifest order.
// This is the batch handed to the installer.
func (m *Manifest) SelectedComponents() []types.Component {
	var out []types.Component
	for _, component := range m.components {
		if m.byID[component.ID] != component {
			continue
		}
		if _, ok := m.selected[component.ID]; ok {
			out = append(out, *component)
		}
	}
	return out
}
