package types

import "strings"

// ComponentList is a channel manifest: a forest of categories plus the
// base URL archives are fetched from. Selected and Required hold derived
// identifiers once the manifest has been set up.
type ComponentList struct {
	URL        string     `json:"url" yaml:"url"`
	Categories []Category `json:"categories" yaml:"categories"`
	Selected   []string   `json:"selected" yaml:"selected"`
	Required   []string   `json:"required" yaml:"required"`
}

type Category struct {
	ID            string      `json:"id" yaml:"id"`
	RawID         string      `json:"raw_id" yaml:"raw_id"`
	Name          string      `json:"name" yaml:"name"`
	Description   string      `json:"description" yaml:"description,omitempty"`
	Subcategories []Category  `json:"subcategories" yaml:"subcategories,omitempty"`
	Components    []Component `json:"components" yaml:"components,omitempty"`
	Required      bool        `json:"required" yaml:"required"`
}

type Component struct {
	ID           string `json:"id" yaml:"id"`
	RawID        string `json:"raw_id" yaml:"raw_id"`
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description" yaml:"description,omitempty"`
	DateModified string `json:"date_modified" yaml:"date_modified,omitempty"`
	DownloadSize uint64 `json:"download_size" yaml:"download_size"`
	InstallSize  uint64 `json:"install_size" yaml:"install_size"`
	Path         string `json:"path,omitempty" yaml:"path,omitempty"`
	Hash         string `json:"hash" yaml:"hash"`
	Depends      string `json:"depends,omitempty" yaml:"depends,omitempty"`
	Required     bool   `json:"required" yaml:"required"`
	Installed    bool   `json:"installed" yaml:"installed"`
}

// DependsOn splits the whitespace separated depends attribute.
func (c Component) DependsOn() []string {
	return strings.Fields(c.Depends)
}

func (l ComponentList) Clone() ComponentList {
	clone := ComponentList{
		URL:      l.URL,
		Selected: append([]string(nil), l.Selected...),
		Required: append([]string(nil), l.Required...),
	}
	if l.Categories != nil {
		clone.Categories = make([]Category, len(l.Categories))
		for i, category := range l.Categories {
			clone.Categories[i] = category.Clone()
		}
	}
	return clone
}

func (c Category) Clone() Category {
	clone := c
	clone.Components = append([]Component(nil), c.Components...)
	if c.Subcategories != nil {
		clone.Subcategories = make([]Category, len(c.Subcategories))
		for i, sub := range c.Subcategories {
			clone.Subcategories[i] = sub.Clone()
		}
	}
	return clone
}
