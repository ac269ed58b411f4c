package adapters

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"bootstrapper/internal/types"
)

type manifestXML struct {
	URLAttr    string        `xml:"url,attr"`
	URL        string        `xml:"url"`
	Categories []categoryXML `xml:"category"`
}

type categoryXML struct {
	ID              string         `xml:"id,attr"`
	Title           string         `xml:"title,attr"`
	Name            string         `xml:"name,attr"`
	DescriptionAttr string         `xml:"description,attr"`
	Description     string         `xml:"description"`
	Required        xmlFlag        `xml:"required,attr"`
	Categories      []categoryXML  `xml:"category"`
	Components      []componentXML `xml:"component"`
}

type componentXML struct {
	ID              string  `xml:"id,attr"`
	Title           string  `xml:"title,attr"`
	Name            string  `xml:"name,attr"`
	DescriptionAttr string  `xml:"description,attr"`
	Description     string  `xml:"description"`
	DateModified    string  `xml:"date-modified,attr"`
	DownloadSize    string  `xml:"download-size,attr"`
	InstallSize     string  `xml:"install-size,attr"`
	Path            string  `xml:"path,attr"`
	Hash            string  `xml:"hash,attr"`
	Depends         string  `xml:"depends,attr"`
	Required        xmlFlag `xml:"required,attr"`
	Installed       xmlFlag `xml:"installed,attr"`
}

// xmlFlag treats "1" and "true" as set and anything else as unset.
type xmlFlag bool

func (f *xmlFlag) UnmarshalXMLAttr(attr xml.Attr) error {
	value := strings.ToLower(strings.TrimSpace(attr.Value))
	*f = xmlFlag(value == "1" || value == "true")
	return nil
}

// ParseManifestXML decodes a channel manifest. Identifiers are left raw;
// derivation happens when the manifest model is set up.
func ParseManifestXML(reader io.Reader) (types.ComponentList, error) {
	var doc manifestXML
	if err := xml.NewDecoder(reader).Decode(&doc); err != nil {
		return types.ComponentList{}, manifestParseError(err)
	}
	list := types.ComponentList{
		URL: firstNonEmpty(doc.URLAttr, doc.URL),
	}
	for _, category := range doc.Categories {
		converted, err := convertCategory(category, "")
		if err != nil {
			return types.ComponentList{}, manifestParseError(err)
		}
		list.Categories = append(list.Categories, converted)
	}
	return list, nil
}

func convertCategory(in categoryXML, parent string) (types.Category, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return types.Category{}, fmt.Errorf("category without id under %q", parent)
	}
	out := types.Category{
		ID:          id,
		RawID:       id,
		Name:        firstNonEmpty(in.Title, in.Name),
		Description: firstNonEmpty(in.DescriptionAttr, in.Description),
		Required:    bool(in.Required),
	}
	for _, sub := range in.Categories {
		converted, err := convertCategory(sub, id)
		if err != nil {
			return types.Category{}, err
		}
		out.Subcategories = append(out.Subcategories, converted)
	}
	for _, component := range in.Components {
		converted, err := convertComponent(component, id)
		if err != nil {
			return types.Category{}, err
		}
		out.Components = append(out.Components, converted)
	}
	return out, nil
}

func convertComponent(in componentXML, category string) (types.Component, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return types.Component{}, fmt.Errorf("component without id in category %q", category)
	}
	hash := strings.TrimSpace(in.Hash)
	if hash == "" {
		return types.Component{}, fmt.Errorf("component %q has no hash", id)
	}
	downloadSize, err := parseSize(in.DownloadSize)
	if err != nil {
		return types.Component{}, fmt.Errorf("component %q download-size: %w", id, err)
	}
	installSize, err := parseSize(in.InstallSize)
	if err != nil {
		return types.Component{}, fmt.Errorf("component %q install-size: %w", id, err)
	}
	return types.Component{
		ID:           id,
		RawID:        id,
		Name:         firstNonEmpty(in.Title, in.Name),
		Description:  firstNonEmpty(in.DescriptionAttr, in.Description),
		DateModified: strings.TrimSpace(in.DateModified),
		DownloadSize: downloadSize,
		InstallSize:  installSize,
		Path:         strings.TrimSpace(in.Path),
		Hash:         hash,
		Depends:      strings.TrimSpace(in.Depends),
		Required:     bool(in.Required),
		Installed:    bool(in.Installed),
	}, nil
}

func parseSize(value string) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.ParseUint(value, 10, 64)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func manifestParseError(err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("failed to parse component manifest").
		WithCause(err)
}
