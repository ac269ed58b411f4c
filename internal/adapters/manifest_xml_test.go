package adapters

import (
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"bootstrapper/internal/types"
)

const sampleManifestXML = `<?xml version="1.0" encoding="UTF-8"?>
<list url="https://example.invalid/components/">
  <category id="core" title="Core" required="true">
    <description>Needed to run</description>
    <component id="launcher" title="Launcher" date-modified="1700000000" download-size="1024" install-size="4096" hash="0A1B2C3D" required="1"/>
    <category id="extras" name="Extras">
      <component id="docs" title="Docs" description="Manuals" path="Docs" hash="00000000" depends="launcher media" installed="true"/>
    </category>
  </category>
  <category id="media" title="Media">
    <component id="media" title="Media Pack" download-size="10" install-size="20" hash="FFFFFFFF" required="false"/>
  </category>
</list>`

func TestParseManifestXML(t *testing.T) {
	list, err := ParseManifestXML(strings.NewReader(sampleManifestXML))
	require.NoError(t, err)

	want := types.ComponentList{
		URL: "https://example.invalid/components/",
		Categories: []types.Category{
			{
				ID:          "core",
				RawID:       "core",
				Name:        "Core",
				Description: "Needed to run",
				Required:    true,
				Subcategories: []types.Category{{
					ID:    "extras",
					RawID: "extras",
					Name:  "Extras",
					Components: []types.Component{{
						ID:          "docs",
						RawID:       "docs",
						Name:        "Docs",
						Description: "Manuals",
						Path:        "Docs",
						Hash:        "00000000",
						Depends:     "launcher media",
						Installed:   true,
					}},
				}},
				Components: []types.Component{{
					ID:           "launcher",
					RawID:        "launcher",
					Name:         "Launcher",
					DateModified: "1700000000",
					DownloadSize: 1024,
					InstallSize:  4096,
					Hash:         "0A1B2C3D",
					Required:     true,
				}},
			},
			{
				ID:    "media",
				RawID: "media",
				Name:  "Media",
				Components: []types.Component{{
					ID:           "media",
					RawID:        "media",
					Name:         "Media Pack",
					DownloadSize: 10,
					InstallSize:  20,
					Hash:         "FFFFFFFF",
				}},
			},
		},
	}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Fatalf("unexpected manifest (-want +got):\n%s", diff)
	}
}

func TestParseManifestXMLURLElement(t *testing.T) {
	list, err := ParseManifestXML(strings.NewReader(`<list><url>https://example.invalid/c/</url></list>`))
	require.NoError(t, err)
	if diff := cmp.Diff("https://example.invalid/c/", list.URL); diff != "" {
		t.Fatalf("unexpected url (-want +got):\n%s", diff)
	}
}

func TestParseManifestXMLErrors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{name: "malformed", xml: `<list><category id="a">`},
		{name: "non numeric size", xml: `<list><category id="a"><component id="b" hash="00000000" download-size="big"/></category></list>`},
		{name: "negative size", xml: `<list><category id="a"><component id="b" hash="00000000" install-size="-1"/></category></list>`},
		{name: "component without id", xml: `<list><category id="a"><component title="x" hash="00000000"/></category></list>`},
		{name: "component without hash", xml: `<list><category id="a"><component id="b"/></category></list>`},
		{name: "component with blank hash", xml: `<list><category id="a"><component id="b" hash="  "/></category></list>`},
		{name: "category without id", xml: `<list><category title="x"/></list>`},
		{name: "empty document", xml: ``},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifestXML(strings.NewReader(tt.xml))
			require.Error(t, err)
			if diff := cmp.Diff(errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err)); diff != "" {
				t.Fatalf("unexpected error code (-want +got):\n%s", diff)
			}
		})
	}
}
