package adapters

import (
	"context"
	"io"
	"net/url"
	"path"

	"github.com/rs/zerolog/log"

	"bootstrapper/internal/ports"
	"bootstrapper/internal/types"
)

const maxManifestBytes = 32 << 20

type ManifestHTTPAdapter struct {
	fetcher httpFetcher
}

func NewManifestHTTPAdapter(cfg HTTPConfig) ManifestHTTPAdapter {
	return ManifestHTTPAdapter{fetcher: newHTTPFetcher(cfg, false)}
}

// FetchManifest downloads and parses a channel manifest. A manifest that
// does not declare its own download URL uses the directory it was served
// from.
func (a ManifestHTTPAdapter) FetchManifest(ctx context.Context, manifestURL string) (types.ComponentList, error) {
	body, err := a.fetcher.get(ctx, manifestURL)
	if err != nil {
		return types.ComponentList{}, err
	}
	defer body.Close()

	list, err := ParseManifestXML(io.LimitReader(body, maxManifestBytes))
	if err != nil {
		return types.ComponentList{}, err
	}
	if list.URL == "" {
		list.URL = manifestDirectory(manifestURL)
	}
	log.Ctx(ctx).Debug().
		Str("url", manifestURL).
		Str("base_url", list.URL).
		Int("categories", len(list.Categories)).
		Msg("component manifest fetched")
	return list, nil
}

func manifestDirectory(manifestURL string) string {
	parsed, err := url.Parse(manifestURL)
	if err != nil {
		return ""
	}
	parsed.Path = path.Dir(parsed.Path)
	if parsed.Path != "/" {
		parsed.Path += "/"
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

var _ ports.ManifestSourcePort = ManifestHTTPAdapter{}
