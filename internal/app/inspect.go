package app

import (
	"context"
	"strings"
)

// Inspect fetches a channel manifest and returns the derived tree with
// the required set and any extra selection applied. The tree is also
// written to req.Output when set.
func (s Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	loaded, err := s.loadManifest(ctx, req.Channel)
	if err != nil {
		return InspectResult{}, err
	}
	manifest := loaded.manifest
	for _, id := range req.Select {
		if err := requireKnownID(manifest, id); err != nil {
			return InspectResult{}, err
		}
		manifest.Select(id)
	}
	result := InspectResult{
		Target:     loaded.target,
		Channel:    loaded.channel,
		Channels:   loaded.channels,
		URL:        loaded.url,
		Components: manifest.List(),
	}
	if output := strings.TrimSpace(req.Output); output != "" {
		if err := s.ManifestWriter.WriteManifest(output, result.Components); err != nil {
			return InspectResult{}, err
		}
		result.Output = output
	}
	return result, nil
}

// Dependencies reports the dependency closure of an id, or with Reverse
// set the ids that would be dropped together with it.
func (s Service) Dependencies(ctx context.Context, req DependenciesRequest) (DependenciesResult, error) {
	loaded, err := s.loadManifest(ctx, req.Channel)
	if err != nil {
		return DependenciesResult{}, err
	}
	manifest := loaded.manifest
	id := strings.TrimSpace(req.ID)
	if err := requireKnownID(manifest, id); err != nil {
		return DependenciesResult{}, err
	}
	ids := manifest.FindDependencies(id)
	if req.Reverse {
		ids = manifest.FindDependants(id)
	}
	return DependenciesResult{ID: id, IDs: ids}, nil
}
