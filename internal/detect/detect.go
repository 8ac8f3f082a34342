// Package detect classifies a repository into a platform by the files it
// carries. The label is opaque to the rest of the sync: it only selects which
// catalog applies.
package detect

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tracker-tv/standards-sync/internal/workspace"
	"github.com/tracker-tv/standards-sync/models"
)

type Detector interface {
	Detect(ctx context.Context, tree workspace.Tree) (models.Platform, error)
}

// Marker ties a platform to the glob patterns that identify it.
type Marker struct {
	Platform models.Platform
	Patterns []string
}

// DefaultMarkers are checked in order; the first platform with a matching
// file wins.
var DefaultMarkers = []Marker{
	{Platform: models.PlatformStandards, Patterns: []string{".standards-source"}},
	{Platform: models.PlatformJoomla, Patterns: []string{
		"administrator/manifests/**/*.xml",
		"pkg_*.xml",
		"**/templateDetails.xml",
		"**/joomla.xml",
	}},
	{Platform: models.PlatformDolibarr, Patterns: []string{
		"**/core/modules/mod*.class.php",
		"htdocs/main.inc.php",
	}},
	{Platform: models.PlatformTerraform, Patterns: []string{"*.tf", "**/*.tf", ".terraform.lock.hcl"}},
}

type MarkerDetector struct {
	markers []Marker
}

func NewMarkerDetector(markers []Marker) (*MarkerDetector, error) {
	for _, m := range markers {
		if _, err := models.ParsePlatform(string(m.Platform)); err != nil {
			return nil, err
		}
		for _, p := range m.Patterns {
			if !doublestar.ValidatePattern(p) {
				return nil, fmt.Errorf("invalid marker pattern %q for %s", p, m.Platform)
			}
		}
	}
	return &MarkerDetector{markers: markers}, nil
}

// Detect returns PlatformGeneric when no marker matches. It only fails when
// the tree cannot be listed.
func (d *MarkerDetector) Detect(ctx context.Context, tree workspace.Tree) (models.Platform, error) {
	files, err := tree.List(ctx)
	if err != nil {
		return "", fmt.Errorf("detecting platform: %w", err)
	}

	for _, m := range d.markers {
		for _, pattern := range m.Patterns {
			for _, f := range files {
				if doublestar.MatchUnvalidated(pattern, f) {
					return m.Platform, nil
				}
			}
		}
	}
	return models.PlatformGeneric, nil
}
