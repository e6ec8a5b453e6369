package sources

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pevans/potd/scraper"
)

// ErrUnknownSite is returned when a site ID has no registry entry.
var ErrUnknownSite = errors.New("unknown site")

// NationalGeographic is the ID of the National Geographic photo of the day.
const NationalGeographic = "NG"

// DefaultSite is used when no site is configured.
const DefaultSite = NationalGeographic

// Source is a page that publishes a photo of the day, together with the rule
// that locates the photo on it.
type Source struct {
	ID      string
	PageURL string
	Rule    scraper.Rule
}

// Registry is a read-only set of sources keyed by ID.
type Registry struct {
	sources map[string]Source
}

// builtin lists the sources compiled into the program.
var builtin = []Source{
	{
		ID:      NationalGeographic,
		PageURL: "http://photography.nationalgeographic.com/photography/photo-of-the-day/?source=NavPhoPOD",
		Rule:    scraper.NewImageRule("div.primary_photo img"),
	},
}

// Builtin returns the registry of compiled-in sources.
func Builtin() *Registry {
	return NewRegistry(builtin...)
}

// NewRegistry creates a registry from the given sources. A later source with
// the same ID replaces an earlier one.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[string]Source, len(sources))}
	for _, s := range sources {
		r.sources[s.ID] = s
	}
	return r
}

// Lookup returns the source registered under id.
func (r *Registry) Lookup(id string) (Source, error) {
	source, ok := r.sources[id]
	if !ok {
		return Source{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownSite, id, r.IDs())
	}
	return source, nil
}

// IDs returns the registered IDs in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
