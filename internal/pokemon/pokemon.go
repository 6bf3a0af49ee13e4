// Package pokemon holds the catalog record type shared by every layer.
package pokemon

// Pokemon is a single catalog record.
// JSON tags follow the catalog wire format, so a persisted team stores
// records exactly as they were decoded from the catalog.
type Pokemon struct {
	// ID is the catalog's numeric identifier (unique)
	ID int `json:"id"`

	// Name is the lowercase catalog name (e.g. "pikachu")
	Name string `json:"name"`

	// Height is in decimetres
	Height int `json:"height"`

	// Weight is in hectograms
	Weight int `json:"weight"`

	Types   []TypeSlot `json:"types"`
	Stats   []Stat     `json:"stats"`
	Sprites Sprites    `json:"sprites"`
}

// NamedResource is the catalog's {name, url} reference shape.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// TypeSlot is one entry of a Pokémon's type list.
type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

// Stat is one named base stat.
type Stat struct {
	BaseStat int           `json:"base_stat"`
	Effort   int           `json:"effort"`
	Stat     NamedResource `json:"stat"`
}

// Sprites holds image references. FrontDefault is the fallback image and
// may be empty for records without art; the official artwork is optional.
type Sprites struct {
	FrontDefault string        `json:"front_default"`
	Other        *OtherSprites `json:"other,omitempty"`
}

// OtherSprites holds the higher-resolution image sets.
type OtherSprites struct {
	OfficialArtwork *Artwork `json:"official-artwork,omitempty"`
}

// Artwork is a single optional image reference.
type Artwork struct {
	FrontDefault *string `json:"front_default"`
}

// ArtworkURL returns the official artwork if the record has one,
// otherwise the default front sprite.
func (p Pokemon) ArtworkURL() string {
	if p.Sprites.Other != nil && p.Sprites.Other.OfficialArtwork != nil {
		if url := p.Sprites.Other.OfficialArtwork.FrontDefault; url != nil && *url != "" {
			return *url
		}
	}
	return p.Sprites.FrontDefault
}

// TypeNames returns the type names in slot order.
func (p Pokemon) TypeNames() []string {
	names := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		names = append(names, t.Type.Name)
	}
	return names
}

// HeightMeters converts the catalog height to metres.
func (p Pokemon) HeightMeters() float64 {
	return float64(p.Height) / 10
}

// WeightKilograms converts the catalog weight to kilograms.
func (p Pokemon) WeightKilograms() float64 {
	return float64(p.Weight) / 10
}

// BarWidth is the percentage width of a base-stat bar: half the base stat,
// clamped to [0, 100].
func (s Stat) BarWidth() int {
	return min(100, max(0, s.BaseStat/2))
}
