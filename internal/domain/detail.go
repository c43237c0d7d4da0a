package domain

// NamedResource is a reference to another API resource
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type StatEntry struct {
	BaseStat int           `json:"base_stat"`
	Effort   int           `json:"effort"`
	Stat     NamedResource `json:"stat"`
}

type TypeEntry struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

type AbilityEntry struct {
	Ability  NamedResource `json:"ability"`
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
}

type MoveRef struct {
	Move NamedResource `json:"move"`
}

type Artwork struct {
	FrontDefault *string `json:"front_default"`
	FrontShiny   *string `json:"front_shiny"`
}

type OtherSprites struct {
	OfficialArtwork *Artwork `json:"official-artwork"`
}

type SpriteSet struct {
	FrontDefault *string       `json:"front_default"`
	FrontShiny   *string       `json:"front_shiny"`
	Other        *OtherSprites `json:"other"`
}

// DetailRecord is the full record of a single entity. It is never modified after decoding.
type DetailRecord struct {
	ID        int            `json:"id"`
	Name      string         `json:"name"`
	Height    int            `json:"height"` // Decimetres
	Weight    int            `json:"weight"` // Hectograms
	Stats     []StatEntry    `json:"stats"`
	Types     []TypeEntry    `json:"types"`
	Abilities []AbilityEntry `json:"abilities"`
	Moves     []MoveRef      `json:"moves"`
	Sprites   SpriteSet      `json:"sprites"`
}
