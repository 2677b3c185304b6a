package domain

// Tag is a label in use on at least one stored trip.
// Identity is determined by Slug, which is always lowercase and hyphenated.
// Name preserves the casing of the first trip seen carrying the tag, newest first.
type Tag struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Trips int    `json:"trips"`
}
