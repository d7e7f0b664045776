package models

// MapProduct is the latest iteration of a MapChef product. Only layers of the
// principal map frame are kept.
type MapProduct struct {
	ID      string // MapChef map number, e.g. "MA9999"
	Name    string
	Version int
	Layers  []*MapLayer
}
