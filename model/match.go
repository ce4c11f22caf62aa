package model

// EntityMatch pairs an entity with the cosine distance between its name
// embedding and a search query. Lower distance means a closer name.
type EntityMatch struct {
	Entity   *Entity `json:"entity"`
	Distance float64 `json:"distance"`
}
