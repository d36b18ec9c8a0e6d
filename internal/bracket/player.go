package bracket

// Player identity is the ID, names may repeat or change.
type Player struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
