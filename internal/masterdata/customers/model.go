package customers

// Customer represents a customer entity. Names are unique.
type Customer struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}
