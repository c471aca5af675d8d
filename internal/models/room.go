package models

// RoomStatus is the availability state of a room.
type RoomStatus string

const (
	RoomAvailable RoomStatus = "Available"
	RoomOccupied  RoomStatus = "Occupied"
)

// Room represents a physical space identified by building and number.
// (building, number) is the natural key used to deduplicate during imports.
type Room struct {
	ID       string     `db:"id" json:"id"`
	Building string     `db:"building" json:"building"`
	Number   string     `db:"number" json:"number"`
	Status   RoomStatus `db:"status" json:"status"`
	Capacity *int       `db:"capacity" json:"capacity,omitempty"`
}

// ToggleStatus flips the room between Available and Occupied.
func (r *Room) ToggleStatus() {
	if r.Status == RoomAvailable {
		r.Status = RoomOccupied
	} else {
		r.Status = RoomAvailable
	}
}

// RoomFilter describes search and filter criteria for listing rooms.
type RoomFilter struct {
	Search      string
	Building    string
	Status      string
	CapacityMin *int
	CapacityMax *int
}

// RoomSuggestion is an autocomplete entry for the room search box.
type RoomSuggestion struct {
	ID    string `json:"id"`
	Value string `json:"value"`
	Label string `json:"label"`
}
