package models

// ConnectData represents one glue row between a connector and a shape.
type ConnectData struct {
	// FromID is the connector shape id.
	FromID int `json:"from_id"`
	// FromCell is the connector cell that is glued (e.g. BeginX).
	FromCell string `json:"from_cell,omitempty"`
	// ToID is the glued-to shape id.
	ToID int `json:"to_id"`
	// ToCell is the target cell (e.g. PinX).
	ToCell string `json:"to_cell,omitempty"`
}
