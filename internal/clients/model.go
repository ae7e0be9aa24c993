package clients

// ClientRequest is the admin create/update body.
type ClientRequest struct {
	Name                 string  `json:"name"`
	Phone                *string `json:"phone"`
	Email                *string `json:"email"`
	Notes                string  `json:"notes"`
	DefaultPickupAddress string  `json:"default_pickup_address"`
	Rating               string  `json:"rating"`
}
