package proto

// Rejection is the player-visible reason an action was refused
type Rejection struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Reject builds a rejection
func Reject(field, message string) *Rejection {
	return &Rejection{Field: field, Message: message}
}

func (r *Rejection) Error() string {
	if r.Field == "" {
		return r.Message
	}
	return r.Field + ": " + r.Message
}
