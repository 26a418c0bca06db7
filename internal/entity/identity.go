package entity

// Identity is the durable player record keyed by session ID; it survives
// across rooms and matches, unlike the per-room Player.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}
