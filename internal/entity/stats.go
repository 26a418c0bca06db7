package entity

// PlayerStats is the win/loss record fetched from the external stats service.
// A zero value is the documented fallback when the service is unreachable.
type PlayerStats struct {
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	WinRate    float64 `json:"winRate"`
	TotalGames int     `json:"totalGames"`
}

// RoomListItem is the wire shape of one entry in the room browser.
type RoomListItem struct {
	RoomID       string       `json:"roomId"`
	RoomName     string       `json:"roomName"`
	HostUsername string       `json:"hostUsername"`
	PlayerCount  int          `json:"playerCount"`
	MaxPlayers   int          `json:"maxPlayers"`
	IsPrivate    bool         `json:"isPrivate"`
	Status       string       `json:"status"`
	Players      []*Player    `json:"players"`
	HostSocketID string       `json:"hostSocketId"`
	HostStats    *PlayerStats `json:"hostStats,omitempty"`
}
