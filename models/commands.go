package models

import "encoding/json"

// Command is one client intent as received by a transport.
type Command struct {
	Command string                 `json:"command"`
	Data    map[string]interface{} `json:"data"`
}

type Response struct {
	Command string      `json:"command,omitempty"`
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Event is an outbound broadcast.
type Event struct {
	Event  string      `json:"event"`
	RoomID string      `json:"roomId,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

type ActivityEvent struct {
	Text string `json:"text"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

type RebuyRequestEvent struct {
	SeatIdx int    `json:"seatIdx"`
	Name    string `json:"name"`
	Amount  int    `json:"amount"`
}

type RebuyResultEvent struct {
	SeatIdx  int  `json:"seatIdx"`
	Amount   int  `json:"amount"`
	Approved bool `json:"approved"`
}

type VoiceSignalEvent struct {
	From        string          `json:"from"`
	FromSeatIdx int             `json:"fromSeatIdx"`
	Payload     json.RawMessage `json:"payload"`
}
