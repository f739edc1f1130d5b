package ws

import "encoding/json"

// Client→server message types
const (
	MsgCreateRoom       = "create_room"
	MsgJoinRoom         = "join_room"
	MsgLeaveRoom        = "leave_room"
	MsgSetRounds        = "set_rounds"
	MsgStyleInstruction = "submit_style_instruction"
	MsgTopicSuggestion  = "submit_topic_suggestion"
	MsgReady            = "ready"
	MsgStartRound       = "request_start_round"
	MsgSubmitAnswer     = "submit_answer"
	MsgCastVote         = "cast_vote"
)

// Envelope is the wire format in both directions
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// outbound is marshaled by the write pump
type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type joinPayload struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

type roundsPayload struct {
	Rounds int `json:"rounds"`
}

type textPayload struct {
	Text string `json:"text"`
}

type readyPayload struct {
	Ready bool `json:"ready"`
}

type votePayload struct {
	TargetID string `json:"targetId"`
}
