// Package codec defines the JSON wire envelopes exchanged over the gateway
// and the conversions from engine snapshots to wire state. Snapshots are
// already redacted by the engine; the codec never reads grid internals.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"bombhunt-lite/bomb"
)

// ClientEnvelope is every message a client may send. Type selects which
// fields are meaningful.
type ClientEnvelope struct {
	Type          string `json:"type"`
	Difficulty    string `json:"difficulty,omitempty"`
	Row           int    `json:"row"`
	Col           int    `json:"col"`
	ClaimedCell   int    `json:"claimedCell,omitempty"`
	DeclaredTruth bool   `json:"declaredTruth,omitempty"`
}

// Client message types.
const (
	ClientBeginRound = "beginRound"
	ClientPlaceBomb  = "placeBomb"
	ClientReveal     = "reveal"
	ClientChat       = "chat"
)

// ServerEnvelope carries exactly one payload, named by Type. Seq is the
// per-session ordering counter.
type ServerEnvelope struct {
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
	TsMs int64  `json:"tsMs"`

	Session  *SessionInfo  `json:"session,omitempty"`
	Round    *RoundState   `json:"round,omitempty"`
	Briefing *Briefing     `json:"briefing,omitempty"`
	Chat     *ChatMessage  `json:"chat,omitempty"`
	Reveal   *RevealResult `json:"reveal,omitempty"`
	RoundEnd *RoundEnd     `json:"roundEnd,omitempty"`
	Error    *ErrorMessage `json:"error,omitempty"`
}

// Server message types.
const (
	ServerSession  = "session"
	ServerRound    = "round"
	ServerBriefing = "briefing"
	ServerChat     = "chat"
	ServerReveal   = "reveal"
	ServerRoundEnd = "roundEnd"
	ServerError    = "error"
)

type SessionInfo struct {
	SessionID string `json:"sessionId"`
}

type Briefing struct {
	PlayerItem string `json:"playerItem"`
	AIItem     string `json:"aiItem"`
	Narrative  string `json:"narrative"`
}

type ChatMessage struct {
	Speaker     string `json:"speaker"` // "opponent" or "player"
	Stance      string `json:"stance,omitempty"`
	ClaimedCell int    `json:"claimedCell,omitempty"`
	Text        string `json:"text"`
}

type RevealResult struct {
	By  string `json:"by"`
	Row int    `json:"row"`
	Col int    `json:"col"`
	Hit bool   `json:"hit"`
}

type RoundEnd struct {
	RoundID string `json:"roundId"`
	Winner  string `json:"winner"`
	Moves   int    `json:"moves"`
	Ending  string `json:"ending,omitempty"`
}

type ErrorMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CellState mirrors bomb.CellSnapshot on the wire. RevealedBy and Bomb stay
// empty for hidden cells.
type CellState struct {
	Row        int    `json:"row"`
	Col        int    `json:"col"`
	Number     int    `json:"number"`
	Revealed   bool   `json:"revealed"`
	RevealedBy string `json:"revealedBy,omitempty"`
	Bomb       string `json:"bomb,omitempty"`
}

type RoundState struct {
	RoundID    string      `json:"roundId"`
	Difficulty string      `json:"difficulty"`
	Weakness   string      `json:"weakness"`
	Phase      string      `json:"phase"`
	Winner     string      `json:"winner,omitempty"`
	Size       int         `json:"size"`
	Moves      int         `json:"moves"`
	StartTsMs  int64       `json:"startTsMs"`
	Cells      []CellState `json:"cells"`
}

// RoundStateFromSnapshot converts an engine snapshot to its wire form.
func RoundStateFromSnapshot(s bomb.RoundSnapshot) RoundState {
	rs := RoundState{
		RoundID:    s.ID,
		Difficulty: bomb.DifficultyDictionary[s.Difficulty],
		Weakness:   bomb.WeaknessDictionary[s.Weakness],
		Phase:      bomb.PhaseTypeDictionary[s.Phase],
		Size:       s.Size,
		Moves:      s.Moves,
		StartTsMs:  s.StartAt.UnixMilli(),
		Cells:      make([]CellState, 0, len(s.Cells)),
	}
	if s.Winner != bomb.OwnerNone {
		rs.Winner = bomb.OwnerDictionary[s.Winner]
	}
	for _, cs := range s.Cells {
		cell := CellState{
			Row:      cs.Row,
			Col:      cs.Col,
			Number:   cs.Number,
			Revealed: cs.Revealed,
		}
		if cs.Revealed {
			cell.RevealedBy = bomb.OwnerDictionary[cs.RevealedBy]
			if cs.Bomb != bomb.OwnerNone {
				cell.Bomb = bomb.OwnerDictionary[cs.Bomb]
			}
		}
		rs.Cells = append(rs.Cells, cell)
	}
	return rs
}

// DecodeClient parses and validates one client message.
func DecodeClient(data []byte) (ClientEnvelope, error) {
	var env ClientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ClientEnvelope{}, fmt.Errorf("decode client envelope: %w", err)
	}
	switch env.Type {
	case ClientBeginRound, ClientPlaceBomb, ClientReveal, ClientChat:
		return env, nil
	default:
		return ClientEnvelope{}, fmt.Errorf("unknown client message type: %q", env.Type)
	}
}

// ParseDifficulty maps a wire difficulty name to the engine enum.
func ParseDifficulty(s string) (bomb.Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "":
		return bomb.DifficultyEasy, nil
	case "medium":
		return bomb.DifficultyMedium, nil
	case "hard":
		return bomb.DifficultyHard, nil
	default:
		return 0, fmt.Errorf("unknown difficulty: %q", s)
	}
}

// Encode marshals a server envelope. Failures here are programming errors;
// callers log and drop.
func Encode(env ServerEnvelope) ([]byte, error) {
	return json.Marshal(env)
}
