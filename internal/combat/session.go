package combat

import "fmt"

const DefaultLogCap = 100

type LogKind string

const (
	LogCombat LogKind = "combat"
	LogSkill  LogKind = "skill"
	LogStatus LogKind = "status"
	LogSystem LogKind = "system"
	LogItem   LogKind = "item"
)

type LogEntry struct {
	Turn int     `json:"turn"`
	Kind LogKind `json:"kind"`
	Text string  `json:"text"`
}

// BattleLog keeps the most recent entries, evicting the oldest past its cap.
type BattleLog struct {
	cap     int
	entries []LogEntry
}

func NewBattleLog(cap int) *BattleLog {
	if cap <= 0 {
		cap = DefaultLogCap
	}
	return &BattleLog{cap: cap, entries: make([]LogEntry, 0, cap)}
}

func (l *BattleLog) Append(e LogEntry) {
	if len(l.entries) == l.cap {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.cap-1]
	}
	l.entries = append(l.entries, e)
}

func (l *BattleLog) Entries() []LogEntry {
	return append([]LogEntry(nil), l.entries...)
}

func (l *BattleLog) Len() int { return len(l.entries) }

type Reason int

const (
	ReasonKnockout Reason = iota
	ReasonStalemate
)

func (r Reason) String() string {
	switch r {
	case ReasonKnockout:
		return "knockout"
	case ReasonStalemate:
		return "stalemate"
	}
	return "unknown"
}

func (r Reason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// BattleOutcome is the terminal result handed to progression.
type BattleOutcome struct {
	BattleID string `json:"battle_id"`
	WinnerID string `json:"winner_id"`
	LoserID  string `json:"loser_id"`
	Turn     int    `json:"turn"`
	Reason   Reason `json:"reason"`
}

// Session is the mutable state of one battle. It is owned by a single
// caller and passed explicitly to the engine.
type Session struct {
	ID         string
	Player     *Combatant
	Opponent   *Combatant
	Turn       int
	ActiveID   string
	AutoBattle bool
	Log        *BattleLog
	Outcome    *BattleOutcome

	cancelled bool
	pending   *Action
}

func (s *Session) Cancelled() bool { return s.cancelled }

func (s *Session) Over() bool { return s.cancelled || s.Outcome != nil }

func (s *Session) combatant(id string) *Combatant {
	switch id {
	case s.Player.ID:
		return s.Player
	case s.Opponent.ID:
		return s.Opponent
	}
	panic(fmt.Sprintf("combat: session %s has no combatant %q", s.ID, id))
}

// Actor is the combatant whose turn is next.
func (s *Session) Actor() *Combatant { return s.combatant(s.ActiveID) }

// Reactor is the other combatant.
func (s *Session) Reactor() *Combatant {
	if s.ActiveID == s.Player.ID {
		return s.Opponent
	}
	return s.Player
}

// AwaitingInput reports whether the next turn needs a manual player action.
// A stunned player loses the turn anyway, so it needs none.
func (s *Session) AwaitingInput() bool {
	return !s.Over() && !s.AutoBattle && s.ActiveID == s.Player.ID &&
		s.pending == nil && !s.Player.hasActiveStun()
}

// Pending reports whether a manual action is queued.
func (s *Session) Pending() bool { return s.pending != nil }

func (s *Session) SetAutoBattle(on bool) {
	if s.cancelled {
		return
	}
	s.AutoBattle = on
}

func (s *Session) logf(kind LogKind, format string, args ...any) {
	s.Log.Append(LogEntry{Turn: s.Turn, Kind: kind, Text: fmt.Sprintf(format, args...)})
}
