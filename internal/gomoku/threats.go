package gomoku

import "sort"

// ThreatKind classifies how urgently a cell affects the outcome for the side
// about to move.
type ThreatKind int

const (
	ThreatAttack ThreatKind = iota
	ThreatDefend
	ThreatMustDefend
	ThreatWin
)

func (that ThreatKind) String() string {
	switch that {
	case ThreatWin:
		return "win"
	case ThreatMustDefend:
		return "must-defend"
	case ThreatDefend:
		return "defend"
	default:
		return "attack"
	}
}

// Threat is an ephemeral per-turn entry; it is regenerated on every call and
// never persisted.
type Threat struct {
	Row      int
	Col      int
	Kind     ThreatKind
	Priority int
}

func (that Threat) Point() Point {
	return Point{Row: that.Row, Col: that.Col}
}

// maxThreats caps the low-urgency tier so the heuristic consumer is never
// flooded when nothing tactical is on the board.
const maxThreats = 20

// Threats enumerates candidate cells for the given side. If any win or
// must-defend entries exist, only those are returned (sorted by priority);
// otherwise the best-ranked remainder up to maxThreats.
func (that *Engine) Threats(cell Cell) []Threat {
	size := that.board.Size()
	opponent := cell.Opponent()

	urgent := make([]Threat, 0, 8)
	rest := make([]Threat, 0, 64)

	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			p := Point{Row: row, Col: col}
			if that.board.At(p) != CellEmpty {
				continue
			}

			mine := that.maxRunIfPlayed(p, cell)
			theirs := that.maxRunIfPlayed(p, opponent)

			entry, ok := classifyThreat(p, mine, theirs)
			if !ok {
				continue
			}

			if entry.Kind == ThreatWin || entry.Kind == ThreatMustDefend {
				urgent = append(urgent, entry)
			} else {
				rest = append(rest, entry)
			}
		}
	}

	if len(urgent) > 0 {
		sortThreats(urgent)
		return urgent
	}

	sortThreats(rest)
	if len(rest) > maxThreats {
		rest = rest[:maxThreats]
	}

	return rest
}

// maxRunIfPlayed returns the longest run the side would own through p if it
// played there: provisional set, scan, guaranteed revert.
func (that *Engine) maxRunIfPlayed(p Point, cell Cell) int {
	that.board.Set(p, cell)
	defer that.board.Remove(p)

	best := 0
	for _, axis := range axes {
		if run := that.runLength(p, cell, axis[0], axis[1]); run > best {
			best = run
		}
	}

	return best
}

func classifyThreat(p Point, mine, theirs int) (Threat, bool) {
	switch {
	case mine >= winRun:
		return Threat{Row: p.Row, Col: p.Col, Kind: ThreatWin, Priority: 1000 + mine}, true
	case theirs >= winRun:
		return Threat{Row: p.Row, Col: p.Col, Kind: ThreatMustDefend, Priority: 900 + theirs}, true
	case theirs == winRun-1:
		return Threat{Row: p.Row, Col: p.Col, Kind: ThreatMustDefend, Priority: 800}, true
	case mine == winRun-1:
		return Threat{Row: p.Row, Col: p.Col, Kind: ThreatAttack, Priority: 700}, true
	case theirs == winRun-2:
		return Threat{Row: p.Row, Col: p.Col, Kind: ThreatDefend, Priority: 600}, true
	case mine == winRun-2:
		return Threat{Row: p.Row, Col: p.Col, Kind: ThreatAttack, Priority: 500}, true
	case mine >= 2 || theirs >= 2:
		return Threat{Row: p.Row, Col: p.Col, Kind: ThreatAttack, Priority: 10*mine + theirs}, true
	default:
		return Threat{}, false
	}
}

func sortThreats(threats []Threat) {
	sort.SliceStable(threats, func(i, j int) bool {
		return threats[i].Priority > threats[j].Priority
	})
}
