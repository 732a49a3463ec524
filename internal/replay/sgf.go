package replay

import (
	"strconv"
	"time"

	"github.com/JaniM/variant-go-server/internal/domain/board"
	"github.com/JaniM/variant-go-server/internal/domain/game"
	"github.com/JaniM/variant-go-server/internal/domain/sgf"
)

// SGFMeta carries the game facts that live outside the move log.
type SGFMeta struct {
	Black string
	White string
	Date  time.Time
}

// ExportSGF writes a single-variation SGF document for the record.
// Scoring negotiation moves have no SGF representation and are
// skipped; passes become empty move values per the FF[4] spec.
func ExportSGF(r Record, meta SGFMeta) string {
	root := sgf.Node{
		Properties: map[string][]string{
			"FF": {"4"},
			"GM": {"1"},
			"SZ": {sizeProperty(r.Config)},
			"KM": {strconv.FormatFloat(r.Config.Komi, 'f', 1, 64)},
			"RU": {ruleset(r.Config)},
		},
	}
	if meta.Black != "" {
		root.Properties["PB"] = []string{meta.Black}
	}
	if meta.White != "" {
		root.Properties["PW"] = []string{meta.White}
	}
	if !meta.Date.IsZero() {
		root.Properties["DT"] = []string{meta.Date.Format("2006-01-02")}
	}
	if r.Result != nil {
		root.Properties["RE"] = []string{ResultString(*r.Result)}
	}

	tree := &sgf.GameTree{Nodes: []sgf.Node{root}}
	for _, m := range r.Moves {
		var value string
		switch m.Kind {
		case game.MovePlace:
			value = pointToSGF(m.Point)
		case game.MovePass:
			value = ""
		default:
			continue
		}
		key := "B"
		if m.Color == board.White {
			key = "W"
		}
		tree.Nodes = append(tree.Nodes, sgf.Node{
			Properties: map[string][]string{key: {value}},
		})
	}

	return sgf.Serialize(&sgf.SGF{Root: tree})
}

func sizeProperty(cfg game.Config) string {
	if cfg.Width == cfg.Height {
		return strconv.Itoa(cfg.Width)
	}
	return strconv.Itoa(cfg.Width) + ":" + strconv.Itoa(cfg.Height)
}

func ruleset(cfg game.Config) string {
	if cfg.Scoring == game.TerritoryScoring {
		return "Japanese"
	}
	return "Chinese"
}

// ResultString renders a result in SGF RE notation ("B+R", "W+6.5",
// "0" for a draw).
func ResultString(res game.Result) string {
	switch res.Winner {
	case board.Black:
		if res.Resigned {
			return "B+R"
		}
		return "B+" + strconv.FormatFloat(res.ScoreBlack-res.ScoreWhite, 'f', 1, 64)
	case board.White:
		if res.Resigned {
			return "W+R"
		}
		return "W+" + strconv.FormatFloat(res.ScoreWhite-res.ScoreBlack, 'f', 1, 64)
	default:
		return "0"
	}
}

func pointToSGF(p board.Point) string {
	return string(rune('a'+p.X)) + string(rune('a'+p.Y))
}
