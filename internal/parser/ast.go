package parser

import (
	"time"

	"github.com/rcliao/doselog/internal/unit"
)

// Node is a top-level line of a document: a *DayHeader or an *Entry.
type Node interface {
	node()
}

// Document is the parsed form of a whole note.
type Document struct {
	Nodes []Node
}

// DayHeader is a "# 2018-04-14 - title" line.
type DayHeader struct {
	LineNo int
	Raw    string
	Date   time.Time
	Title  string
}

// Clock is the time of day of an entry. Unknown is set for "??:??".
type Clock struct {
	Hour, Minute int
	Unknown      bool
}

// Entry is one timestamped line. Exactly one of Doses and Note is set.
type Entry struct {
	LineNo  int
	Raw     string
	Approx  bool // "~" prefix
	NextDay bool // "+" prefix
	Time    Clock
	Doses   []*DoseNode
	Note    string
}

// DoseNode is "{patient} ~100mg Substance (extras) roa".
type DoseNode struct {
	Patient   string
	Amount    AmountNode
	Substance string
	Extra     []ExtraItem
	RoA       string
}

// AmountNode is the amount of a dose. Magnitude is zero when Unknown.
type AmountNode struct {
	Magnitude float64
	Unit      unit.Unit
	Approx    bool
	Unknown   bool
}

// ExtraItem is one comma separated item inside a parenthesized extra:
// a *PercentNode, a *DoseListNode or a *ShortNoteNode.
type ExtraItem interface {
	extraItem()
}

// PercentNode is a concentration such as "5.9%" or ">99% THC".
type PercentNode struct {
	Text string
}

// DoseListNode holds nested doses, e.g. the ingredients of a supplement.
type DoseListNode struct {
	Doses []*DoseNode
}

// ShortNoteNode is free text inside an extra. Text may be empty.
type ShortNoteNode struct {
	Text string
}

func (*DayHeader) node() {}
func (*Entry) node()     {}

func (*PercentNode) extraItem()   {}
func (*DoseListNode) extraItem()  {}
func (*ShortNoteNode) extraItem() {}
