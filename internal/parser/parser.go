package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rcliao/doselog/internal/unit"
)

// MaxExtraDepth bounds the nesting of parenthesized extras.
const MaxExtraDepth = 32

// roas are the route of administration keywords, matched as whole words.
var roas = map[string]bool{
	"oral": true, "orally": true,
	"vaped": true, "vaporized": true, "vap": true,
	"intranasal": true, "insufflated": true, "insuff": true,
	"subcutaneous": true, "subcut": true,
	"sublingual": true, "subl": true,
	"smoked": true, "spliff": true, "inhaled": true,
	"buccal": true, "rectal": true, "rectally": true,
	"IM": true, "intramuscular": true,
	"IV": true, "intravenous": true,
	"topical": true, "transdermal": true, "chewed": true,
}

// IsRoA reports whether w is a route of administration keyword.
func IsRoA(w string) bool { return roas[w] }

// ParseDocument parses text into its typed syntax tree, failing on the first
// line that is neither blank, a day header, nor an entry.
func ParseDocument(text string) (*Document, error) {
	doc := &Document{}
	for i, raw := range strings.Split(text, "\n") {
		n, err := parseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		if n != nil {
			doc.Nodes = append(doc.Nodes, n)
		}
	}
	return doc, nil
}

// parseLine parses a single line. Blank lines yield a nil node.
func parseLine(raw string, lineNo int) (Node, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return nil, nil
	}
	lead := len([]rune(raw)) - len([]rune(strings.TrimLeftFunc(raw, unicode.IsSpace)))
	p := &parser{src: []rune(line)}

	var (
		n  Node
		ok bool
	)
	if strings.HasPrefix(line, "#") {
		var h *DayHeader
		if h, ok = p.dayHeader(); ok {
			h.LineNo, h.Raw = lineNo, line
			n = h
		}
	} else {
		var e *Entry
		if e, ok = p.entry(); ok {
			e.LineNo, e.Raw = lineNo, line
			n = e
		}
	}
	if ok {
		return n, nil
	}
	return nil, p.error(raw, lineNo, lead)
}

// parser is a backtracking recursive-descent parser over one line. Each rule
// either consumes input and returns true, or restores pos and returns false.
type parser struct {
	src   []rune
	pos   int
	depth int

	fatal    error
	fatalPos int

	failPos  int
	expected []string
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

// expect records that what was expected at pos. Only the farthest position
// is kept for error reporting.
func (p *parser) expect(pos int, what string) {
	switch {
	case pos > p.failPos:
		p.failPos = pos
		p.expected = []string{what}
	case pos == p.failPos:
		for _, e := range p.expected {
			if e == what {
				return
			}
		}
		p.expected = append(p.expected, what)
	}
}

// abort stops the parse of the line with err.
func (p *parser) abort(pos int, err error) {
	if p.fatal == nil {
		p.fatal, p.fatalPos = err, pos
	}
}

func (p *parser) error(raw string, lineNo, lead int) *GrammarError {
	e := &GrammarError{LineNo: lineNo, Line: strings.TrimSpace(raw)}
	if p.fatal != nil {
		e.Column = lead + p.fatalPos + 1
		e.Err = p.fatal
		return e
	}
	e.Column = lead + p.failPos + 1
	e.Expected = p.expected
	return e
}

func (p *parser) lit(r rune) bool {
	if p.peek() == r && !p.eof() {
		p.pos++
		return true
	}
	p.expect(p.pos, strconv.QuoteRune(r))
	return false
}

func (p *parser) ws() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) endOfLine() bool {
	if p.eof() {
		return true
	}
	p.expect(p.pos, "end of line")
	return false
}

func isDigit(r rune) bool    { return r >= '0' && r <= '9' }
func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' }

// span consumes runes matching f, between min and max of them (max < 0 is
// unbounded), and returns the consumed text.
func (p *parser) span(f func(rune) bool, min, max int) (string, bool) {
	start := p.pos
	for !p.eof() && f(p.src[p.pos]) && (max < 0 || p.pos-start < max) {
		p.pos++
	}
	if p.pos-start < min {
		p.pos = start
		return "", false
	}
	return string(p.src[start:p.pos]), true
}

// dayHeader = '#' ws date (ws '-' ws title)? ws EOL
func (p *parser) dayHeader() (*DayHeader, bool) {
	if !p.lit('#') {
		return nil, false
	}
	p.ws()
	date, ok := p.date()
	if !ok {
		return nil, false
	}
	h := &DayHeader{Date: date}

	p.ws()
	if p.peek() == '-' {
		p.pos++
		h.Title = strings.TrimSpace(string(p.src[p.pos:]))
		p.pos = len(p.src)
	}
	if !p.endOfLine() {
		p.expect(p.pos, "'-'")
		return nil, false
	}
	return h, true
}

// date = [0-9]{4} '-' [0-9]{1,2} '-' [0-9]{1,2}
func (p *parser) date() (time.Time, bool) {
	start := p.pos
	fail := func() (time.Time, bool) {
		p.pos = start
		p.expect(start, "date YYYY-MM-DD")
		return time.Time{}, false
	}
	y, ok := p.span(isDigit, 4, 4)
	if !ok || p.peek() != '-' {
		return fail()
	}
	p.pos++
	m, ok := p.span(isDigit, 1, 2)
	if !ok || p.peek() != '-' {
		return fail()
	}
	p.pos++
	d, ok := p.span(isDigit, 1, 2)
	if !ok {
		return fail()
	}
	date, err := time.Parse("2006-1-2", y+"-"+m+"-"+d)
	if err != nil {
		p.abort(start, fmt.Errorf("invalid date %s-%s-%s", y, m, d))
		return time.Time{}, false
	}
	return date, true
}

// entry = ws time_prefix* time ws '-' ws entry_data ws EOL
func (p *parser) entry() (*Entry, bool) {
	e := &Entry{}
prefixes:
	for {
		switch p.peek() {
		case '~':
			e.Approx = true
		case '+':
			e.NextDay = true
		default:
			break prefixes
		}
		p.pos++
	}
	clock, ok := p.time()
	if !ok {
		return nil, false
	}
	e.Time = clock
	p.ws()
	if !p.lit('-') {
		return nil, false
	}
	p.ws()

	dataStart := p.pos
	if doses, ok := p.doseList(); ok {
		p.ws()
		if p.endOfLine() {
			e.Doses = doses
			return e, true
		}
	}
	if p.fatal != nil {
		return nil, false
	}
	p.pos = dataStart
	note, ok := p.note()
	if !ok {
		return nil, false
	}
	e.Note = note
	return e, true
}

// time = [0-9?]{1,2} ':' [0-9?]{1,2}
func (p *parser) time() (Clock, bool) {
	start := p.pos
	timeRune := func(r rune) bool { return isDigit(r) || r == '?' }
	h, ok1 := p.span(timeRune, 1, 2)
	ok2 := ok1 && p.lit(':')
	m, ok3 := p.span(timeRune, 1, 2)
	if !(ok2 && ok3) {
		p.pos = start
		p.expect(start, "time HH:MM")
		return Clock{}, false
	}
	if h == "??" && m == "??" {
		return Clock{Unknown: true}, true
	}
	hour, err1 := strconv.Atoi(h)
	minute, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || hour > 23 || minute > 59 {
		p.abort(start, fmt.Errorf("invalid time %s:%s", h, m))
		return Clock{}, false
	}
	return Clock{Hour: hour, Minute: minute}, true
}

// note = letter [^\n]*
func (p *parser) note() (string, bool) {
	if p.eof() || !unicode.IsLetter(p.peek()) {
		p.expect(p.pos, "note")
		return "", false
	}
	text := strings.TrimSpace(string(p.src[p.pos:]))
	p.pos = len(p.src)
	return text, true
}

// doseList = dose (ws '+' ws dose)*
func (p *parser) doseList() ([]*DoseNode, bool) {
	first, ok := p.dose()
	if !ok {
		return nil, false
	}
	doses := []*DoseNode{first}
	for p.fatal == nil {
		save := p.pos
		p.ws()
		if !p.lit('+') {
			p.pos = save
			break
		}
		p.ws()
		d, ok := p.dose()
		if !ok {
			p.pos = save
			break
		}
		doses = append(doses, d)
	}
	if p.fatal != nil {
		return nil, false
	}
	return doses, true
}

// dose = patient? ws amount ws substance ws extra? ws roa?
func (p *parser) dose() (*DoseNode, bool) {
	if p.fatal != nil {
		return nil, false
	}
	start := p.pos
	d := &DoseNode{}
	if p.peek() == '{' {
		patient, ok := p.patient()
		if !ok {
			return nil, false
		}
		d.Patient = patient
	}
	p.ws()
	amount, ok := p.amount()
	if !ok {
		p.pos = start
		return nil, false
	}
	d.Amount = amount
	p.ws()
	substance, ok := p.substance()
	if !ok {
		p.pos = start
		return nil, false
	}
	d.Substance = substance

	save := p.pos
	p.ws()
	if p.peek() == '(' {
		items, ok := p.extra()
		if p.fatal != nil {
			return nil, false
		}
		if ok {
			d.Extra = items
		} else {
			p.pos = save
		}
	} else {
		p.pos = save
	}

	save = p.pos
	p.ws()
	if roa, ok := p.roa(); ok {
		d.RoA = roa
	} else {
		p.pos = save
	}
	return d, true
}

// patient = '{' letter+ '}'
func (p *parser) patient() (string, bool) {
	start := p.pos
	if !p.lit('{') {
		return "", false
	}
	name, ok := p.span(unicode.IsLetter, 1, -1)
	if !ok {
		p.expect(p.pos, "patient name")
		p.pos = start
		return "", false
	}
	if !p.lit('}') {
		p.pos = start
		return "", false
	}
	return name, true
}

// amount = '?' ws unit? / '~'? fraction ws unit? / '~'? number ws unit?
func (p *parser) amount() (AmountNode, bool) {
	start := p.pos
	var a AmountNode
	if p.peek() == '?' {
		p.pos++
		a.Unknown = true
		a.Unit = p.optionalUnit()
		return a, true
	}
	if p.peek() == '~' {
		a.Approx = true
		p.pos++
	}
	numStart := p.pos
	text, ok := p.fraction()
	if !ok {
		text, ok = p.number()
	}
	if !ok {
		p.expect(numStart, "amount")
		p.pos = start
		return a, false
	}
	mag, err := unit.ParseMagnitude(strings.TrimSuffix(text, "."))
	if err != nil {
		p.abort(numStart, err)
		return a, false
	}
	a.Magnitude = mag
	a.Unit = p.optionalUnit()
	return a, true
}

// fraction = [0-9]+ '/' [0-9]+
func (p *parser) fraction() (string, bool) {
	start := p.pos
	if _, ok := p.span(isDigit, 1, -1); !ok {
		return "", false
	}
	if p.peek() != '/' {
		p.pos = start
		return "", false
	}
	p.pos++
	if _, ok := p.span(isDigit, 1, -1); !ok {
		p.pos = start
		return "", false
	}
	return string(p.src[start:p.pos]), true
}

// number = [0-9]+ '.'? [0-9]*
func (p *parser) number() (string, bool) {
	start := p.pos
	if _, ok := p.span(isDigit, 1, -1); !ok {
		return "", false
	}
	if p.peek() == '.' {
		p.pos++
		p.span(isDigit, 0, -1)
	}
	return string(p.src[start:p.pos]), true
}

// optionalUnit parses "ws unit?". A unit is a run of letters naming a known
// unit and ending at a word boundary, so "2 Bananas" has no unit.
func (p *parser) optionalUnit() unit.Unit {
	save := p.pos
	p.ws()
	letters, ok := p.span(unicode.IsLetter, 1, -1)
	if ok && (p.eof() || !isWordRune(p.peek())) {
		if u, err := unit.ParseUnit(letters); err == nil {
			return u
		}
	}
	p.pos = save
	return unit.Dimensionless
}

// word = [letters digits -]+
func (p *parser) word() (string, bool) {
	return p.span(isWordRune, 1, -1)
}

// peekWord returns the word starting at pos without consuming it.
func (p *parser) peekWord() string {
	save := p.pos
	w, _ := p.word()
	p.pos = save
	return w
}

// substance = word (ws !roa word)*
func (p *parser) substance() (string, bool) {
	start := p.pos
	if _, ok := p.word(); !ok {
		p.expect(start, "substance")
		return "", false
	}
	end := p.pos
	for {
		p.ws()
		w := p.peekWord()
		if w == "" || IsRoA(w) {
			break
		}
		p.pos += len([]rune(w))
		end = p.pos
	}
	p.pos = end
	return string(p.src[start:end]), true
}

// roa matches a route of administration keyword as a whole word.
func (p *parser) roa() (string, bool) {
	w := p.peekWord()
	if !IsRoA(w) {
		p.expect(p.pos, "route of administration")
		return "", false
	}
	p.pos += len([]rune(w))
	return w, true
}

// extra = '(' extra_item (ws ',' ws extra_item)* ')'
func (p *parser) extra() ([]ExtraItem, bool) {
	start := p.pos
	if p.depth >= MaxExtraDepth {
		p.abort(start, fmt.Errorf("%w: more than %d levels", ErrNestingTooDeep, MaxExtraDepth))
		return nil, false
	}
	p.depth++
	defer func() { p.depth-- }()

	if !p.lit('(') {
		return nil, false
	}
	p.ws()
	item, ok := p.extraItem()
	if !ok {
		p.pos = start
		return nil, false
	}
	items := []ExtraItem{item}
	for p.fatal == nil {
		save := p.pos
		p.ws()
		if !p.lit(',') {
			p.pos = save
			break
		}
		p.ws()
		item, ok := p.extraItem()
		if !ok {
			p.pos = save
			break
		}
		items = append(items, item)
	}
	if p.fatal != nil {
		return nil, false
	}
	p.ws()
	if !p.lit(')') {
		p.pos = start
		return nil, false
	}
	return items, true
}

// extraItem = percent / dose_list / short_note, each followed by ',' or ')'.
func (p *parser) extraItem() (ExtraItem, bool) {
	start := p.pos
	if n, ok := p.percent(); ok && p.atItemEnd() {
		return n, true
	}
	p.pos = start
	if doses, ok := p.doseList(); ok && p.atItemEnd() {
		return &DoseListNode{Doses: doses}, true
	}
	if p.fatal != nil {
		return nil, false
	}
	p.pos = start
	n := p.shortNote()
	if !p.atItemEnd() {
		p.pos = start
		return nil, false
	}
	return n, true
}

func (p *parser) atItemEnd() bool {
	save := p.pos
	p.ws()
	r := p.peek()
	p.pos = save
	if r == ',' || r == ')' {
		return true
	}
	p.expect(p.pos, "',' or ')'")
	return false
}

// percent = '>'? number '%' ws substance?
func (p *parser) percent() (*PercentNode, bool) {
	start := p.pos
	if p.peek() == '>' {
		p.pos++
	}
	if _, ok := p.number(); !ok || p.peek() != '%' {
		p.pos = start
		return nil, false
	}
	p.pos++
	end := p.pos
	p.ws()
	if _, ok := p.substance(); ok {
		end = p.pos
	}
	p.pos = end
	return &PercentNode{Text: string(p.src[start:end])}, true
}

// shortNote = ratio? ws (letter [^,)\n]*)?
func (p *parser) shortNote() *ShortNoteNode {
	start := p.pos
	p.ratio()
	p.ws()
	if !p.eof() && unicode.IsLetter(p.peek()) {
		for !p.eof() && p.peek() != ',' && p.peek() != ')' {
			p.pos++
		}
	}
	return &ShortNoteNode{Text: strings.TrimSpace(string(p.src[start:p.pos]))}
}

// ratio = [0-9]+ ':' [0-9]+
func (p *parser) ratio() bool {
	start := p.pos
	_, ok1 := p.span(isDigit, 1, -1)
	if !ok1 || p.peek() != ':' {
		p.pos = start
		return false
	}
	p.pos++
	if _, ok := p.span(isDigit, 1, -1); !ok {
		p.pos = start
		return false
	}
	return true
}
