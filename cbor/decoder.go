package cbor

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"
)

// CBOR tag numbers this decoder understands specially. All other tags
// are transparently skipped.
const (
	tagStringTime    = 0
	tagEpochTime     = 1
	tagDecimalFraction = 4
)

type frameKind int

const (
	frameArray frameKind = iota
	frameMap
	frameIndefBytes
	frameIndefText
)

type frame struct {
	kind     frameKind
	declared int // -1 means indefinite
	parsed   int
}

type fracState struct {
	haveArrayHeader bool
	stage           int // 0: need exponent, 1: need mantissa, 2: done
	exponent        float64
	mantissa        float64
}

// current is the decoder's cached, fully-determined "next item" once
// preprocessing has run.
type current struct {
	valueType ValueType
	number    Number
	tsKind    timestampKind

	// bookkeeping for Bytes()/BytesGetSome()
	strRemaining int
	strTotal     int // declared total length; -1 if not yet known (indefinite)

	// stringTimePending is true when the pending Timestamp item still
	// needs its RFC 3339 text drained and parsed by Number().
	stringTimePending bool
}

// Decoder is a low-level, streaming, suspendable CBOR decoder. The zero
// value is not usable; construct with NewDecoder.
type Decoder struct {
	buf  []byte
	pos  int
	last bool

	stack   []frame
	maxNest int

	needsPreprocessing bool
	afterTag           bool
	finished           bool

	cur  current
	frac *fracState
}

// DefaultMaxNest is the default bound on simultaneously open
// arrays/maps/indefinite strings.
const DefaultMaxNest = 16

// NewDecoder returns a fresh decoder ready to accept Feed calls.
func NewDecoder() *Decoder {
	return &Decoder{
		maxNest:            DefaultMaxNest,
		needsPreprocessing: true,
	}
}

// NewDecoderWithMaxNest is like NewDecoder but with an explicit bound on
// nesting depth.
func NewDecoderWithMaxNest(maxNest int) *Decoder {
	d := NewDecoder()
	d.maxNest = maxNest
	return d
}

// Feed supplies the next chunk of wire bytes, appending it to whatever
// was left unconsumed by the previous Feed (typically a partial header
// that triggered ErrWantMore). It is a LogicError to feed more data after
// a previous Feed marked isLast.
func (d *Decoder) Feed(data []byte, isLast bool) error {
	if d.last {
		return ErrLogic
	}
	combined := make([]byte, 0, (len(d.buf)-d.pos)+len(data))
	combined = append(combined, d.buf[d.pos:]...)
	combined = append(combined, data...)
	d.buf = combined
	d.pos = 0
	d.last = isLast
	return nil
}

// NestingLevel returns the number of currently open containers
// (arrays/maps/indefinite strings).
func (d *Decoder) NestingLevel() int {
	return len(d.stack)
}

func (d *Decoder) ensureBytes(n int) bool {
	return d.pos+n <= len(d.buf)
}

func (d *Decoder) topFrame() *frame {
	if len(d.stack) == 0 {
		return nil
	}
	return &d.stack[len(d.stack)-1]
}

// bumpParent records that one item was consumed from the currently open
// container, if any.
func (d *Decoder) bumpParent() {
	if f := d.topFrame(); f != nil {
		f.parsed++
	}
}

// ensureCurrent runs the preprocessing loop until an item is ready, a
// suspension condition is hit, or an error occurs.
func (d *Decoder) ensureCurrent() error {
	if !d.needsPreprocessing {
		return nil
	}
	for {
		// a. pop fully consumed definite frames
		for {
			f := d.topFrame()
			if f == nil || f.declared < 0 || f.parsed < f.declared {
				break
			}
			d.stack = d.stack[:len(d.stack)-1]
		}

		if d.frac != nil {
			if err := d.continueFraction(); err != nil {
				return err
			}
			d.needsPreprocessing = false
			return nil
		}

		if !d.ensureBytes(1) {
			if d.last {
				if d.afterTag || len(d.stack) > 0 {
					return &FormatError{Msg: "unexpected end of input"}
				}
				d.finished = true
				return ErrEOF
			}
			return ErrWantMore
		}

		b := d.buf[d.pos]
		if b == breakByte {
			f := d.topFrame()
			if f == nil || f.declared != -1 {
				return &FormatError{Msg: "unexpected break byte"}
			}
			if f.kind == frameMap && f.parsed%2 == 1 {
				return &FormatError{Msg: "break byte inside map value"}
			}
			d.pos++
			d.stack = d.stack[:len(d.stack)-1]
			d.bumpParent()
			if f.kind == frameIndefBytes || f.kind == frameIndefText {
				d.cur.strTotal = d.cur.strRemaining // already 0; signals "finished"
				d.needsPreprocessing = false
				return nil
			}
			continue
		}

		major := b >> 5
		info := b & 0x1f

		switch major {
		case majorUint, majorNegInt:
			val, hdrLen, ok := d.peekNumber(info)
			if !ok {
				return d.wantMoreOrEOF()
			}
			d.pos += hdrLen
			if major == majorUint {
				d.cur.valueType = ValueUint
				d.cur.number = Number{Kind: NumberUint, Bits: val}
			} else {
				d.cur.valueType = ValueNegInt
				d.cur.number = Number{Kind: NumberNegInt, Bits: val}
			}
			return d.deliverItem()

		case majorBytes, majorText:
			if info == indefLen {
				d.pos++
				kind := frameIndefBytes
				vt := ValueBytes
				if major == majorText {
					kind = frameIndefText
					vt = ValueText
				}
				d.bumpParent()
				d.stack = append(d.stack, frame{kind: kind, declared: -1})
				if len(d.stack) > d.maxNest {
					return &FormatError{Msg: "nesting stack exceeded"}
				}
				d.cur.valueType = vt
				d.cur.strRemaining = 0
				d.cur.strTotal = -1
				d.needsPreprocessing = false
				return nil
			}
			val, hdrLen, ok := d.peekNumber(info)
			if !ok {
				return d.wantMoreOrEOF()
			}
			d.pos += hdrLen
			if major == majorText {
				d.cur.valueType = ValueText
			} else {
				d.cur.valueType = ValueBytes
			}
			d.cur.strRemaining = int(val)
			d.cur.strTotal = int(val)
			return d.deliverItem()

		case majorArray, majorMap:
			declared := -1
			if info != indefLen {
				val, hdrLen, ok := d.peekNumber(info)
				if !ok {
					return d.wantMoreOrEOF()
				}
				d.pos += hdrLen
				declared = int(val)
				if major == majorMap {
					declared *= 2
				}
			} else {
				d.pos++
			}
			if major == majorArray {
				d.cur.valueType = ValueArray
			} else {
				d.cur.valueType = ValueMap
			}
			d.cur.number = Number{Kind: NumberUint, Bits: uint64(declared)}
			return d.deliverItem()

		case majorTag:
			val, hdrLen, ok := d.peekNumber(info)
			if !ok {
				return d.wantMoreOrEOF()
			}
			if info == indefLen {
				return &FormatError{Msg: "indefinite tag value"}
			}
			d.pos += hdrLen
			d.afterTag = true
			switch val {
			case tagStringTime:
				d.cur.tsKind = timestampString
				d.cur.stringTimePending = true
			case tagEpochTime:
				d.cur.tsKind = timestampEpoch
			case tagDecimalFraction:
				d.frac = &fracState{}
			default:
				// unknown tag: transparent, fall through to the tagged value
			}
			continue

		case majorFloatOrSimple:
			switch info {
			case simpleFalse:
				d.pos++
				d.cur.valueType = ValueBool
				d.cur.number = Number{Kind: NumberUint, Bits: 0}
				return d.deliverItem()
			case simpleTrue:
				d.pos++
				d.cur.valueType = ValueBool
				d.cur.number = Number{Kind: NumberUint, Bits: 1}
				return d.deliverItem()
			case simpleNull:
				d.pos++
				d.cur.valueType = ValueNull
				return d.deliverItem()
			case extLen2: // half float
				if !d.ensureBytes(3) {
					return d.wantMoreOrEOF()
				}
				bits := binary.BigEndian.Uint16(d.buf[d.pos+1:])
				d.pos += 3
				f := float16.Frombits(bits).Float32()
				d.cur.valueType = ValueFloat
				d.cur.number = Number{Kind: NumberFloat, Float: float64(f)}
				return d.deliverItem()
			case extLen4:
				if !d.ensureBytes(5) {
					return d.wantMoreOrEOF()
				}
				bits := binary.BigEndian.Uint32(d.buf[d.pos+1:])
				d.pos += 5
				d.cur.valueType = ValueFloat
				d.cur.number = Number{Kind: NumberFloat, Float: float64(math.Float32frombits(bits))}
				return d.deliverItem()
			case extLen8:
				if !d.ensureBytes(9) {
					return d.wantMoreOrEOF()
				}
				bits := binary.BigEndian.Uint64(d.buf[d.pos+1:])
				d.pos += 9
				d.cur.valueType = ValueDouble
				d.cur.number = Number{Kind: NumberDouble, Float: math.Float64frombits(bits)}
				return d.deliverItem()
			default:
				return &FormatError{Msg: "unsupported simple value"}
			}

		default:
			return &FormatError{Msg: "unreachable major type"}
		}
	}
}

func (d *Decoder) wantMoreOrEOF() error {
	if d.last {
		return &FormatError{Msg: "truncated item header"}
	}
	return ErrWantMore
}

// deliverItem finalizes the currently-parsed item: it applies any
// pending tag (timestamp reinterpretation), bumps the parent container's
// item count, and caches the item for the caller.
func (d *Decoder) deliverItem() error {
	if d.cur.tsKind == timestampEpoch {
		switch d.cur.valueType {
		case ValueUint, ValueNegInt, ValueFloat, ValueDouble:
			d.cur.valueType = ValueTimestamp
		default:
			return &FormatError{Msg: "tag 1 applied to non-numeric value"}
		}
	} else if d.cur.tsKind == timestampString {
		if d.cur.valueType != ValueText {
			return &FormatError{Msg: "tag 0 applied to non-text value"}
		}
		d.cur.valueType = ValueTimestamp
	}
	d.afterTag = false
	d.bumpParent()
	d.needsPreprocessing = false
	return nil
}

// peekNumber parses the extended-length portion of a header (the part
// after the initial byte, whose info nibble is given) without consuming
// it from d.pos. It returns the decoded value and the *total* header
// length (including the initial byte already at d.pos). ok is false if
// not enough bytes are buffered yet.
func (d *Decoder) peekNumber(info byte) (value uint64, headerLen int, ok bool) {
	switch {
	case info < 24:
		return uint64(info), 1, true
	case info == extLen1:
		if !d.ensureBytes(2) {
			return 0, 0, false
		}
		return uint64(d.buf[d.pos+1]), 2, true
	case info == extLen2:
		if !d.ensureBytes(3) {
			return 0, 0, false
		}
		return uint64(binary.BigEndian.Uint16(d.buf[d.pos+1:])), 3, true
	case info == extLen4:
		if !d.ensureBytes(5) {
			return 0, 0, false
		}
		return uint64(binary.BigEndian.Uint32(d.buf[d.pos+1:])), 5, true
	case info == extLen8:
		if !d.ensureBytes(9) {
			return 0, 0, false
		}
		return binary.BigEndian.Uint64(d.buf[d.pos+1:]), 9, true
	default:
		// info in 28..30 reserved, 31 is indefinite: caller checks that case.
		return 0, 0, true
	}
}

// continueFraction advances the decimal-fraction (tag 4) subparser,
// which consumes a definite 2-element array of numbers (exponent,
// mantissa) directly off the wire without exposing it to the caller as
// an Array item, then synthesizes a single Double item.
func (d *Decoder) continueFraction() error {
	f := d.frac
	if !f.haveArrayHeader {
		if !d.ensureBytes(1) {
			return d.wantMoreOrEOF()
		}
		b := d.buf[d.pos]
		major := b >> 5
		info := b & 0x1f
		if major != majorArray || info == indefLen {
			return &FormatError{Msg: "decimal fraction tag not followed by a definite array"}
		}
		val, hdrLen, ok := d.peekNumber(info)
		if !ok {
			return d.wantMoreOrEOF()
		}
		if val != 2 {
			return &FormatError{Msg: "decimal fraction array must have exactly 2 elements"}
		}
		d.pos += hdrLen
		f.haveArrayHeader = true
	}
	for f.stage < 2 {
		n, err := d.readPlainNumber()
		if err != nil {
			return err
		}
		if f.stage == 0 {
			f.exponent = n.Float64()
		} else {
			f.mantissa = n.Float64()
		}
		f.stage++
	}
	value := f.mantissa * math.Pow(10, f.exponent)
	d.frac = nil
	d.afterTag = false
	d.cur.tsKind = timestampNone
	d.cur.valueType = ValueDouble
	d.cur.number = Number{Kind: NumberDouble, Float: value}
	d.bumpParent()
	return nil
}

// readPlainNumber reads one unsigned/negative-int/float/double item
// directly off the wire, used only by the decimal-fraction subparser.
// Tags and containers are not permitted here.
func (d *Decoder) readPlainNumber() (Number, error) {
	if !d.ensureBytes(1) {
		return Number{}, d.wantMoreOrEOF()
	}
	b := d.buf[d.pos]
	major := b >> 5
	info := b & 0x1f
	switch major {
	case majorUint, majorNegInt:
		val, hdrLen, ok := d.peekNumber(info)
		if !ok {
			return Number{}, d.wantMoreOrEOF()
		}
		d.pos += hdrLen
		if major == majorUint {
			return Number{Kind: NumberUint, Bits: val}, nil
		}
		return Number{Kind: NumberNegInt, Bits: val}, nil
	case majorFloatOrSimple:
		switch info {
		case extLen2:
			if !d.ensureBytes(3) {
				return Number{}, d.wantMoreOrEOF()
			}
			bits := binary.BigEndian.Uint16(d.buf[d.pos+1:])
			d.pos += 3
			return Number{Kind: NumberFloat, Float: float64(float16.Frombits(bits).Float32())}, nil
		case extLen4:
			if !d.ensureBytes(5) {
				return Number{}, d.wantMoreOrEOF()
			}
			bits := binary.BigEndian.Uint32(d.buf[d.pos+1:])
			d.pos += 5
			return Number{Kind: NumberFloat, Float: float64(math.Float32frombits(bits))}, nil
		case extLen8:
			if !d.ensureBytes(9) {
				return Number{}, d.wantMoreOrEOF()
			}
			bits := binary.BigEndian.Uint64(d.buf[d.pos+1:])
			d.pos += 9
			return Number{Kind: NumberDouble, Float: math.Float64frombits(bits)}, nil
		}
	}
	return Number{}, &FormatError{Msg: "decimal fraction component is not a number"}
}

// yearToDays returns the number of days between 1970-01-01 and the given
// year's January 1st, using the proleptic Gregorian calendar.
func yearToDays(year int) (days int64, isLeap bool) {
	const leapYearsInCycle = 97
	const leapYearsUntil1970 = 478

	isLeap = (year%4 == 0 && year%100 != 0) || year%400 == 0

	cycles := int64(year / 400)
	yearsSinceCycleStart := year % 400

	leapYearsSinceCycleStart := yearsSinceCycleStart/4 - yearsSinceCycleStart/100
	if !isLeap {
		leapYearsSinceCycleStart++
	}
	leapYearsSince1970 := cycles*leapYearsInCycle + int64(leapYearsSinceCycleStart) - leapYearsUntil1970
	return int64(year-1970)*365 + leapYearsSince1970, isLeap
}

var monthLengths = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func monthToDays(month int, isLeap bool) int {
	days := 0
	if isLeap && month > 2 {
		days = 1
	}
	for i := 0; i < month-1; i++ {
		days += monthLengths[i]
	}
	return days
}

func dateMidnightUTC(year, month, day int) int64 {
	days, isLeap := yearToDays(year)
	days += int64(monthToDays(month, isLeap))
	days += int64(day - 1)
	return days * 86400
}

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }

// parseStringTime drains the current Timestamp item's RFC 3339 text (tag
// 0) and parses it into a Number, per the fixed-width grammar
// YYYY-MM-DDThh:mm:ss(.fraction)?(Z|+hh:mm|-hh:mm). A non-zero fractional
// part yields a NumberDouble; otherwise a NumberUint/NumberNegInt.
func (d *Decoder) parseStringTime() (Number, error) {
	var text []byte
	for {
		chunk, finished, err := d.BytesGetSome()
		if err != nil {
			return Number{}, err
		}
		text = append(text, chunk...)
		if finished {
			break
		}
	}

	fail := func() (Number, error) {
		return Number{}, &FormatError{Msg: "malformed string time"}
	}
	need := func(n int) bool { return len(text) >= n }
	digit2 := func(i int) (int, bool) {
		if !isDigitByte(text[i]) || !isDigitByte(text[i+1]) {
			return 0, false
		}
		return int(text[i]-'0')*10 + int(text[i+1]-'0'), true
	}

	if !need(20) {
		return fail()
	}
	if !isDigitByte(text[0]) || !isDigitByte(text[1]) || !isDigitByte(text[2]) || !isDigitByte(text[3]) || text[4] != '-' {
		return fail()
	}
	year := int(text[0]-'0')*1000 + int(text[1]-'0')*100 + int(text[2]-'0')*10 + int(text[3]-'0')

	month, ok := digit2(5)
	if !ok || text[7] != '-' || month < 1 || month > 12 {
		return fail()
	}
	day, ok := digit2(8)
	if !ok || (text[10] != 'T' && text[10] != 't') || day < 1 || day > 31 {
		return fail()
	}
	timestamp := dateMidnightUTC(year, month, day)

	hour, ok := digit2(11)
	if !ok || hour > 23 || text[13] != ':' {
		return fail()
	}
	timestamp += int64(hour) * 3600
	minute, ok := digit2(14)
	if !ok || minute > 59 || text[16] != ':' {
		return fail()
	}
	timestamp += int64(minute) * 60
	second, ok := digit2(17)
	if !ok || second > 60 {
		return fail()
	}
	timestamp += int64(second)

	index := 19
	var nanosecond int64
	if index < len(text) && text[index] == '.' {
		index++
		digits := 0
		for digits < 9 && index < len(text) && isDigitByte(text[index]) {
			nanosecond = nanosecond*10 + int64(text[index]-'0')
			index++
			digits++
		}
		for digits < 9 {
			nanosecond *= 10
			digits++
		}
	}

	if !need(index + 1) {
		return fail()
	}
	var tzOffsetSeconds int64
	switch text[index] {
	case 'Z', 'z':
		index++
	case '+', '-':
		if !need(index + 6) {
			return fail()
		}
		sign := text[index]
		tzHour, ok1 := digit2(index + 1)
		tzMinute, ok2 := digit2(index + 4)
		if !ok1 || !ok2 || text[index+3] != ':' || tzMinute > 59 {
			return fail()
		}
		tzOffsetSeconds = int64(tzHour)*3600 + int64(tzMinute)*60
		if sign == '-' {
			tzOffsetSeconds = -tzOffsetSeconds
		}
		index += 6
	default:
		return fail()
	}
	if index != len(text) {
		return fail()
	}
	timestamp -= tzOffsetSeconds

	if nanosecond != 0 {
		return Number{Kind: NumberDouble, Float: float64(timestamp) + float64(nanosecond)/1e9}, nil
	}
	if timestamp >= 0 {
		return Number{Kind: NumberUint, Bits: uint64(timestamp)}, nil
	}
	return Number{Kind: NumberNegInt, Bits: uint64(-1 - timestamp)}, nil
}

// CurrentValueType returns the type of the item the decoder is
// positioned on, running preprocessing if needed.
func (d *Decoder) CurrentValueType() (ValueType, error) {
	if err := d.ensureCurrent(); err != nil {
		return ValueNone, err
	}
	return d.cur.valueType, nil
}

// Errno drives preprocessing and reports the decoder's terminal state:
// nil when an item is ready, ErrEOF once all items are delivered,
// ErrWantMore when more input is needed, or a *FormatError.
func (d *Decoder) Errno() error {
	return d.ensureCurrent()
}

// Null consumes a Null item.
func (d *Decoder) Null() error {
	if err := d.ensureCurrent(); err != nil {
		return err
	}
	if d.cur.valueType != ValueNull {
		return ErrLogic
	}
	d.resetItemState()
	return nil
}

// Bool consumes a Bool item.
func (d *Decoder) Bool() (bool, error) {
	if err := d.ensureCurrent(); err != nil {
		return false, err
	}
	if d.cur.valueType != ValueBool {
		return false, ErrLogic
	}
	v := d.cur.number.Bits != 0
	d.resetItemState()
	return v, nil
}

// Number consumes a UInt/NegInt/Float/Double/Timestamp item and returns
// its decoded Number. For Timestamp items carrying tag 0 (string time),
// this is where the RFC 3339 text is actually read and parsed.
func (d *Decoder) Number() (Number, error) {
	if err := d.ensureCurrent(); err != nil {
		return Number{}, err
	}
	switch d.cur.valueType {
	case ValueUint, ValueNegInt, ValueFloat, ValueDouble:
		n := d.cur.number
		d.resetItemState()
		return n, nil
	case ValueTimestamp:
		if d.cur.stringTimePending {
			n, err := d.parseStringTime()
			if err != nil {
				return Number{}, err
			}
			d.resetItemState()
			return n, nil
		}
		n := d.cur.number
		d.resetItemState()
		return n, nil
	default:
		return Number{}, ErrLogic
	}
}

// EnterArray descends into the current Array item, pushing a new
// nesting frame. itemCount is the declared element count, or -1 for an
// indefinite-length array.
func (d *Decoder) EnterArray() (itemCount int, err error) {
	if err := d.ensureCurrent(); err != nil {
		return 0, err
	}
	if d.cur.valueType != ValueArray {
		return 0, ErrLogic
	}
	declared := int(int64(d.cur.number.Bits))
	if d.wasIndefinite() {
		declared = -1
	}
	d.stack = append(d.stack, frame{kind: frameArray, declared: declared})
	if len(d.stack) > d.maxNest {
		return 0, &FormatError{Msg: "nesting stack exceeded"}
	}
	d.resetItemState()
	return declared, nil
}

// EnterMap descends into the current Map item, pushing a new nesting
// frame. pairCount is the declared key/value pair count, or -1 for an
// indefinite-length map.
func (d *Decoder) EnterMap() (pairCount int, err error) {
	if err := d.ensureCurrent(); err != nil {
		return 0, err
	}
	if d.cur.valueType != ValueMap {
		return 0, ErrLogic
	}
	// d.cur.number.Bits holds the raw item count (2x the pair count): the
	// frame must pop only once both the key and the value of the last pair
	// have each bumped it once via deliverItem.
	rawItems := -1
	pairCount := -1
	if !d.wasIndefinite() {
		rawItems = int(int64(d.cur.number.Bits))
		pairCount = rawItems / 2
	}
	d.stack = append(d.stack, frame{kind: frameMap, declared: rawItems})
	if len(d.stack) > d.maxNest {
		return 0, &FormatError{Msg: "nesting stack exceeded"}
	}
	d.resetItemState()
	return pairCount, nil
}

func (d *Decoder) wasIndefinite() bool {
	return d.cur.number.Kind == NumberUint && int64(d.cur.number.Bits) < 0
}

// resetItemState marks the current item fully consumed and clears the
// per-item timestamp bookkeeping so it cannot leak into the next item's
// processing.
func (d *Decoder) resetItemState() {
	d.needsPreprocessing = true
	d.cur.tsKind = timestampNone
	d.cur.stringTimePending = false
}

// Bytes begins streaming a Bytes or Text item. totalSize is the declared
// length, or -1 if unknown (indefinite-length string still being
// assembled from chunks).
func (d *Decoder) Bytes() (totalSize int, err error) {
	if err := d.ensureCurrent(); err != nil {
		return 0, err
	}
	if d.cur.valueType != ValueBytes && d.cur.valueType != ValueText {
		return 0, ErrLogic
	}
	return d.cur.strTotal, nil
}

// BytesGetSome returns the next available chunk of the current
// Bytes/Text item. finished reports whether this was the final chunk.
// The returned slice is borrowed: it is only valid until the next call
// into the decoder.
func (d *Decoder) BytesGetSome() (chunk []byte, finished bool, err error) {
	if d.cur.strRemaining > 0 {
		avail := len(d.buf) - d.pos
		if avail > d.cur.strRemaining {
			avail = d.cur.strRemaining
		}
		if avail == 0 {
			if d.last {
				return nil, false, &FormatError{Msg: "truncated string"}
			}
			return nil, false, ErrWantMore
		}
		chunk = d.buf[d.pos : d.pos+avail]
		d.pos += avail
		d.cur.strRemaining -= avail
		if d.cur.strRemaining == 0 && !d.stringIsIndefinite() {
			d.resetItemState()
			return chunk, true, nil
		}
		if d.cur.strRemaining == 0 {
			// inner definite chunk of an indefinite string drained; more
			// chunks or a break may follow.
			d.resetItemState()
		}
		return chunk, false, nil
	}

	if !d.stringIsIndefinite() {
		d.resetItemState()
		return nil, true, nil
	}

	// Need the next inner chunk header or the terminating break.
	for {
		if !d.ensureBytes(1) {
			if d.last {
				return nil, false, &FormatError{Msg: "truncated indefinite string"}
			}
			return nil, false, ErrWantMore
		}
		b := d.buf[d.pos]
		if b == breakByte {
			d.pos++
			d.stack = d.stack[:len(d.stack)-1]
			d.bumpParent()
			d.resetItemState()
			return nil, true, nil
		}
		major := b >> 5
		info := b & 0x1f
		wantMajor := majorBytes
		if d.cur.valueType == ValueText || d.cur.valueType == ValueTimestamp {
			wantMajor = majorText
		}
		if major != wantMajor || info == indefLen {
			return nil, false, &FormatError{Msg: "indefinite string chunk has wrong type"}
		}
		val, hdrLen, ok := d.peekNumber(info)
		if !ok {
			return nil, false, d.wantMoreOrEOF()
		}
		d.pos += hdrLen
		d.cur.strRemaining = int(val)
		if d.cur.strRemaining == 0 {
			continue
		}
		avail := len(d.buf) - d.pos
		if avail > d.cur.strRemaining {
			avail = d.cur.strRemaining
		}
		if avail == 0 {
			if d.last {
				return nil, false, &FormatError{Msg: "truncated string chunk"}
			}
			return nil, false, ErrWantMore
		}
		chunk = d.buf[d.pos : d.pos+avail]
		d.pos += avail
		d.cur.strRemaining -= avail
		return chunk, false, nil
	}
}

func (d *Decoder) stringIsIndefinite() bool {
	top := d.topFrame()
	return top != nil && (top.kind == frameIndefBytes || top.kind == frameIndefText)
}
