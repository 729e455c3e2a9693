package query

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/salmonumbrella/harp-cli/internal/device"
	"github.com/salmonumbrella/harp-cli/internal/doc"
)

// NonNumericMaskValueError reports a mask value that cannot be written as
// hexadecimal.
type NonNumericMaskValueError struct {
	Value any
}

func (e *NonNumericMaskValueError) Error() string {
	return fmt.Sprintf("mask value %s is not numeric", describe(e.Value))
}

func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	default:
		return fmt.Sprint(x)
	}
}

// MaskAttributes decodes a mask's entries into [name, value, description]
// rows. Group entries extend the row with every field of their record. The
// first entry that cannot be hex encoded fails the whole mask.
func MaskAttributes(entries []device.MaskEntry) (Table, error) {
	rows := make([][]any, 0, len(entries))
	for _, entry := range entries {
		row, err := maskRow(entry)
		if err != nil {
			return Table{}, fmt.Errorf("%s: %w", entry.EntryName(), err)
		}
		rows = append(rows, row)
	}
	return Table{Headers: append([]string(nil), maskHeaders...), Rows: rows}, nil
}

func maskRow(entry device.MaskEntry) ([]any, error) {
	switch e := entry.(type) {
	case device.FlatMaskEntry:
		hex, err := Hex(e.Value)
		if err != nil {
			return nil, err
		}
		return []any{e.Name, hex, ""}, nil
	case device.GroupMaskEntry:
		hex, err := Hex(e.Key)
		if err != nil {
			return nil, err
		}
		row := make([]any, 0, len(e.Fields)+2)
		row = append(row, e.Name, hex)
		for _, f := range e.Fields {
			row = append(row, f.Native())
		}
		return row, nil
	default:
		return nil, fmt.Errorf("unsupported mask entry %T", entry)
	}
}

// Hex formats v as lowercase hexadecimal with a 0x prefix: 255 becomes
// "0xff", "16" becomes "0x10" and 1.5 becomes "0x1.8". Strings may hold
// decimal, 0x, 0o or 0b literals. Values that do not denote a finite number
// fail with *NonNumericMaskValueError.
func Hex(v any) (string, error) {
	n, ok := toNumber(v)
	if !ok {
		if s, isScalar := v.(doc.Scalar); isScalar {
			v = s.Data
		}
		return "", &NonNumericMaskValueError{Value: v}
	}
	return n.hex(), nil
}

// maxFractionDigits bounds the fractional part of very small values.
const maxFractionDigits = 32

type number struct {
	neg   bool
	whole *big.Int
	frac  float64
}

func (n number) hex() string {
	var b strings.Builder
	if n.neg && (n.whole.Sign() != 0 || n.frac != 0) {
		b.WriteByte('-')
	}
	b.WriteString("0x")
	b.WriteString(n.whole.Text(16))
	if n.frac != 0 {
		b.WriteByte('.')
		f := n.frac
		for i := 0; f != 0 && i < maxFractionDigits; i++ {
			f *= 16
			d := int(f)
			b.WriteByte("0123456789abcdef"[d])
			f -= float64(d)
		}
	}
	return b.String()
}

func intNumber(x int64) number {
	return number{neg: x < 0, whole: new(big.Int).Abs(big.NewInt(x))}
}

func toNumber(v any) (number, bool) {
	switch x := v.(type) {
	case doc.Scalar:
		return toNumber(x.Data)
	case int:
		return intNumber(int64(x)), true
	case int64:
		return intNumber(x), true
	case int32:
		return intNumber(int64(x)), true
	case uint64:
		return number{whole: new(big.Int).SetUint64(x)}, true
	case uint32:
		return intNumber(int64(x)), true
	case uint8:
		return intNumber(int64(x)), true
	case float64:
		return floatNumber(x)
	case bool:
		if x {
			return intNumber(1), true
		}
		return intNumber(0), true
	case string:
		return parseNumber(x)
	default:
		return number{}, false
	}
}

func parseNumber(s string) (number, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return intNumber(0), true
	}

	neg := false
	body := s
	switch body[0] {
	case '-':
		neg = true
		body = body[1:]
	case '+':
		body = body[1:]
	}
	if body == "" {
		return number{}, false
	}

	base := 10
	if len(body) > 2 && body[0] == '0' {
		switch body[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 10 {
			body = body[2:]
		}
	}
	if body[0] == '-' || body[0] == '+' {
		return number{}, false
	}

	if whole, ok := new(big.Int).SetString(body, base); ok {
		return number{neg: neg, whole: whole}, true
	}
	if base != 10 || strings.ContainsAny(body, "_") {
		return number{}, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return number{}, false
	}
	return floatNumber(f)
}

func floatNumber(f float64) (number, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return number{}, false
	}
	neg := f < 0
	whole, frac := math.Modf(math.Abs(f))
	n, _ := big.NewFloat(whole).Int(nil)
	return number{neg: neg, whole: n, frac: frac}, true
}
