//go:build tinygo

package fmtx

import (
	"io"

	"powerswitch-go/x/conv"
)

func Sprintf(format string, a ...any) string {
	var b builder
	b.format(format, a)
	return string(b.buf)
}

// Fprintf formats into a stack buffer and writes it with one call.
func Fprintf(w io.Writer, format string, a ...any) (int, error) {
	var stack [128]byte
	b := builder{buf: stack[:0]}
	b.format(format, a)
	return w.Write(b.buf)
}

// Supported: %s %c %d %x %X %v %% with an optional width on %s and %d.
// Unknown verbs are written literally.

type builder struct{ buf []byte }

func (b *builder) pad(n int) {
	for ; n > 0; n-- {
		b.buf = append(b.buf, ' ')
	}
}

func (b *builder) format(format string, args []any) {
	ai := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.buf = append(b.buf, c)
			continue
		}
		i++
		if i < len(format) && format[i] == '%' {
			b.buf = append(b.buf, '%')
			continue
		}
		width := 0
		for i < len(format) && '0' <= format[i] && format[i] <= '9' {
			width = width*10 + int(format[i]-'0')
			i++
		}
		if i >= len(format) || ai >= len(args) {
			return
		}
		verb, arg := format[i], args[ai]
		ai++

		var num [20]byte
		switch verb {
		case 's', 'v':
			v := builder{buf: num[:0]}
			v.value(arg)
			b.pad(width - len(v.buf))
			b.buf = append(b.buf, v.buf...)
		case 'd':
			s := conv.Itoa(num[:], toI64(arg))
			b.pad(width - len(s))
			b.buf = append(b.buf, s...)
		case 'x', 'X':
			b.hex(uint64(toI64(arg)), verb == 'X')
		case 'c':
			b.buf = append(b.buf, byte(toI64(arg)))
		default:
			b.buf = append(b.buf, '%', verb)
		}
	}
}

func (b *builder) value(v any) {
	var num [20]byte
	switch x := v.(type) {
	case string:
		b.buf = append(b.buf, x...)
	case []byte:
		b.buf = append(b.buf, x...)
	case interface{ String() string }:
		b.buf = append(b.buf, x.String()...)
	case error:
		b.buf = append(b.buf, x.Error()...)
	case bool:
		if x {
			b.buf = append(b.buf, "true"...)
		} else {
			b.buf = append(b.buf, "false"...)
		}
	case uint, uint8, uint16, uint32, uint64:
		b.buf = append(b.buf, conv.Utoa(num[:], toU64(x))...)
	case int, int8, int16, int32, int64:
		b.buf = append(b.buf, conv.Itoa(num[:], toI64(x))...)
	default:
		b.buf = append(b.buf, "<?>"...)
	}
}

func (b *builder) hex(u uint64, upper bool) {
	digits := "0123456789abcdef"
	if upper {
		digits = "0123456789ABCDEF"
	}
	var tmp [16]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = digits[u&0xF]
		u >>= 4
		if u == 0 {
			break
		}
	}
	b.buf = append(b.buf, tmp[i:]...)
}

func toU64(v any) uint64 {
	switch t := v.(type) {
	case uint:
		return uint64(t)
	case uint8:
		return uint64(t)
	case uint16:
		return uint64(t)
	case uint32:
		return uint64(t)
	case uint64:
		return t
	}
	return 0
}

func toI64(v any) int64 {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	}
	return int64(toU64(v))
}
