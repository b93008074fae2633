package softaculous

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Older Softaculous builds answer api=json requests with PHP's serialize()
// format. unserializePHP decodes the subset those replies use (null, bool,
// int, float, string, array, object) into the same tree shape JSON decoding
// produces: arrays and objects become map[string]any keyed by the stringified
// PHP key, integers become int64, floats float64.

var errPHPSyntax = errors.New("invalid serialized value")

// maxPHPDepth bounds array/object nesting, matching encoding/json's limit.
const maxPHPDepth = 10000

// minPHPElementLen is the shortest encoding of one array element ("i:0;N;").
const minPHPElementLen = 6

type phpDecoder struct {
	data  []byte
	pos   int
	depth int
}

func unserializePHP(data []byte) (any, error) {
	d := &phpDecoder{data: bytes.TrimSpace(data)}
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, fmt.Errorf("%w: trailing data at offset %d", errPHPSyntax, d.pos)
	}
	return v, nil
}

func (d *phpDecoder) fail(what string) error {
	return fmt.Errorf("%w: %s at offset %d", errPHPSyntax, what, d.pos)
}

func (d *phpDecoder) expect(b byte) error {
	if d.pos >= len(d.data) || d.data[d.pos] != b {
		return d.fail(fmt.Sprintf("expected %q", b))
	}
	d.pos++
	return nil
}

// until returns the bytes up to (not including) the next delim and consumes it.
func (d *phpDecoder) until(delim byte) (string, error) {
	i := bytes.IndexByte(d.data[d.pos:], delim)
	if i < 0 {
		return "", d.fail(fmt.Sprintf("missing %q", delim))
	}
	s := string(d.data[d.pos : d.pos+i])
	d.pos += i + 1
	return s, nil
}

func (d *phpDecoder) value() (any, error) {
	if d.pos+1 >= len(d.data) {
		return nil, d.fail("unexpected end")
	}
	tag := d.data[d.pos]
	if tag == 'N' {
		d.pos++
		return nil, d.expect(';')
	}
	d.pos++
	if err := d.expect(':'); err != nil {
		return nil, err
	}

	switch tag {
	case 'b':
		s, err := d.until(';')
		if err != nil {
			return nil, err
		}
		switch s {
		case "0":
			return false, nil
		case "1":
			return true, nil
		}
		return nil, d.fail("bad bool")
	case 'i':
		s, err := d.until(';')
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, d.fail("bad int")
		}
		return n, nil
	case 'd':
		s, err := d.until(';')
		if err != nil {
			return nil, err
		}
		switch s {
		case "INF":
			return math.Inf(1), nil
		case "-INF":
			return math.Inf(-1), nil
		case "NAN":
			return math.NaN(), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, d.fail("bad float")
		}
		return f, nil
	case 's':
		s, err := d.str()
		if err != nil {
			return nil, err
		}
		return s, d.expect(';')
	case 'a':
		return d.array()
	case 'O':
		// Class name is irrelevant to callers; objects decode as maps.
		if _, err := d.str(); err != nil {
			return nil, err
		}
		if err := d.expect(':'); err != nil {
			return nil, err
		}
		return d.array()
	}
	return nil, d.fail(fmt.Sprintf("unsupported type %q", tag))
}

// str reads `len:"bytes"` with the length counted in bytes.
func (d *phpDecoder) str() (string, error) {
	lenStr, err := d.until(':')
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(lenStr)
	if err != nil || n < 0 {
		return "", d.fail("bad string length")
	}
	if err := d.expect('"'); err != nil {
		return "", err
	}
	if n > len(d.data)-d.pos {
		return "", d.fail("string overruns input")
	}
	s := string(d.data[d.pos : d.pos+n])
	d.pos += n
	return s, d.expect('"')
}

// array reads `count:{key;value;...}`.
func (d *phpDecoder) array() (map[string]any, error) {
	countStr, err := d.until(':')
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(countStr)
	if err != nil || count < 0 {
		return nil, d.fail("bad element count")
	}
	if count > (len(d.data)-d.pos)/minPHPElementLen {
		return nil, d.fail("element count overruns input")
	}
	if d.depth >= maxPHPDepth {
		return nil, d.fail("nesting too deep")
	}
	d.depth++
	defer func() { d.depth-- }()
	if err := d.expect('{'); err != nil {
		return nil, err
	}
	m := make(map[string]any, count)
	for i := 0; i < count; i++ {
		k, err := d.value()
		if err != nil {
			return nil, err
		}
		var key string
		switch kt := k.(type) {
		case int64:
			key = strconv.FormatInt(kt, 10)
		case string:
			key = kt
		default:
			return nil, d.fail("bad array key")
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		m[key] = v
	}
	return m, d.expect('}')
}
