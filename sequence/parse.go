package sequence

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/teranos/canopy/errors"
)

// Parse parses a comma-separated list of integers such as "1,2, 3".
// Surrounding brackets are accepted so that String output parses back.
func Parse(text string) (Sequence, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(strings.TrimPrefix(text, "["), "]")
	if strings.TrimSpace(text) == "" {
		return Sequence{}, nil
	}

	fields := strings.Split(text, ",")
	seq := make(Sequence, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidArgument, "element %d: %q is not a 32-bit integer", i, strings.TrimSpace(f))
		}
		seq = append(seq, int32(v))
	}
	return seq, nil
}

// ParseLine parses one input line. A line is either "key<TAB>1,2,3" or
// "1,2,3"; in the second form the key is the 1-based line number.
func ParseLine(line string, lineNo int) (Point, error) {
	key := strconv.Itoa(lineNo)
	body := line
	if idx := strings.IndexByte(line, '\t'); idx >= 0 {
		key = strings.TrimSpace(line[:idx])
		body = line[idx+1:]
	}

	seq, err := Parse(body)
	if err != nil {
		return Point{}, errors.Wrapf(err, "line %d", lineNo)
	}
	return Point{Key: key, Seq: seq}, nil
}

// Reader streams points from line-oriented text. Blank lines are skipped.
type Reader struct {
	scanner *bufio.Scanner
	lineNo  int
	name    string
}

// NewReader creates a Reader; name is used in error messages only
func NewReader(r io.Reader, name string) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{scanner: scanner, name: name}
}

// Next returns the next point, or io.EOF when the input is exhausted
func (r *Reader) Next() (Point, error) {
	for r.scanner.Scan() {
		r.lineNo++
		line := r.scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, err := ParseLine(line, r.lineNo)
		if err != nil {
			return Point{}, errors.Wrapf(err, "%s", r.name)
		}
		return p, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Point{}, errors.Wrapf(err, "failed to read %s", r.name)
	}
	return Point{}, io.EOF
}

// ReadAll drains the reader
func (r *Reader) ReadAll() ([]Point, error) {
	var points []Point
	for {
		p, err := r.Next()
		if err == io.EOF {
			return points, nil
		}
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
}

// FormatLine renders a point in the "key<TAB>1,2,3" input form
func FormatLine(p Point) string {
	var b strings.Builder
	b.WriteString(p.Key)
	b.WriteByte('\t')
	for i, v := range p.Seq {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(int64(v), 10))
	}
	return b.String()
}
