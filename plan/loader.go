package plan

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// scenarioFields is the token count of a scenario line: type, id, x, y, z.
const scenarioFields = 5

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scenario: %w", err)
	}
	defer f.Close()

	sc, err := ParseScenario(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario parses lines of the form "<type> <id> <x> <y> <z>".
// Blank lines and lines containing '#' are ignored. The first invalid line
// aborts parsing with a *ValidationError.
func ParseScenario(r io.Reader) (*Scenario, error) {
	sc := NewScenario()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.Contains(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		kind, id, pos, err := parseLine(line)
		if err != nil {
			err.Line = lineNo
			return nil, err
		}
		if sc.Add(kind, id, pos) {
			logrus.Warnf("line %d: duplicate %s %q, later location wins", lineNo, kind, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	logrus.Infof("Loaded scenario: %d sats, %d users, %d interferers",
		len(sc.Sats), len(sc.Users), len(sc.Interferers))
	return sc, nil
}

func parseLine(line string) (EntityKind, string, Point3, *ValidationError) {
	parts := strings.Fields(line)
	if len(parts) != scenarioFields {
		return "", "", Point3{}, &ValidationError{Text: line, Err: ErrInvalidLine,
			Reason: fmt.Sprintf("expected %d fields, got %d", scenarioFields, len(parts))}
	}
	kind := EntityKind(parts[0])
	if !validEntityKinds[kind] {
		return "", "", Point3{}, &ValidationError{Text: line, Err: ErrInvalidLine,
			Reason: fmt.Sprintf("unknown record type %q; valid: sat, user, interferer", parts[0])}
	}

	var coords [3]float64
	for i, tok := range parts[2:] {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return "", "", Point3{}, &ValidationError{Text: line, Err: ErrInvalidLocation,
				Reason: fmt.Sprintf("coordinate %q is not a finite number", tok)}
		}
		coords[i] = v
	}
	return kind, parts[1], Point3{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}
