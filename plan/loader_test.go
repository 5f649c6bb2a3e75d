package plan

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_ValidFile(t *testing.T) {
	input := `# Starlink-like test case
sat 1 0 0 6921

user a 0 0 6371
user b 100.5 -20 6370.25
interferer x 0 1000 42000
   # indented comment
sat 2 10 10 6921 # trailing comment disables the line
`
	sc, err := ParseScenario(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, sc.Sats, 1)
	require.Len(t, sc.Users, 2)
	require.Len(t, sc.Interferers, 1)
	assert.Equal(t, Entity{ID: "1", Pos: Point3{Z: 6921}}, sc.Sats[0])
	assert.Equal(t, "a", sc.Users[0].ID)
	assert.Equal(t, "b", sc.Users[1].ID)
	assert.Equal(t, Point3{X: 100.5, Y: -20, Z: 6370.25}, sc.Users[1].Pos)

	pos, ok := sc.Interferer("x")
	assert.True(t, ok)
	assert.Equal(t, Point3{Y: 1000, Z: 42000}, pos)
	_, ok = sc.Sat("2")
	assert.False(t, ok, "commented line must be ignored")
}

func TestParseScenario_InvalidLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  error
		wantLine int
	}{
		{"missing coordinate", "sat s1 1.0 2.0", ErrInvalidLine, 1},
		{"extra field", "user u1 1 2 3 4", ErrInvalidLine, 1},
		{"unknown type", "\nstation g1 1 2 3", ErrInvalidLine, 2},
		{"type is case sensitive", "SAT s1 1 2 3", ErrInvalidLine, 1},
		{"unparseable coordinate", "user u1 1 two 3", ErrInvalidLocation, 1},
		{"NaN coordinate", "sat s1 NaN 0 0", ErrInvalidLocation, 1},
		{"infinite coordinate", "interferer i1 0 +Inf 0", ErrInvalidLocation, 1},
		{"fault after valid lines", "sat s1 0 0 7000\nuser u1 0 0 6371\nuser u2 0 0", ErrInvalidLine, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sc, err := ParseScenario(strings.NewReader(tc.input))

			assert.Nil(t, sc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.wantLine, verr.Line)
		})
	}
}

func TestParseScenario_DuplicateID_LaterLocationKeepsOrder(t *testing.T) {
	input := "user a 0 0 1\nuser b 0 0 2\nuser a 0 0 3\n"

	sc, err := ParseScenario(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, sc.Users, 2)
	assert.Equal(t, "a", sc.Users[0].ID)
	assert.Equal(t, Point3{Z: 3}, sc.Users[0].Pos)
	assert.Equal(t, "b", sc.Users[1].ID)
}

func TestParseScenario_SameIDAcrossKinds(t *testing.T) {
	sc, err := ParseScenario(strings.NewReader("sat 1 0 0 7000\nuser 1 0 0 6371\ninterferer 1 0 0 42000\n"))

	require.NoError(t, err)
	assert.Len(t, sc.Sats, 1)
	assert.Len(t, sc.Users, 1)
	assert.Len(t, sc.Interferers, 1)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.txt"))

	assert.Error(t, err)
}

func TestLoadScenario_ErrorNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("sat s1 1.0 2.0\n"), 0o644))

	_, err := LoadScenario(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "line 1")
	assert.ErrorIs(t, err, ErrInvalidLine)
}

func TestScenario_LiteralLookup(t *testing.T) {
	// GIVEN a scenario assembled without Add
	sc := &Scenario{Users: []Entity{{ID: "u1", Pos: Point3{X: 1}}}}

	// THEN lookups and Add still see the existing entities
	pos, ok := sc.User("u1")
	assert.True(t, ok)
	assert.Equal(t, Point3{X: 1}, pos)
	assert.True(t, sc.Add(KindUser, "u1", Point3{X: 2}))
	assert.Len(t, sc.Users, 1)
}
