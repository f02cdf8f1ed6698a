package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubivismedia/aircraft/pkg/core"
)

func newTestParser() *Parser {
	return NewParser(nil)
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		line    string
		wantCmd string
		want    []string
	}{
		{"/aircraft design Falcon 3 5", "design", []string{"Falcon", "3", "5"}},
		{"aircraft LOAD Falcon", "load", []string{"Falcon"}},
		{"design Falcon 3 5", "design", []string{"Falcon", "3", "5"}},
		{`/aircraft design "Big Bird" 2 2`, "design", []string{"Big Bird", "2", "2"}},
		{`/aircraft load "Say ""hi"""`, "load", []string{`Say "hi"`}},
		{"  /aircraft   list  ", "list", []string{}},
		{"/aircraft", "", nil},
		{"", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, args := SplitCommand(tt.line)
			assert.Equal(t, tt.wantCmd, cmd)
			if len(tt.want) == 0 {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.want, args)
			}
		})
	}
}

func TestParseDesign(t *testing.T) {
	p := newTestParser()

	got, err := p.ParseDesign([]string{"Falcon", "3", "5"})
	require.NoError(t, err)
	assert.Equal(t, DesignRequest{Name: "Falcon", SeatsPerRow: 3, RowCount: 5}, got)

	got, err = p.ParseDesign([]string{`"Falcon"`, `"1"`, "1", "ignored"})
	require.NoError(t, err)
	assert.Equal(t, DesignRequest{Name: "Falcon", SeatsPerRow: 1, RowCount: 1}, got)
}

func TestParseDesign_MissingArgs(t *testing.T) {
	p := newTestParser()

	for _, args := range [][]string{nil, {"Falcon"}, {"Falcon", "3"}, {`""`, "1", "1"}} {
		_, err := p.ParseDesign(args)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUsage), "args %v", args)

		var ue *UsageError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, UsageDesign, ue.Usage)
		assert.Equal(t, UsageDesign, err.Error())
	}
}

func TestParseDesign_InvalidNumbers(t *testing.T) {
	p := newTestParser()

	for _, args := range [][]string{
		{"Falcon", "x", "5"},
		{"Falcon", "3", "five"},
		{"Falcon", "0", "5"},
		{"Falcon", "3", "-1"},
		{"Falcon", "2.5", "5"},
		{"Falcon", "", "5"},
		{"Big", "4000000000", "4000000000"},
		{"Big", "2147483648", "1"},
		{"Big", "1", "99999999999999999999"},
	} {
		_, err := p.ParseDesign(args)
		assert.True(t, errors.Is(err, ErrInvalidNumber), "args %v: got %v", args, err)
	}
}

func TestParseDesign_Int32Bound(t *testing.T) {
	p := newTestParser()

	got, err := p.ParseDesign([]string{"Big", "2147483647", "1"})
	require.NoError(t, err)
	assert.Equal(t, 2147483647, got.SeatsPerRow)
}

func TestParseLoadAndInfo(t *testing.T) {
	p := newTestParser()

	name, err := p.ParseLoad([]string{"Falcon"})
	require.NoError(t, err)
	assert.Equal(t, "Falcon", name)

	_, err = p.ParseLoad(nil)
	var ue *UsageError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, UsageLoad, ue.Usage)

	_, err = p.ParseInfo([]string{"  "})
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, UsageInfo, ue.Usage)
}

func TestParseSelection(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		args []string
		want core.Material
	}{
		{[]string{"BRICKS"}, core.Bricks},
		{[]string{"smooth", "stone"}, core.SmoothStone},
		{[]string{"minecraft:oak_planks"}, core.OakPlanks},
		{[]string{`"quartz-block"`}, core.QuartzBlock},
	}
	for _, tt := range tests {
		got, err := p.ParseSelection(tt.args)
		require.NoError(t, err, "args %v", tt.args)
		assert.Equal(t, tt.want, got.Material)
		assert.Empty(t, got.MenuID)
	}

	got, err := p.ParseSelection([]string{"smooth", "stone", "menu=5f0c"})
	require.NoError(t, err)
	assert.Equal(t, SelectionRequest{Material: core.SmoothStone, MenuID: "5f0c"}, got)

	_, err = p.ParseSelection([]string{"menu=5f0c"})
	assert.ErrorIs(t, err, ErrUsage)

	_, err = p.ParseSelection([]string{"unobtainium"})
	assert.ErrorIs(t, err, ErrUnknownMaterial)

	_, err = p.ParseSelection(nil)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestParseSeat(t *testing.T) {
	p := newTestParser()

	for _, args := range [][]string{
		{"1,71,-3"},
		{"1", "71", "-3"},
		{"[1,", "71,", "-3]"},
	} {
		got, err := p.ParseSeat(args)
		require.NoError(t, err, "args %v", args)
		assert.Equal(t, core.Position{X: 1, Y: 71, Z: -3}, got)
	}

	for _, args := range [][]string{nil, {"1,2"}, {"a", "b", "c"}} {
		_, err := p.ParseSeat(args)
		var ue *UsageError
		require.True(t, errors.As(err, &ue), "args %v", args)
		assert.Equal(t, UsageSit, ue.Usage)
	}
}
