// Package parser turns raw command arguments into validated requests.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ubivismedia/aircraft/internal/geo"
	"github.com/ubivismedia/aircraft/internal/util"
	"github.com/ubivismedia/aircraft/pkg/core"
)

// Usage lines shown to the owner when arguments are missing.
const (
	UsageDesign  = "Usage: /aircraft design <Name> <SeatsPerRow> <RowCount>"
	UsageLoad    = "Usage: /aircraft load <Name>"
	UsageInfo    = "Usage: /aircraft info <Name>"
	UsageSelect  = "Usage: /aircraft select <Material>"
	UsageSit     = "Usage: /aircraft sit <x,y,z>"
	UsageGeneral = "Usage: /aircraft <design|load|info|list>"
)

var (
	// ErrUsage is returned when required arguments are missing.
	ErrUsage = errors.New("missing arguments")
	// ErrInvalidNumber is returned when seats or rows are not positive integers.
	ErrInvalidNumber = errors.New("invalid number format for seats or rows")
	// ErrUnknownMaterial is returned when a material name does not resolve.
	ErrUnknownMaterial = errors.New("unknown material")
)

// UsageError carries the usage line for the failed command.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return e.Usage
}

func (e *UsageError) Unwrap() error {
	return ErrUsage
}

// DesignRequest is a validated design command.
type DesignRequest struct {
	Name        string
	SeatsPerRow int
	RowCount    int
}

// Parser provides pure []string -> request conversion.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// SplitCommand splits a command line into its subcommand and arguments.
// A leading "/aircraft" or "aircraft" is dropped. Double-quoted tokens may
// contain spaces.
func SplitCommand(line string) (string, []string) {
	tokens := tokenize(line)
	if len(tokens) > 0 && strings.EqualFold(strings.TrimPrefix(tokens[0], "/"), "aircraft") {
		tokens = tokens[1:]
	}
	if len(tokens) == 0 {
		return "", nil
	}
	return strings.ToLower(tokens[0]), tokens[1:]
}

// tokenize splits on whitespace, keeping double-quoted runs together. Quotes
// are removed; "" inside a quoted run is a literal quote.
func tokenize(line string) []string {
	var (
		tokens  []string
		current strings.Builder
		inQuote bool
		started bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' && inQuote && i+1 < len(runes) && runes[i+1] == '"':
			current.WriteRune('"')
			i++
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			if started {
				tokens = append(tokens, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// parsePositive parses a strictly positive base-10 integer that fits in 32
// bits, the range the host accepts for seat counts.
func parsePositive(s string) (int, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(util.TrimQuotes(s)), 10, 32)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("%d is not positive", v)
	}
	return int(v), nil
}

// cleanName normalises a structure name argument.
func cleanName(s string) string {
	return util.CleanArg(s)
}

// ParseDesign validates: design <name> <seatsPerRow> <rowCount>.
// Extra arguments are ignored.
func (p *Parser) ParseDesign(args []string) (DesignRequest, error) {
	if len(args) < 3 {
		return DesignRequest{}, &UsageError{Usage: UsageDesign}
	}

	name := cleanName(args[0])
	if name == "" {
		return DesignRequest{}, &UsageError{Usage: UsageDesign}
	}

	seats, err := parsePositive(args[1])
	if err != nil {
		p.logger.Debug("Rejected seats per row", "value", args[1], "error", err)
		return DesignRequest{}, fmt.Errorf("%w: seatsPerRow=%q", ErrInvalidNumber, args[1])
	}
	rows, err := parsePositive(args[2])
	if err != nil {
		p.logger.Debug("Rejected row count", "value", args[2], "error", err)
		return DesignRequest{}, fmt.Errorf("%w: rowCount=%q", ErrInvalidNumber, args[2])
	}

	return DesignRequest{Name: name, SeatsPerRow: seats, RowCount: rows}, nil
}

// ParseName validates a command taking a single structure name; usage is
// returned in the UsageError when it is missing.
func (p *Parser) ParseName(args []string, usage string) (string, error) {
	if len(args) < 1 {
		return "", &UsageError{Usage: usage}
	}
	name := cleanName(args[0])
	if name == "" {
		return "", &UsageError{Usage: usage}
	}
	return name, nil
}

// ParseLoad validates: load <name>.
func (p *Parser) ParseLoad(args []string) (string, error) {
	return p.ParseName(args, UsageLoad)
}

// ParseInfo validates: info <name>.
func (p *Parser) ParseInfo(args []string) (string, error) {
	return p.ParseName(args, UsageInfo)
}

// MenuArg prefixes the menu ID a host appends to a select command.
const MenuArg = "menu="

// SelectionRequest is a validated select command. MenuID is empty when the
// choice was typed rather than clicked.
type SelectionRequest struct {
	Material core.Material
	MenuID   string
}

// ParseSelection resolves the material named by the arguments. Multi-word
// names may be given as separate arguments ("smooth stone"). A trailing
// menu=<id> names the menu that was clicked.
func (p *Parser) ParseSelection(args []string) (SelectionRequest, error) {
	var req SelectionRequest
	if n := len(args); n > 0 && strings.HasPrefix(args[n-1], MenuArg) {
		req.MenuID = strings.TrimPrefix(args[n-1], MenuArg)
		args = args[:n-1]
	}
	if len(args) < 1 {
		return SelectionRequest{}, &UsageError{Usage: UsageSelect}
	}
	raw := strings.Join(args, " ")
	m, ok := core.MatchMaterial(util.TrimQuotes(raw))
	if !ok {
		return SelectionRequest{}, fmt.Errorf("%w: %q", ErrUnknownMaterial, raw)
	}
	req.Material = m
	return req, nil
}

// ParseSeat resolves a block coordinate given as "x,y,z", "x y z" or
// "[x, y, z]".
func (p *Parser) ParseSeat(args []string) (core.Position, error) {
	if len(args) < 1 {
		return core.Position{}, &UsageError{Usage: UsageSit}
	}
	parts := strings.FieldsFunc(strings.Join(args, " "), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	pos, err := geo.PositionFromString(strings.Join(parts, ","))
	if err != nil {
		p.logger.Debug("Rejected seat position", "args", args, "error", err)
		return core.Position{}, &UsageError{Usage: UsageSit}
	}
	return pos, nil
}
