// Package intake turns delimited text records into player records ready for
// the auction pool. One player per line, fields in order:
//
//	name, basePrice, category, role, intro, photoRef
//
// Trailing fields may be omitted. A missing or unparseable base price falls
// back to the configured floor; a blank name becomes "Player N". Every
// imported player gets a fresh id and starts available.
package intake

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jensholdgaard/auction-desk/internal/auction"
)

// Parser builds players from bulk import text.
type Parser struct {
	// DefaultBasePrice is the floor assigned when a record carries no price.
	DefaultBasePrice int
}

// Parse reads all records from r and returns the constructed players.
func (p *Parser) Parse(r io.Reader) ([]auction.Player, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var players []auction.Player
	for i := 0; ; i++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record %d: %w", i+1, err)
		}
		if isBlank(record) {
			continue
		}
		players = append(players, p.player(record, i))
	}
	return players, nil
}

// ParseString is Parse over a raw text blob.
func (p *Parser) ParseString(data string) ([]auction.Player, error) {
	return p.Parse(strings.NewReader(data))
}

func (p *Parser) player(record []string, index int) auction.Player {
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	name := field(0)
	if name == "" {
		name = fmt.Sprintf("Player %d", index+1)
	}

	basePrice := p.DefaultBasePrice
	if v, err := strconv.Atoi(field(1)); err == nil && v > 0 {
		basePrice = v
	}

	return auction.Player{
		ID:        uuid.NewString(),
		Name:      name,
		BasePrice: basePrice,
		Category:  field(2),
		Role:      field(3),
		Intro:     field(4),
		PhotoRef:  field(5),
		Status:    auction.StatusAvailable,
	}
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
