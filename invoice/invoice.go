// Package invoice hands out invoice numbers for new reservations.
package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Generator struct {
	prefix string
	now    func() time.Time
}

func NewGenerator(prefix string) *Generator {
	return &Generator{prefix: prefix, now: time.Now}
}

// Next returns a number such as INV-20240301-3F2A9C1B. The random suffix comes
// from a v4 uuid, so numbers are unique without coordination.
func (g *Generator) Next(_ context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", g.prefix, g.now().UTC().Format("20060102"), suffix), nil
}
