// Package twitter publishes tweets and manages the draft-to-publish workflow.
package twitter

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Publisher posts a tweet and returns its ID.
type Publisher interface {
	Publish(ctx context.Context, content string) (string, error)
}

// Simulator is a Publisher that fabricates IDs without calling any API,
// used when no Twitter credentials are configured.
type Simulator struct {
	seq atomic.Int64
}

func (s *Simulator) Publish(ctx context.Context, content string) (string, error) {
	return fmt.Sprintf("sim-%d", s.seq.Add(1)), nil
}
