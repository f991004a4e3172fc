package capture

import (
	"context"
	"fmt"

	"github.com/justapithecus/monochrome/ipc"
)

// Sender writes one complete frame. *transport.Channel implements it.
type Sender interface {
	SendContext(ctx context.Context, frame []byte) error
}

// Replay resends captured frames in order and returns how many were sent.
// Frames with a corrupt length prefix stop the replay before anything
// past them is written.
func Replay(ctx context.Context, frames []Frame, s Sender) (int, error) {
	for i, f := range frames {
		if _, err := ipc.SplitFrame(f.Data); err != nil {
			return i, fmt.Errorf("replay frame %d: %w", f.Seq, err)
		}
		if err := s.SendContext(ctx, f.Data); err != nil {
			return i, err
		}
	}
	return len(frames), nil
}
