package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/looplab/fsm"
)

// Conversation states of one chat connection.
const (
	stateNotConnected   = "not_connected"
	stateConnected      = "connected"
	stateAwaitingAnswer = "awaiting_answer"
	stateCompleted      = "completed"
)

const (
	eventConnect  = "connect"
	eventAsk      = "ask"
	eventComplete = "complete"
)

// conversation tracks where a single connection is in the exchange.
type conversation struct {
	fsm *fsm.FSM
}

func newConversation(logger *slog.Logger, session string) *conversation {
	return &conversation{
		fsm: fsm.NewFSM(
			stateNotConnected,
			fsm.Events{
				{Name: eventConnect, Src: []string{stateNotConnected}, Dst: stateConnected},
				{Name: eventAsk, Src: []string{stateConnected, stateAwaitingAnswer}, Dst: stateAwaitingAnswer},
				{Name: eventComplete, Src: []string{stateAwaitingAnswer}, Dst: stateCompleted},
			},
			fsm.Callbacks{
				"enter_state": func(_ context.Context, e *fsm.Event) {
					logger.Debug("Conversation state changed", "session", session, "from", e.Src, "to", e.Dst)
				},
			},
		),
	}
}

// fire applies event. Staying in the same state is not an error.
func (c *conversation) fire(ctx context.Context, event string) error {
	err := c.fsm.Event(ctx, event)

	var same fsm.NoTransitionError
	if errors.As(err, &same) {
		return nil
	}
	return err
}

func (c *conversation) state() string {
	return c.fsm.Current()
}
