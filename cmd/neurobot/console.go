package main

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/nerrad567/neurobot-client/internal/chat"
	"github.com/nerrad567/neurobot-client/internal/infrastructure/logging"
	"github.com/nerrad567/neurobot-client/internal/session"
)

// chatSubmitter is the part of the session the console reader drives.
type chatSubmitter interface {
	SubmitChat(ctx context.Context, input string) (chat.Result, error)
}

// readConsole submits each line read from r as chat input until r is
// exhausted or the session stops.
func readConsole(ctx context.Context, r io.Reader, sess chatSubmitter, log *logging.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		_, err := sess.SubmitChat(ctx, scanner.Text())
		switch {
		case err == nil, errors.Is(err, chat.ErrEmptyMessage):
		case errors.Is(err, session.ErrStopped), errors.Is(err, context.Canceled):
			return
		default:
			log.Warn("chat message not sent", "error", err)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warn("console input closed", "error", err)
	}
}
