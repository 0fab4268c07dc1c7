package shell

import (
	"os"
	"os/signal"
)

// listenInterrupts returns a channel that is closed on the first SIGINT,
// and a function to stop listening. The channel is wired into the evaler
// before each evaluation, so one interrupt cancels one evaluation instead
// of killing the whole session.
func listenInterrupts() (<-chan struct{}, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	intCh := make(chan struct{})
	go func() {
		if _, ok := <-sigCh; ok {
			close(intCh)
		}
	}()
	return intCh, func() {
		signal.Stop(sigCh)
		close(sigCh)
	}
}
