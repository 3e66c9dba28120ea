package handler

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Dispatcher fans updates out to a fixed set of workers. Updates from the
// same sender always land on the same worker, so one user's messages are
// handled in arrival order.
type Dispatcher struct {
	handle func(ctx context.Context, update tgbotapi.Update)
	shards []chan tgbotapi.Update
}

func NewDispatcher(workers int, handle func(ctx context.Context, update tgbotapi.Update)) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{handle: handle, shards: make([]chan tgbotapi.Update, workers)}
	for i := range d.shards {
		d.shards[i] = make(chan tgbotapi.Update, 16)
	}
	return d
}

// Run consumes updates until the channel closes or ctx is cancelled, then
// waits for queued updates to finish. Handlers keep running on a context
// that is not cancelled with ctx.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	handleCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for _, shard := range d.shards {
		wg.Add(1)
		go func(in <-chan tgbotapi.Update) {
			defer wg.Done()
			for update := range in {
				d.handle(handleCtx, update)
			}
		}(shard)
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case update, ok := <-updates:
			if !ok {
				break loop
			}
			d.shards[d.shardFor(update)] <- update
		}
	}

	for _, shard := range d.shards {
		close(shard)
	}
	wg.Wait()
}

func (d *Dispatcher) shardFor(update tgbotapi.Update) int {
	from := update.SentFrom()
	if from == nil {
		return 0
	}
	id := from.ID
	if id < 0 {
		id = -id
	}
	return int(id % int64(len(d.shards)))
}
