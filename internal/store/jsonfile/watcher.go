package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/colonyops/saveslots/internal/core/saves"
)

const (
	debounceDelay   = 50 * time.Millisecond
	eventBufferSize = 100
)

type subscriber struct {
	ch  chan saves.SlotEvent
	ids []int // empty matches every slot
}

// SlotWatcher reports changes to slot files using fsnotify, including
// changes made by other processes or by hand.
type SlotWatcher struct {
	dir     string
	watcher *fsnotify.Watcher
	log     zerolog.Logger

	mu          sync.Mutex
	subscribers []*subscriber
	debounce    map[int]*time.Timer // slot id -> debounce timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSlotWatcher starts watching dir. The directory is created if it
// doesn't exist.
func NewSlotWatcher(dir string, log zerolog.Logger) (*SlotWatcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sw := &SlotWatcher{
		dir:      dir,
		watcher:  watcher,
		log:      log,
		debounce: make(map[int]*time.Timer),
		ctx:      ctx,
		cancel:   cancel,
	}

	sw.wg.Add(1)
	go sw.run()

	return sw, nil
}

// Watch returns a channel receiving events for the given slots, or for every
// slot when no ids are given. The channel is closed when ctx is done or the
// watcher is closed.
func (sw *SlotWatcher) Watch(ctx context.Context, ids ...int) <-chan saves.SlotEvent {
	sub := &subscriber{
		ch:  make(chan saves.SlotEvent, eventBufferSize),
		ids: ids,
	}

	sw.mu.Lock()
	sw.subscribers = append(sw.subscribers, sub)
	sw.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sw.unsubscribe(sub)
		case <-sw.ctx.Done():
			// Close() closes the channel
		}
	}()

	return sub.ch
}

// Close stops watching and closes all subscriber channels.
func (sw *SlotWatcher) Close() error {
	sw.cancel()

	sw.mu.Lock()
	for _, timer := range sw.debounce {
		timer.Stop()
	}
	for _, sub := range sw.subscribers {
		close(sub.ch)
	}
	sw.subscribers = nil
	sw.mu.Unlock()

	err := sw.watcher.Close()
	sw.wg.Wait()
	return err
}

func (sw *SlotWatcher) unsubscribe(sub *subscriber) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	for i, s := range sw.subscribers {
		if s == sub {
			sw.subscribers = slices.Delete(sw.subscribers, i, i+1)
			close(sub.ch)
			return
		}
	}
}

func (sw *SlotWatcher) run() {
	defer sw.wg.Done()

	for {
		select {
		case <-sw.ctx.Done():
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			sw.handleEvent(event)
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.log.Warn().Err(err).Msg("slot watcher error")
		}
	}
}

// handleEvent debounces events per slot. Temp files written by atomic
// replace and the lock file never parse as slot names and are dropped.
func (sw *SlotWatcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	id, ok := ParseSlotFile(event.Name)
	if !ok {
		return
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.ctx.Err() != nil {
		return
	}
	if timer, exists := sw.debounce[id]; exists {
		timer.Stop()
	}
	sw.debounce[id] = time.AfterFunc(debounceDelay, func() {
		sw.notifySubscribers(id)
	})
}

// notifySubscribers resolves the final state of the slot file and fans the
// event out. Full channels drop the event.
func (sw *SlotWatcher) notifySubscribers(id int) {
	op := saves.OpWrite
	if _, err := os.Stat(filepath.Join(sw.dir, SlotFileName(id))); errors.Is(err, os.ErrNotExist) {
		op = saves.OpRemove
	}

	event := saves.SlotEvent{
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()

	delete(sw.debounce, id)

	if sw.ctx.Err() != nil {
		return
	}

	for _, sub := range sw.subscribers {
		if len(sub.ids) > 0 && !slices.Contains(sub.ids, id) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			sw.log.Debug().Int("slot", id).Msg("slot event dropped, subscriber full")
		}
	}
}
