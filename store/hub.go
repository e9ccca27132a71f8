package store

import (
	cmap "github.com/orcaman/concurrent-map/v2"
)

// watcher is woken up whenever something under its path was committed.
// The channel has room for one signal so bursts of writes coalesce.
type watcher struct {
	ch chan struct{}
}

// watchers is needed as a path may be observed more than once
type watchers []*watcher

// hub keeps live subscriptions keyed by the document or collection path they observe
type hub struct {
	paths cmap.ConcurrentMap[string, watchers]
}

func newHub() *hub {
	return &hub{paths: cmap.New[watchers]()}
}

func (h *hub) watch(path string) (*watcher, func()) {
	w := &watcher{ch: make(chan struct{}, 1)}
	h.paths.Upsert(path, watchers{w}, func(exist bool, valueInMap, newValue watchers) watchers {
		if exist {
			return append(valueInMap, w)
		}
		return newValue
	})
	return w, func() { h.remove(path, w) }
}

func (h *hub) remove(path string, w *watcher) {
	h.paths.Upsert(path, watchers{}, func(exist bool, valueInMap, newValue watchers) watchers {
		if !exist {
			return newValue
		}
		for _, ow := range valueInMap {
			if ow == w {
				continue
			}
			newValue = append(newValue, ow)
		}
		return newValue
	})
	h.paths.RemoveCb(path, func(key string, v watchers, exists bool) bool {
		return exists && len(v) == 0
	})
}

// notify wakes the watchers of each document path and of its collection
func (h *hub) notify(docPaths ...string) {
	seen := map[string]bool{}
	for _, path := range docPaths {
		targets := []string{path}
		if collection, _, err := SplitDocumentPath(path); err == nil {
			targets = append(targets, collection)
		}
		for _, t := range targets {
			if seen[t] {
				continue
			}
			seen[t] = true
			list, ok := h.paths.Get(t)
			if !ok {
				continue
			}
			for _, w := range list {
				select {
				case w.ch <- struct{}{}:
				default:
				}
			}
		}
	}
}

// count returns the number of active watchers, used for metrics
func (h *hub) count() int {
	total := 0
	for item := range h.paths.IterBuffered() {
		total += len(item.Val)
	}
	return total
}
