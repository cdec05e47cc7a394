package knowledge

import (
	"errors"
	"sync/atomic"
)

// Store publishes the active knowledge base. Replace installs a new base; the
// previous one is left untouched, so results built from it stay valid.
type Store struct {
	current atomic.Pointer[KnowledgeBase]
}

func NewStore(initial *KnowledgeBase) (*Store, error) {
	if initial == nil {
		return nil, errors.New("initial knowledge base is required")
	}
	store := &Store{}
	store.current.Store(initial)
	return store, nil
}

func (store *Store) Current() *KnowledgeBase {
	return store.current.Load()
}

// Replace swaps in next and returns the base it replaced.
func (store *Store) Replace(next *KnowledgeBase) (*KnowledgeBase, error) {
	if next == nil {
		return nil, errors.New("knowledge base is required")
	}
	return store.current.Swap(next), nil
}

// Reload loads path (the embedded base when empty) and installs it. On error
// the active base is kept.
func (store *Store) Reload(path string) (*KnowledgeBase, error) {
	next, err := Load(path)
	if err != nil {
		return nil, err
	}
	if _, err := store.Replace(next); err != nil {
		return nil, err
	}
	return next, nil
}
