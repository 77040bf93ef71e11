package auth

import (
	"context"
	"sync"

	"autoshop/internal/domain"
	"autoshop/internal/models"
)

type listenerSet struct {
	mu     sync.RWMutex
	nextID int
	fns    map[int]domain.AuthChangeFunc
}

func (l *listenerSet) add(fn domain.AuthChangeFunc) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[int]domain.AuthChangeFunc)
	}
	id := l.nextID
	l.nextID++
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

func (l *listenerSet) emit(ctx context.Context, event domain.AuthChangeEvent, session *models.Session) {
	l.mu.RLock()
	fns := make([]domain.AuthChangeFunc, 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		fn(ctx, event, session)
	}
}
