// Package lobby tracks live session runners, one per connected player.
package lobby

import (
	"log"
	"sync"

	"bombhunt-lite/apps/server/internal/history"
	"bombhunt-lite/apps/server/internal/narrative"
	"bombhunt-lite/apps/server/internal/session"
)

type Lobby struct {
	mu      sync.RWMutex
	runners map[string]*session.Runner

	narrative narrative.Service
	history   history.Service
	opts      session.Options
}

func New(narrativeSvc narrative.Service, historySvc history.Service, opts session.Options) *Lobby {
	return &Lobby{
		runners:   make(map[string]*session.Runner),
		narrative: narrativeSvc,
		history:   historySvc,
		opts:      opts,
	}
}

// StartSession spins up a fresh runner bound to one connection's send path.
func (l *Lobby) StartSession(broadcastFn func(data []byte)) *session.Runner {
	r := session.New(broadcastFn, l.narrative, l.history, l.opts)

	l.mu.Lock()
	l.runners[r.ID] = r
	total := len(l.runners)
	l.mu.Unlock()

	log.Printf("[Lobby] Session %s started, total: %d", r.ID, total)
	return r
}

func (l *Lobby) Get(sessionID string) *session.Runner {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.runners[sessionID]
}

// EndSession stops and forgets a runner. Idempotent.
func (l *Lobby) EndSession(sessionID string) {
	l.mu.Lock()
	r := l.runners[sessionID]
	delete(l.runners, sessionID)
	total := len(l.runners)
	l.mu.Unlock()

	if r != nil {
		r.Stop()
		log.Printf("[Lobby] Session %s ended, total: %d", sessionID, total)
	}
}

func (l *Lobby) SessionIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.runners))
	for id := range l.runners {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown stops every runner. Used on server exit.
func (l *Lobby) Shutdown() {
	l.mu.Lock()
	runners := make([]*session.Runner, 0, len(l.runners))
	for _, r := range l.runners {
		runners = append(runners, r)
	}
	l.runners = make(map[string]*session.Runner)
	l.mu.Unlock()

	for _, r := range runners {
		r.Stop()
	}
}
