package api

import (
	"sync"
	"time"

	"galpones/models"
	"galpones/panel"

	"github.com/rohanthewiz/logger"
)

// DefaultPanelIdleTimeout is how long an untouched session panel is kept
const DefaultPanelIdleTimeout = 30 * time.Minute

// PanelStore hands each browser session its own form panel. Panels that
// have not been touched for the idle timeout are dropped on the next lookup.
type PanelStore struct {
	api         panel.BarnAPI
	directory   *models.Directory
	idleTimeout time.Duration
	now         func() time.Time

	mu     sync.Mutex
	panels map[string]*sessionPanel
}

type sessionPanel struct {
	panel    *panel.Panel
	lastSeen time.Time
}

// NewPanelStore creates a store whose panels persist through api and
// refresh the given directory when they close.
func NewPanelStore(api panel.BarnAPI, directory *models.Directory, idleTimeout time.Duration) *PanelStore {
	if idleTimeout <= 0 {
		idleTimeout = DefaultPanelIdleTimeout
	}
	return &PanelStore{
		api:         api,
		directory:   directory,
		idleTimeout: idleTimeout,
		now:         time.Now,
		panels:      make(map[string]*sessionPanel),
	}
}

// Get returns the panel for a session, creating a closed one on first use
func (s *PanelStore) Get(sessionID string) *panel.Panel {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, sp := range s.panels {
		if id != sessionID && now.Sub(sp.lastSeen) > s.idleTimeout {
			delete(s.panels, id)
		}
	}

	sp, exists := s.panels[sessionID]
	if !exists {
		sp = &sessionPanel{panel: s.newPanel(sessionID)}
		s.panels[sessionID] = sp
	}
	sp.lastSeen = now
	return sp.panel
}

// Len reports how many session panels are held
func (s *PanelStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.panels)
}

func (s *PanelStore) newPanel(sessionID string) *panel.Panel {
	return panel.New(panel.Config{
		API:       s.api,
		Numbering: s.directory,
		Refresher: s.directory,
		OnClose: func() {
			logger.Debug("Barn panel closed", "session_id", sessionID)
		},
	})
}
