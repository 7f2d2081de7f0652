package internal

import "sync"

// SessionState holds the process-wide mutable settings of one interactive
// session. It is passed explicitly to the components that read it.
type SessionState struct {
	mu             sync.RWMutex
	useProxy       bool
	proxyAvailable bool
	searchDisabled bool
	logLevel       LogLevel
}

// NewSessionState creates a session state
func NewSessionState(useProxy, proxyAvailable bool, level LogLevel) *SessionState {
	return &SessionState{
		useProxy:       useProxy && proxyAvailable,
		proxyAvailable: proxyAvailable,
		logLevel:       level,
	}
}

// UseProxy reports whether searches are routed through TOR
func (s *SessionState) UseProxy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.useProxy
}

// SetUseProxy toggles proxy routing. Enabling it fails (returns false) when
// the proxy tooling is not installed.
func (s *SessionState) SetUseProxy(on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on && !s.proxyAvailable {
		return false
	}
	s.useProxy = on
	return true
}

// ProxyAvailable reports whether torsocks was found at startup
func (s *SessionState) ProxyAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.proxyAvailable
}

// SearchAvailable reports whether the search stage runs. It is true until
// DisableSearch is called.
func (s *SessionState) SearchAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.searchDisabled
}

// DisableSearch turns the search stage off for the rest of the session. It
// reports whether the call changed the state.
func (s *SessionState) DisableSearch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.searchDisabled {
		return false
	}
	s.searchDisabled = true
	return true
}

// LogLevel returns the session log level
func (s *SessionState) LogLevel() LogLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logLevel
}

// SetLogLevel updates the session log level and applies it to the logger
func (s *SessionState) SetLogLevel(level LogLevel) {
	s.mu.Lock()
	s.logLevel = level
	s.mu.Unlock()
	SetLogLevel(level)
}
