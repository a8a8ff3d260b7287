package session

// RememberReturnURL records where to send the user once they have signed in.
// Only relative paths are kept so a crafted value cannot redirect off-site.
func (m *Manager) RememberReturnURL(path string) {
	if !isLocalPath(path) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.returnURL = path
}

// TakeReturnURL returns the remembered path and forgets it. It returns
// fallback when nothing was remembered.
func (m *Manager) TakeReturnURL(fallback string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	path := m.returnURL
	m.returnURL = ""
	if path == "" {
		return fallback
	}
	return path
}

func isLocalPath(path string) bool {
	if len(path) == 0 || path[0] != '/' {
		return false
	}
	// "//host" and "/\host" are treated as absolute by browsers
	return len(path) == 1 || (path[1] != '/' && path[1] != '\\')
}
