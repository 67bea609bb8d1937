package worker

// AddSource adds a source name to the scan list if it is not already there.
func (w *Scout) AddSource(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, existing := range w.sourceNames {
		if existing == name {
			return
		}
	}

	w.sourceNames = append(w.sourceNames, name)
}

// AddSources adds several source names at once.
func (w *Scout) AddSources(names ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, name := range names {
		exists := false
		for _, existing := range w.sourceNames {
			if existing == name {
				exists = true
				break
			}
		}
		if !exists {
			w.sourceNames = append(w.sourceNames, name)
		}
	}
}

// RemoveSource removes a source name from the scan list.
func (w *Scout) RemoveSource(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, existing := range w.sourceNames {
		if existing == name {
			// Keep the scan order of the remaining names.
			w.sourceNames = append(w.sourceNames[:i], w.sourceNames[i+1:]...)
			return
		}
	}
}

// Sources returns a copy of the current scan list.
func (w *Scout) Sources() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.sourceNames) == 0 {
		return nil
	}

	result := make([]string, len(w.sourceNames))
	copy(result, w.sourceNames)
	return result
}

// SetSources replaces the whole scan list.
func (w *Scout) SetSources(names []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(names) == 0 {
		w.sourceNames = nil
		return
	}

	w.sourceNames = make([]string, len(names))
	copy(w.sourceNames, names)
}

// ClearSources empties the scan list, disabling periodic scans.
func (w *Scout) ClearSources() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sourceNames = nil
}

// HasSource reports whether a source name is in the scan list.
func (w *Scout) HasSource(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, existing := range w.sourceNames {
		if existing == name {
			return true
		}
	}
	return false
}
