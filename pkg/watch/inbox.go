// Package watch simulates new files arriving in watched folders.
package watch

import (
	"slices"
	"sync"
	"time"
)

// Alert is one detected file. Alerts live for the session only.
type Alert struct {
	ID       int       `json:"id"`
	FolderID int       `json:"folderId"`
	FileName string    `json:"fileName"`
	Path     string    `json:"path"`
	At       time.Time `json:"timestamp"`
}

// Inbox keeps alerts newest first.
type Inbox struct {
	mu     sync.Mutex
	nextID int
	alerts []Alert
}

// Add assigns the alert an id and puts it first.
func (in *Inbox) Add(a Alert) Alert {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.nextID++
	a.ID = in.nextID
	in.alerts = append([]Alert{a}, in.alerts...)
	return a
}

// List returns the alerts newest first.
func (in *Inbox) List() []Alert {
	in.mu.Lock()
	defer in.mu.Unlock()
	return slices.Clone(in.alerts)
}

// Len is the number of alerts.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.alerts)
}

// Dismiss removes an alert. It reports whether the id was present.
func (in *Inbox) Dismiss(id int) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	idx := slices.IndexFunc(in.alerts, func(a Alert) bool { return a.ID == id })
	if idx == -1 {
		return false
	}
	in.alerts = slices.Delete(in.alerts, idx, idx+1)
	return true
}

// Clear drops every alert.
func (in *Inbox) Clear() {
	in.mu.Lock()
	in.alerts = nil
	in.mu.Unlock()
}
