// Package presence tracks which users are connected and which notes each is
// actively editing. All state is process memory: it is reset on restart and
// never persisted.
package presence

import "sync"

// ActiveUser is one roster entry. A user appears once per live connection.
type ActiveUser struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	ConnID   string `json:"connId"`
}

// Registry owns the active-user roster and the note id → editing-user-ids
// mapping. Mutations arrive from the websocket hub's handler goroutines, so
// access is mutex-guarded.
type Registry struct {
	mu          sync.RWMutex
	roster      []ActiveUser
	noteEditors map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		noteEditors: make(map[string]map[string]struct{}),
	}
}

// AddUser registers a connection's declared identity in the roster.
func (r *Registry) AddUser(userID, username, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.roster = append(r.roster, ActiveUser{
		UserID:   userID,
		Username: username,
		ConnID:   connID,
	})
}

// RemoveConn drops the roster entry for a connection and removes its user
// from every note presence set, discarding sets left empty. It returns the
// removed entry (ok=false if the connection never joined) and the ids of
// notes whose editor sets changed.
func (r *Registry) RemoveConn(connID string) (ActiveUser, []string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, u := range r.roster {
		if u.ConnID == connID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ActiveUser{}, nil, false
	}

	user := r.roster[idx]
	r.roster = append(r.roster[:idx], r.roster[idx+1:]...)

	// The same user may still be present through another connection.
	stillPresent := false
	for _, u := range r.roster {
		if u.UserID == user.UserID {
			stillPresent = true
			break
		}
	}

	var touched []string
	if !stillPresent {
		for noteID, editors := range r.noteEditors {
			if _, ok := editors[user.UserID]; !ok {
				continue
			}
			delete(editors, user.UserID)
			if len(editors) == 0 {
				delete(r.noteEditors, noteID)
			}
			touched = append(touched, noteID)
		}
	}

	return user, touched, true
}

// StartEditing records userID as actively editing noteID.
func (r *Registry) StartEditing(noteID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.noteEditors[noteID] == nil {
		r.noteEditors[noteID] = make(map[string]struct{})
	}
	r.noteEditors[noteID][userID] = struct{}{}
}

// StopEditing removes userID from noteID's presence set, discarding the set
// if it becomes empty. Unknown note/user pairs are a no-op. It returns whether
// any editors remain on the note.
func (r *Registry) StopEditing(noteID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	editors, ok := r.noteEditors[noteID]
	if !ok {
		return false
	}

	delete(editors, userID)
	if len(editors) == 0 {
		delete(r.noteEditors, noteID)
		return false
	}
	return true
}

// Roster returns a snapshot of the active-user list in join order.
func (r *Registry) Roster() []ActiveUser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ActiveUser, len(r.roster))
	copy(out, r.roster)
	return out
}

// Editors returns the roster entries for users currently editing noteID.
// Users whose connection already dropped are skipped.
func (r *Registry) Editors(noteID string) []ActiveUser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.noteEditors[noteID]
	if !ok {
		return nil
	}

	seen := make(map[string]struct{}, len(ids))
	var out []ActiveUser
	for _, u := range r.roster {
		if _, editing := ids[u.UserID]; !editing {
			continue
		}
		if _, dup := seen[u.UserID]; dup {
			continue
		}
		seen[u.UserID] = struct{}{}
		out = append(out, u)
	}
	return out
}

// EditorIDs returns the raw presence set for a note.
func (r *Registry) EditorIDs(noteID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.noteEditors[noteID]
	if !ok {
		return nil
	}

	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}
