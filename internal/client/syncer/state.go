package syncer

import "github.com/dpavel/songsync/internal/client/models"

// ActionKind enumerates the state-machine transitions. Every mutation of
// the in-memory record view goes through one of these.
type ActionKind int

const (
	FetchStarted ActionKind = iota
	FetchSucceeded
	FetchFailed
	SaveStarted
	SaveSucceeded
	SaveFailed
)

// Action is one transition plus its payload. Only the field matching the
// kind is read.
type Action struct {
	Kind  ActionKind
	Songs []models.Song // FetchSucceeded
	Song  models.Song   // SaveSucceeded
	Err   error         // FetchFailed, SaveFailed
}

// State is the in-memory authoritative view of the record collection.
// PendingLocal signals that at least one locally persisted record awaits
// reconciliation with the server.
type State struct {
	Songs        []models.Song
	Fetching     bool
	FetchErr     error
	Saving       bool
	SaveErr      error
	PendingLocal bool
}

// reduce is the pure transition function: replaying the same action on the
// same prior state yields the same result.
func reduce(s State, a Action) State {
	switch a.Kind {
	case FetchStarted:
		s.Fetching = true
		s.FetchErr = nil
	case FetchSucceeded:
		s.Fetching = false
		s.Songs = a.Songs
	case FetchFailed:
		s.Fetching = false
		s.FetchErr = a.Err
	case SaveStarted:
		s.Saving = true
		s.SaveErr = nil
	case SaveSucceeded:
		s.Saving = false
		s.Songs = upsert(s.Songs, a.Song)
	case SaveFailed:
		s.Saving = false
		s.SaveErr = a.Err
	}
	return s
}

// upsert is the single merge primitive shared by local saves, remote save
// responses and live-update messages: replace in place when the id is
// already present, otherwise insert at the front.
func upsert(songs []models.Song, song models.Song) []models.Song {
	for i, existing := range songs {
		if existing.ID == song.ID {
			out := make([]models.Song, len(songs))
			copy(out, songs)
			out[i] = song
			return out
		}
	}
	out := make([]models.Song, 0, len(songs)+1)
	out = append(out, song)
	return append(out, songs...)
}

// snapshot returns a copy whose Songs slice is detached from the original.
func (s State) snapshot() State {
	out := s
	out.Songs = make([]models.Song, len(s.Songs))
	copy(out.Songs, s.Songs)
	return out
}
