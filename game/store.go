/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"cmp"
	"slices"
)

// Store owns every live Room. A room is created by the first join to an
// unseen id and deleted together with its last player.
type Store struct {
	rooms map[string]*Room
	conns *Registry
	deps  roomDeps
}

func newStore(conns *Registry, deps roomDeps) *Store {
	return &Store{
		rooms: make(map[string]*Room),
		conns: conns,
		deps:  deps,
	}
}

// JoinOrCreate returns the room for roomID, creating it with mode and
// password if absent. Both are ignored for an existing room.
func (s *Store) JoinOrCreate(roomID string, mode Mode, password string) (*Room, bool) {
	if room, ok := s.rooms[roomID]; ok {
		return room, false
	}

	room := newRoom(roomID, mode, password, s.deps)
	s.rooms[roomID] = room

	s.deps.logf("GAMES: Created room %s with mode %s", roomID, mode)

	return room, true
}

// Join admits connID to roomID and records the membership.
func (s *Store) Join(connID string, req JoinRoom, name string) (*Room, error) {
	room, created := s.JoinOrCreate(req.RoomID, ParseMode(req.GameMode), req.Password)

	if err := room.admit(connID, name, req.Password); err != nil {
		if created && room.Len() == 0 {
			s.drop(room)
		}
		return nil, err
	}

	s.conns.Set(connID, room.id)

	s.deps.logf("GAMES: Player %q joined %s (%d players)", name, room.id, room.Len())

	return room, nil
}

func (s *Store) Get(roomID string) (*Room, bool) {
	room, ok := s.rooms[roomID]

	return room, ok
}

func (s *Store) Len() int {
	return len(s.rooms)
}

// RemovePlayer takes connID out of its room and clears its registration.
// It reports the room id it left, if any, and whether that room was
// destroyed.
func (s *Store) RemovePlayer(connID string) (string, bool) {
	roomID, ok := s.conns.Lookup(connID)
	if !ok {
		return "", false
	}

	s.conns.Clear(connID)

	room, ok := s.rooms[roomID]
	if !ok {
		return roomID, false
	}

	if !room.remove(connID) {
		return roomID, false
	}

	s.drop(room)

	return roomID, true
}

func (s *Store) drop(room *Room) {
	room.close()

	if s.rooms[room.id] == room {
		delete(s.rooms, room.id)
	}

	s.deps.logf("GAMES: Room %s cleaned up", room.id)
}

// Snapshot summarizes every room, ordered by id.
func (s *Store) Snapshot() []RoomSummary {
	summaries := make([]RoomSummary, 0, len(s.rooms))
	for _, room := range s.rooms {
		summaries = append(summaries, room.summary())
	}

	slices.SortFunc(summaries, func(a, b RoomSummary) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return summaries
}
