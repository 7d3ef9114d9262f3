/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

// Registry remembers which room each live connection is in, so a disconnect
// can be routed without the client naming its room. It is owned by the
// event loop and is not safe for concurrent use.
type Registry struct {
	rooms map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]string),
	}
}

func (c *Registry) Set(connID, roomID string) {
	c.rooms[connID] = roomID
}

func (c *Registry) Lookup(connID string) (string, bool) {
	roomID, ok := c.rooms[connID]

	return roomID, ok
}

func (c *Registry) Clear(connID string) {
	delete(c.rooms, connID)
}

func (c *Registry) Len() int {
	return len(c.rooms)
}
