/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "errors"

// Error strings are sent to clients verbatim in "error" events.
var (
	ErrInvalidJoin    = errors.New("Invalid room ID or player name")
	ErrNameTooLong    = errors.New("Player name is too long")
	ErrRoomIDTooLong  = errors.New("Room ID is too long")
	ErrWrongPassword  = errors.New("Incorrect room password")
	ErrNotInRoom      = errors.New("Not in a room")
	ErrRoomNotFound   = errors.New("Room not found")
	ErrInvalidMessage = errors.New("Invalid message data")
	ErrUnknownCommand = errors.New("Unknown event type")
	ErrMalformed      = errors.New("Malformed event")
)
