// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

// MaxRoomNameLen is the wire limit: the room-name length travels in one byte
// and room names are capped at 256 bytes of UTF-8.
const MaxRoomNameLen = 256

var (
	ErrDuplicateRoom = errors.New("room already exists")
	ErrRoomNotFound  = errors.New("room not found")
)

type RoomName string
