package state

import "errors"

var (
	ErrLocationNotFound  = errors.New("location not found")
	ErrCharacterNotFound = errors.New("character not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrSessionEnded      = errors.New("session has ended")
	ErrInvalidSnapshot   = errors.New("invalid snapshot")
)
