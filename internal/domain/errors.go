package domain

import "errors"

var (
	// ErrDuplicateRequest у автора уже есть заявка по теме.
	ErrDuplicateRequest = errors.New("duplicate debate request")

	// ErrActiveRoomExists по теме уже есть активная комната.
	ErrActiveRoomExists = errors.New("active room already exists")

	// ErrRoomNotFound комната с таким id неизвестна.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomEnded комната завершена и не принимает изменений.
	ErrRoomEnded = errors.New("room already ended")

	// ErrAlreadyVoted голос от этого участника уже учтён.
	ErrAlreadyVoted = errors.New("voter already voted")

	// ErrInvalidSide сторона должна быть A или B.
	ErrInvalidSide = errors.New("side must be A or B")

	// ErrClassifierUnavailable классификатор недоступен; поглощается
	// внутри движка модерации и никогда не доходит до вызывающего.
	ErrClassifierUnavailable = errors.New("content classifier unavailable")
)
