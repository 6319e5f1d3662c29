package services

import "errors"

// Validation errors surfaced to the user as form/request text. Everything
// else is treated as transient and mapped to a generic failure.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPinNotRecognized   = errors.New("student id not recognized")
	ErrAlreadyRegistered  = errors.New("this student id is already registered")
	ErrEmailTaken         = errors.New("email is already in use")
	ErrBlocked            = errors.New("you have been blocked by this user")
	ErrQuotaExceeded      = errors.New("daily upload quota exceeded")
	ErrNotParticipant     = errors.New("not a participant of this conversation")
	ErrNotOwner           = errors.New("not the owner of this item")
	ErrInvalidParent      = errors.New("replies can only target a top-level comment")
	ErrSelfFriendship     = errors.New("cannot send a friend request to yourself")
	ErrDuplicateRequest   = errors.New("a friend request already exists")
)
