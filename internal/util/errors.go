package util

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrNoActiveGoal          = errors.New("no active goal")
	ErrGoalNotFound          = errors.New("goal not found")
	ErrTaskNotFound          = errors.New("task not found")
	ErrTaskNotPending        = errors.New("task is not pending")
	ErrActionItemsIncomplete = errors.New("all action items must be completed first")
	ErrActionItemIndex       = errors.New("action item index out of range")
	ErrInviteNotFound        = errors.New("invite not found")
	ErrInviteResolved        = errors.New("invite already resolved")
	ErrDuplicateInvite       = errors.New("invite already pending")
	ErrNoPartner             = errors.New("goal has no partner")
	ErrSelfInvite            = errors.New("cannot invite yourself")
	ErrNoAPIKey              = errors.New("no OpenAI API key configured")
)
