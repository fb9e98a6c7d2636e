package models

import "errors"

var (
	ErrUnknownPartyType         = errors.New("unknown party type")
	ErrDuplicateParty           = errors.New("a party with this name already exists")
	ErrPartyHasTransactions     = errors.New("party has transactions")
	ErrOpeningBalanceAlreadySet = errors.New("opening balance already set")
)
