package utils

import "errors"

var (
	ErrorRecordNotFound   = errors.New("record not found")
	ErrorMissingBusiness  = errors.New("business id missing from context")
	ErrorLockNotObtained  = errors.New("could not obtain lock")
	ErrorInvalidPhone     = errors.New("phone number is not valid")
	ErrorInvalidAmountStr = errors.New("invalid amount")
)
