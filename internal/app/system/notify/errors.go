package notify

import "errors"

// ErrNoPartner is returned when a recipient has no partner to address.
var ErrNoPartner = errors.New("recipient has no partner")
