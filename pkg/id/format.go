package id

import "regexp"

var (
	reID32  = regexp.MustCompile(`^[a-f0-9]{32}$`)
	reToken = regexp.MustCompile(`^[a-f0-9]{64}$`)
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
)

// IsID32 reports whether s has the shape NewID32 produces. Uppercase is rejected.
func IsID32(s string) bool { return reID32.MatchString(s) }

// IsToken reports whether s has the shape NewToken produces.
func IsToken(s string) bool { return reToken.MatchString(s) }

// IsRequestID accepts client request ids: a lowercase uuid (v1-v5) or a 32-hex id.
func IsRequestID(s string) bool { return reUUID.MatchString(s) || reID32.MatchString(s) }
