package utils

import "regexp"

const MaxUsernameLength = 24

// usernamePattern requires a leading letter followed by letters, digits,
// '@', '_' or '-'.
var usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9@_-]*$`)

func ValidUsername(username string) bool {
	return len(username) <= MaxUsernameLength && usernamePattern.MatchString(username)
}
