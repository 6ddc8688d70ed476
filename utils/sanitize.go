package utils

import "github.com/microcosm-cc/bluemonday"

// ugcPolicy allows the markup bluemonday considers safe for user generated
// content (links, emphasis, lists) and strips everything else, scripts
// included. Comment bodies, poll options and profile fields all pass
// through it before persistence.
var ugcPolicy = bluemonday.UGCPolicy()

// Sanitize strips unsafe HTML from user supplied text.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}
