package linkcheck

import (
	"fmt"
	"net/http"
	"strings"
)

// bodyScanRunes bounds how much of a 2xx/3xx body is searched for phrases.
const bodyScanRunes = 4000

// expiredPhrases mark a page that still answers but no longer advertises
// the job. Matched case-insensitively.
var expiredPhrases = []string{
	"job is no longer available",
	"this job is no longer available",
	"position has been filled",
	"job has expired",
	"posting has expired",
	"job posting has expired",
	"job closed",
	"no longer accepting applications",
	"no longer accepting candidates",
	"job not found",
}

// Outcome is the verdict for one apply URL. When Err is set the request
// never produced a response and Expired carries no information.
type Outcome struct {
	Expired bool
	Reason  string
	Status  int
	Err     error
}

// Known reports whether the outcome says anything about liveness.
func (o Outcome) Known() bool { return o.Err == nil }

// Classify maps a response status and body to a verdict.
func Classify(status int, body string) Outcome {
	switch {
	case status == http.StatusNotFound || status == http.StatusGone || status == http.StatusUnavailableForLegalReasons:
		return Outcome{Expired: true, Reason: statusReason(status), Status: status}
	case status >= 500:
		// TODO: expire only after consecutive 5xx observations once a
		// failure counter is persisted per posting.
		return Outcome{Expired: true, Reason: statusReason(status), Status: status}
	case status >= 400:
		return Outcome{Expired: false, Reason: statusReason(status), Status: status}
	}

	if containsExpiredPhrase(body) {
		return Outcome{Expired: true, Reason: "phrase-match", Status: status}
	}
	return Outcome{Expired: false, Reason: "active", Status: status}
}

func containsExpiredPhrase(body string) bool {
	r := []rune(body)
	if len(r) > bodyScanRunes {
		r = r[:bodyScanRunes]
	}
	text := strings.ToLower(string(r))
	for _, p := range expiredPhrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func statusReason(status int) string {
	return fmt.Sprintf("status-%d", status)
}
