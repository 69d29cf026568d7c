// Package response defines the JSON envelopes this service puts on the
// wire. Failure payloads stay minimal so no internal detail ever leaks to a
// client.
package response

// Error is the generic failure payload.
type Error struct {
	Err string `json:"error"`
}

var (
	InvalidURLResponse   = Error{Err: "Invalid URL"}
	UnauthorizedResponse = Error{Err: "Unauthorized"}
	ServerErrorResponse  = Error{Err: "Internal Server Error"}
)

// Login is the payload for login and logout outcomes.
type Login struct {
	OK       bool   `json:"ok"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func LoginOK(redirect string) Login {
	return Login{OK: true, Redirect: redirect}
}

func LoginFailed(message string) Login {
	return Login{OK: false, Message: message}
}

// Shorten is the payload for a successful shorten call.
type Shorten struct {
	ShortURL string `json:"shortUrl"`
}
