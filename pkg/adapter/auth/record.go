package auth

import (
	"fmt"
	"strings"
	"time"
)

// Record is the single-line reply the legacy client parses:
//
//	status#message#user_id#username#email#session_id#
//
// Fields are written verbatim; the client has no escaping.
type Record struct {
	Status    string
	Message   string
	UserID    string
	Username  string
	Email     string
	SessionID string
}

// String encodes the record in wire form, including the trailing '#'.
func (r Record) String() string {
	return strings.Join([]string{
		r.Status, r.Message, r.UserID, r.Username, r.Email, r.SessionID,
	}, "#") + "#"
}

// Bytes returns the wire form as bytes.
func (r Record) Bytes() []byte {
	return []byte(r.String())
}

// Fixed failure replies.
var (
	EmptyCredentialsRecord   = failureRecord("Username and/or password is empty.")
	InvalidCredentialsRecord = failureRecord("Invalid username or password.")
	ServerErrorRecord        = failureRecord("Server error")
)

func failureRecord(message string) Record {
	return Record{
		Status:    "fail",
		Message:   message,
		UserID:    "1",
		Username:  "Anonymous",
		Email:     "anonymous@example.com",
		SessionID: "0",
	}
}

// SuccessRecord builds the reply for an authenticated account. The session
// id is the issue time in lowercase hex Unix seconds.
func SuccessRecord(account Account, now time.Time) Record {
	return Record{
		Status:    "ok",
		Message:   "Success.",
		UserID:    account.ID,
		Username:  account.Username,
		Email:     account.Email,
		SessionID: fmt.Sprintf("%x", now.Unix()),
	}
}

// ParseCredentials extracts username and password from a request body.
//
// Invalid UTF-8 is dropped. "&&" is treated as a double space and the body
// is split on the first double space; a body without one yields an empty
// password.
func ParseCredentials(body []byte) (username, password string) {
	text := strings.ToValidUTF8(string(body), "")
	text = strings.ReplaceAll(text, "&&", "  ")

	username, password, _ = strings.Cut(text, "  ")
	return username, password
}
