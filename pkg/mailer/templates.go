package mailer

import (
	"fmt"
	"time"
)

// ConfirmationMessage builds the signup mail carrying the confirmation code
// and how to exchange it for a token.
func ConfirmationMessage(appName, username, email, code string, ttl time.Duration) Message {
	body := fmt.Sprintf(`Hello, %s!

Your confirmation code: %s

To get an access token send a POST request to /api/v1/auth/token/ with the body
{"username": "%s", "confirmation_code": "%s"}

The code is valid for %s and can be used once. Signing up again with the same
username and email sends a new code and cancels this one.
`, username, code, username, code, ttl.Round(time.Minute))

	return Message{
		To:      email,
		Subject: fmt.Sprintf("%s confirmation code", appName),
		Body:    body,
	}
}
