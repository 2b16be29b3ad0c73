package mailer

import (
	"fmt"
	"time"
)

// PasswordResetMessage carries the reset code and how long it stays valid.
func PasswordResetMessage(to, code string, validity time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Your Password Reset OTP",
		Text:    fmt.Sprintf("Your OTP for password reset is: %s. It is valid for %s.", code, humanDuration(validity)),
	}
}

func humanDuration(d time.Duration) string {
	switch {
	case d > 0 && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d > 0 && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	}
	return d.String()
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// IssueResolvedMessage notifies the reporter; summary is the issue
// description, or its title when the description is empty.
func IssueResolvedMessage(to, summary string) Message {
	return Message{
		To:      to,
		Subject: "Your Issue Has Been Resolved",
		Text: fmt.Sprintf("Hello,\n\nYour reported issue \"%s\" has been resolved. Thank you for helping us improve!\n\nBest regards,\nAdmin Team",
			summary),
	}
}
