package service

import (
	"fmt"
	"strings"
)

func feedbackEmailTemplate(score float64, comment, fromEmail, appName string) (string, string) {
	subject := fmt.Sprintf("[%s] Feedback: %g/10", appName, score)

	from := fromEmail
	if from == "" {
		from = "anonymous visitor"
	}
	if strings.TrimSpace(comment) == "" {
		comment = "(no comment)"
	}

	body := fmt.Sprintf(`New feedback from %s.

Score: %g / 10

Comment:
%s
`, from, score, comment)

	return subject, body
}

func welcomeEmailTemplate(name, analyzeURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)

	greeting := "Hi there,"
	if name != "" {
		greeting = fmt.Sprintf("Hi %s,", name)
	}

	body := fmt.Sprintf(`%s

Thanks for signing up. Paste a URL or upload survey answers and you'll get a list of the UX problems your users are most likely hitting:
%s

Reply to this email if anything looks off. We read every message.

Best,
The %s Team`, greeting, analyzeURL, appName)

	return subject, body
}
