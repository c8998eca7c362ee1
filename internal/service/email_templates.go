package service

import "fmt"

func welcomeEmailTemplate(habitsURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi,

Your account is active. Create your first habit here:
%s

Add your Telegram chat id to your profile to get reminders.

Best,
The %s Team`, habitsURL, appName)

	return subject, body
}

func accountDeactivatedEmailTemplate(inactiveDays int, appName string) (string, string) {
	subject := fmt.Sprintf("Your %s account was deactivated", appName)
	body := fmt.Sprintf(`Hi,

You have not signed in for more than %d days, so your account has been deactivated.

Contact support if you want it back.

Best,
The %s Team`, inactiveDays, appName)

	return subject, body
}

func accountDeletedEmailTemplate(appName string) (string, string) {
	subject := fmt.Sprintf("Your %s account has been deleted", appName)
	body := fmt.Sprintf(`Hi,

Your account and all of your habits have been deleted.

Best,
The %s Team`, appName)

	return subject, body
}
