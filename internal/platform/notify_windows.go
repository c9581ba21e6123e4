//go:build windows

package platform

import (
	"fmt"
	"os/exec"
	"strings"
)

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Notify displays a toast notification using the Windows notification center.
func Notify(title, body string, opts Options) error {
	return exec.Command("powershell.exe", "-NoProfile", "-Command", toastScript(title, body, opts)).Run()
}

// toastScript builds the PowerShell that shows one toast. An exported plan is
// shown as the toast image when IconPath is set.
func toastScript(title, body string, opts Options) string {
	icon := strings.TrimSpace(opts.IconPath)
	kind := "ToastText02"
	if icon != "" {
		kind = "ToastImageAndText02"
	}
	var b strings.Builder
	b.WriteString(`[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType=Windows Runtime] > $null; `)
	fmt.Fprintf(&b, `$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::%s); `, kind)
	b.WriteString(`$texts = $template.GetElementsByTagName("text"); `)
	fmt.Fprintf(&b, `$texts.Item(0).AppendChild($template.CreateTextNode(%s)) > $null; `, psQuote(title))
	fmt.Fprintf(&b, `$texts.Item(1).AppendChild($template.CreateTextNode(%s)) > $null; `, psQuote(body))
	if icon != "" {
		fmt.Fprintf(&b, `$template.GetElementsByTagName("image").Item(0).SetAttribute("src", %s); `, psQuote(icon))
	}
	b.WriteString(`$toast = [Windows.UI.Notifications.ToastNotification]::new($template); `)
	fmt.Fprintf(&b, `$toast.ExpirationTime = [DateTimeOffset]::Now.AddSeconds(%d); `, int(opts.timeout().Seconds()))
	fmt.Fprintf(&b, `[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier(%s).Show($toast);`, psQuote(opts.appName()))
	return b.String()
}
