package browser

import "github.com/pkg/browser"

// Opener launches a URL in the user's default browser. It is a variable so
// the supervisor tests can count invocations instead of opening windows.
type Opener func(url string)

// Open fires the OS default handler for url and forgets about it. The
// result is deliberately not observed; a browser that fails to open is the
// user's to notice.
func Open(url string) {
	go func() { _ = browser.OpenURL(url) }()
}
