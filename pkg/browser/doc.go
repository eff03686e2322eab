// Package browser provides the headless browser sessions a verification run
// drives.
//
// A Session owns one browser process and one page. It exposes exactly the
// operations a level-selection check needs: console observation, navigation,
// a bounded wait for a selector, a click by ARIA role and accessible name, a
// polling visibility assertion, and an element screenshot. Close releases
// every resource and is safe to call more than once.
//
// # Drivers
//
// Two backends implement Session:
//
//   - playwright (default): playwright-go driving chromium
//   - chromedp: the DevTools protocol against a locally installed Chrome
//
// Launch selects one from Options.Driver.
//
// # Timeouts
//
// Every bounded wait that expires is reported as an error wrapping
// ErrTimeout, whatever the backend produced (playwright's timeout error, a
// failed expectation, or an exceeded context deadline). Callers test for it
// with errors.Is or IsTimeout. All other failures keep their own cause.
//
// # Example Usage
//
//	session, err := browser.Launch(ctx, browser.Options{Headless: true})
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	session.OnConsole(func(text string) { log.Println(text) })
//	if err := session.Navigate("http://localhost:8000/index.html"); err != nil {
//	    return err
//	}
//	err = session.WaitForSelector(".level-btn", 10*time.Second)
//	if browser.IsTimeout(err) {
//	    // level selection never rendered
//	}
package browser
