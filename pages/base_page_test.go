package pages

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPage launches a headless Chromium page object against an inline
// document. Tests skip when the Playwright driver is not installed.
func newTestPage(t *testing.T, html string) *BasePage {
	t.Helper()

	pw, err := playwright.Run()
	if err != nil {
		t.Skipf("Playwright driver unavailable: %v", err)
	}
	t.Cleanup(func() { pw.Stop() })

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Skipf("Could not launch browser: %v", err)
	}
	t.Cleanup(func() { browser.Close() })

	page, err := browser.NewPage()
	require.NoError(t, err)
	t.Cleanup(func() { page.Close() })

	bp := NewBasePage(page, nil, nil)
	bp.ScreenshotDir = t.TempDir()
	require.NoError(t, bp.NavigateTo("data:text/html,"+html))
	return bp
}

const loginHTML = `<html><head><title>Demo Login</title></head><body>` +
	`<h1 id="heading">Login</h1>` +
	`<input id="email" name="email" type="text">` +
	`<button id="submit" onclick="document.getElementById('heading').innerText='Logout'">Submit</button>` +
	`<div id="late"></div>` +
	`<script>setTimeout(function(){document.getElementById('late').innerText='Loaded';}, 200);</script>` +
	`</body></html>`

func TestNavigateAndTitle(t *testing.T) {
	bp := newTestPage(t, loginHTML)

	require.NoError(t, bp.AssertTitle("Demo Login"))
	assert.True(t, strings.HasPrefix(bp.GetCurrentURL(), "data:text/html"))

	err := bp.AssertTitle("Other Title")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Other Title")
	assert.Contains(t, err.Error(), "Demo Login")
}

func TestFindElementAndText(t *testing.T) {
	bp := newTestPage(t, loginHTML)

	el, err := bp.FindElement(ID("heading"))
	require.NoError(t, err)
	text, err := el.InnerText()
	require.NoError(t, err)
	assert.Equal(t, "Login", text)

	got, err := bp.GetText(ID("heading"))
	require.NoError(t, err)
	assert.Equal(t, "Login", got)

	attr, err := bp.GetAttribute(ID("email"), "type")
	require.NoError(t, err)
	assert.Equal(t, "text", attr)
}

func TestClickChangesText(t *testing.T) {
	bp := newTestPage(t, loginHTML)

	require.NoError(t, bp.Click(ID("submit")))
	require.NoError(t, bp.AssertElementText(ID("heading"), "Logout"))

	err := bp.AssertElementText(ID("heading"), "Login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Login")
	assert.Contains(t, err.Error(), "Logout")
	var assertErr *AssertionError
	assert.True(t, errors.As(err, &assertErr))
}

func TestEnterText(t *testing.T) {
	bp := newTestPage(t, loginHTML)

	require.NoError(t, bp.EnterText(Name("email"), "qa@example.com"))
	value, err := bp.ExecuteScript("document.getElementById('email').value")
	require.NoError(t, err)
	assert.Equal(t, "qa@example.com", value)
}

func TestElementNotFoundCapturesScreenshot(t *testing.T) {
	bp := newTestPage(t, loginHTML)
	bp.Timeout = 500 * time.Millisecond

	_, err := bp.FindElement(ID("missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrElementNotFound)
	assert.Contains(t, err.Error(), "id=missing")

	entries, readErr := os.ReadDir(bp.ScreenshotDir)
	require.NoError(t, readErr)
	require.NotEmpty(t, entries, "a diagnostic screenshot should be written")
	assert.Contains(t, entries[0].Name(), "element_not_found_missing")
}

func TestIsPresentAndVisibleSwallowTimeouts(t *testing.T) {
	bp := newTestPage(t, loginHTML)

	assert.True(t, bp.IsPresent(ID("heading")))
	assert.True(t, bp.IsVisible(ID("heading")))
	assert.True(t, bp.IsClickable(ID("submit")))

	// Absence returns false, never an error, and leaves no screenshot.
	assert.False(t, bp.IsPresent(ID("missing")))
	entries, err := os.ReadDir(bp.ScreenshotDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWaitForText(t *testing.T) {
	bp := newTestPage(t, loginHTML)

	// #late populates after ~200ms; the wait must observe it inside a 5s window.
	start := time.Now()
	require.NoError(t, bp.WaitForText(ID("late"), "Loaded", 5*time.Second))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWaitForVisibleFailure(t *testing.T) {
	bp := newTestPage(t, loginHTML)

	err := bp.WaitForVisible(ID("missing"), 500*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWaitTimeout)
}

func TestWaitForURLContains(t *testing.T) {
	bp := newTestPage(t, loginHTML)

	require.NoError(t, bp.WaitForURLContains("text/html", time.Second))

	err := bp.WaitForURLContains("/checkout", 300*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.Contains(t, err.Error(), "/checkout")
}

func TestTakeScreenshot(t *testing.T) {
	bp := newTestPage(t, loginHTML)

	path, err := bp.TakeScreenshot("login_page")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bp.ScreenshotDir, "login_page.png"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestTakeElementScreenshotFallsBack(t *testing.T) {
	bp := newTestPage(t, loginHTML)
	bp.Timeout = 500 * time.Millisecond

	// Element capture works for a real element.
	path, err := bp.TakeElementScreenshot(ID("submit"), "submit_button")
	require.NoError(t, err)
	assert.FileExists(t, path)

	// A missing element falls back to a whole-page capture.
	path, err = bp.TakeElementScreenshot(ID("missing"), "fallback_shot")
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestScrollAndPageSource(t *testing.T) {
	bp := newTestPage(t, loginHTML)

	require.NoError(t, bp.ScrollToBottom())
	require.NoError(t, bp.ScrollToTop())
	require.NoError(t, bp.ScrollToElement(ID("late")))

	source, err := bp.GetPageSource()
	require.NoError(t, err)
	assert.Contains(t, source, `id="heading"`)
}

func TestAssertURLHelpers(t *testing.T) {
	bp := newTestPage(t, loginHTML)

	require.NoError(t, bp.AssertURLContains("data:"))

	err := bp.AssertURLContains("automationexercise")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "automationexercise")
	assert.Contains(t, err.Error(), bp.GetCurrentURL())
}

func TestSwitchToNewPageAfterBlankTargetLink(t *testing.T) {
	bp := newTestPage(t, `<html><body><a id="new" href="about:blank" target="_blank">open</a></body></html>`)
	first := bp.Page

	require.NoError(t, bp.Click(ID("new")))
	require.NoError(t, bp.SwitchToNewPage())
	assert.NotEqual(t, first, bp.Page)
	require.Len(t, bp.Pages(), 2)

	require.NoError(t, bp.SwitchToPage(first))
	assert.Equal(t, first, bp.Page)
}

func TestSwitchToNewPageTimesOutWithoutNewPage(t *testing.T) {
	bp := newTestPage(t, loginHTML)
	bp.Timeout = 500 * time.Millisecond

	err := bp.SwitchToNewPage()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWaitTimeout)
}

func TestCloseCurrentPageSwitchesBack(t *testing.T) {
	bp := newTestPage(t, loginHTML)
	first := bp.Page

	second, err := bp.Page.Context().NewPage()
	require.NoError(t, err)
	require.NoError(t, bp.SwitchToPage(second))

	require.NoError(t, bp.CloseCurrentPage())
	assert.Equal(t, first, bp.Page)
	require.Len(t, bp.Pages(), 1)
}

func TestCloseCurrentPageRefusesLastPage(t *testing.T) {
	bp := newTestPage(t, loginHTML)

	require.Error(t, bp.CloseCurrentPage())
	require.Len(t, bp.Pages(), 1)
}
