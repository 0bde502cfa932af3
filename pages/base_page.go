// Package pages provides the base page object that concrete page objects
// embed. It wraps a Playwright page with bounded waits, screenshot capture,
// report attachments, and assertions so page objects stay free of wait and
// reporting boilerplate.
package pages

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"ae_automation/report"
)

const (
	// DefaultTimeout bounds element lookups and interactions.
	DefaultTimeout = 10 * time.Second
	// PageLoadTimeout bounds navigation waits.
	PageLoadTimeout = 30 * time.Second
	// ProbeTimeout bounds the Is* presence probes.
	ProbeTimeout = 5 * time.Second
)

// DefaultScreenshotDir is where diagnostic screenshots are written.
const DefaultScreenshotDir = "screenshots"

// BasePage wraps one live browser page. Concrete page objects embed
// *BasePage and add their own locators and flows on top.
type BasePage struct {
	Page     playwright.Page
	Reporter *report.Reporter
	Logger   *logrus.Logger

	// Timeout applies to element lookups and interactions. Explicit waits
	// take their own timeout parameter.
	Timeout       time.Duration
	ScreenshotDir string
}

// NewBasePage wires a page object around an open page. reporter may be nil
// when no report output is wanted.
func NewBasePage(page playwright.Page, reporter *report.Reporter, logger *logrus.Logger) *BasePage {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BasePage{
		Page:          page,
		Reporter:      reporter,
		Logger:        logger,
		Timeout:       DefaultTimeout,
		ScreenshotDir: DefaultScreenshotDir,
	}
}

// step logs the operation and records it as a report step.
func (p *BasePage) step(name string) {
	p.Logger.Info(name)
	p.Reporter.Step(name)
}

// Navigation

// NavigateTo opens url and waits for the page to finish loading.
func (p *BasePage) NavigateTo(url string) error {
	p.step(fmt.Sprintf("Navigate to URL: %s", url))
	if _, err := p.Page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(millis(PageLoadTimeout)),
	}); err != nil {
		return p.loadFailure(err)
	}
	return nil
}

// Refresh reloads the current page and waits for it to finish loading.
func (p *BasePage) Refresh() error {
	p.step("Refresh page")
	if _, err := p.Page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(millis(PageLoadTimeout)),
	}); err != nil {
		return p.loadFailure(err)
	}
	return nil
}

// GoBack navigates back in browser history and waits for the page to load.
func (p *BasePage) GoBack() error {
	p.step("Navigate back")
	if _, err := p.Page.GoBack(playwright.PageGoBackOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(millis(PageLoadTimeout)),
	}); err != nil {
		return p.loadFailure(err)
	}
	return nil
}

// WaitForPageLoad blocks until the page reports the load state.
func (p *BasePage) WaitForPageLoad() error {
	p.step("Wait for page to load")
	err := p.Page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateLoad,
		Timeout: playwright.Float(millis(PageLoadTimeout)),
	})
	if err != nil {
		return p.loadFailure(err)
	}
	return nil
}

func (p *BasePage) loadFailure(err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		p.CaptureScreenshot("page_load_timeout")
		return fmt.Errorf("%w: page did not finish loading within %s", ErrPageLoadTimeout, PageLoadTimeout)
	}
	return err
}

// GetCurrentURL returns the current page URL.
func (p *BasePage) GetCurrentURL() string {
	return p.Page.URL()
}

// GetTitle returns the current page title.
func (p *BasePage) GetTitle() (string, error) {
	return p.Page.Title()
}

// Element lookup

// FindElement waits for the first element matching loc to be present and
// returns its handle.
func (p *BasePage) FindElement(loc Locator) (playwright.Locator, error) {
	el := p.Page.Locator(loc.Selector()).First()
	err := el.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(millis(p.Timeout)),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			p.CaptureScreenshot("element_not_found_" + loc.tag())
			return nil, fmt.Errorf("%w: %s", ErrElementNotFound, loc)
		}
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	return el, nil
}

// FindElements waits for at least one matching element to be present and
// returns all matches.
func (p *BasePage) FindElements(loc Locator) ([]playwright.Locator, error) {
	if _, err := p.FindElement(loc); err != nil {
		return nil, err
	}
	return p.Page.Locator(loc.Selector()).All()
}

// Interaction

// Click waits for the element to become clickable and clicks it.
func (p *BasePage) Click(loc Locator) error {
	p.step("Click element: " + loc.String())
	el := p.Page.Locator(loc.Selector()).First()
	if err := el.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(millis(p.Timeout)),
	}); err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			p.CaptureScreenshot("click_failed_" + loc.tag())
			return fmt.Errorf("%w: element not clickable: %s", ErrElementNotFound, loc)
		}
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

// EnterText clears the field matching loc and types text into it.
func (p *BasePage) EnterText(loc Locator, text string) error {
	p.step(fmt.Sprintf("Enter text '%s' into element: %s", text, loc))
	el := p.Page.Locator(loc.Selector()).First()
	if err := el.Fill(text, playwright.LocatorFillOptions{
		Timeout: playwright.Float(millis(p.Timeout)),
	}); err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			p.CaptureScreenshot("text_entry_failed_" + loc.tag())
			return fmt.Errorf("%w: cannot enter text in element: %s", ErrElementNotFound, loc)
		}
		return fmt.Errorf("enter text into %s: %w", loc, err)
	}
	return nil
}

// Hover moves the pointer over the element.
func (p *BasePage) Hover(loc Locator) error {
	p.step("Hover over element: " + loc.String())
	el := p.Page.Locator(loc.Selector()).First()
	if err := el.Hover(playwright.LocatorHoverOptions{
		Timeout: playwright.Float(millis(p.Timeout)),
	}); err != nil {
		return p.interactionFailure("hover_failed", loc, err)
	}
	return nil
}

// DoubleClick double-clicks the element.
func (p *BasePage) DoubleClick(loc Locator) error {
	p.step("Double click element: " + loc.String())
	el := p.Page.Locator(loc.Selector()).First()
	if err := el.Dblclick(playwright.LocatorDblclickOptions{
		Timeout: playwright.Float(millis(p.Timeout)),
	}); err != nil {
		return p.interactionFailure("double_click_failed", loc, err)
	}
	return nil
}

// RightClick opens the context menu on the element.
func (p *BasePage) RightClick(loc Locator) error {
	p.step("Right click element: " + loc.String())
	el := p.Page.Locator(loc.Selector()).First()
	if err := el.Click(playwright.LocatorClickOptions{
		Button:  playwright.MouseButtonRight,
		Timeout: playwright.Float(millis(p.Timeout)),
	}); err != nil {
		return p.interactionFailure("right_click_failed", loc, err)
	}
	return nil
}

// DragAndDrop drags the source element onto the target element.
func (p *BasePage) DragAndDrop(source, target Locator) error {
	p.step(fmt.Sprintf("Drag element %s to %s", source, target))
	src := p.Page.Locator(source.Selector()).First()
	dst := p.Page.Locator(target.Selector()).First()
	if err := src.DragTo(dst, playwright.LocatorDragToOptions{
		Timeout: playwright.Float(millis(p.Timeout)),
	}); err != nil {
		return p.interactionFailure("drag_failed", source, err)
	}
	return nil
}

func (p *BasePage) interactionFailure(tag string, loc Locator, err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		p.CaptureScreenshot(tag + "_" + loc.tag())
		return fmt.Errorf("%w: %s", ErrElementNotFound, loc)
	}
	return err
}

// Query

// GetText returns the element's visible text.
func (p *BasePage) GetText(loc Locator) (string, error) {
	el := p.Page.Locator(loc.Selector()).First()
	text, err := el.InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(millis(p.Timeout)),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			p.CaptureScreenshot("get_text_failed_" + loc.tag())
			return "", fmt.Errorf("%w: cannot get text from element: %s", ErrElementNotFound, loc)
		}
		return "", fmt.Errorf("get text from %s: %w", loc, err)
	}
	return text, nil
}

// GetAttribute returns the value of the named attribute on the element.
func (p *BasePage) GetAttribute(loc Locator, name string) (string, error) {
	el := p.Page.Locator(loc.Selector()).First()
	value, err := el.GetAttribute(name, playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(millis(p.Timeout)),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			p.CaptureScreenshot("get_attribute_failed_" + loc.tag())
			return "", fmt.Errorf("%w: cannot get attribute from element: %s", ErrElementNotFound, loc)
		}
		return "", fmt.Errorf("get attribute %q from %s: %w", name, loc, err)
	}
	return value, nil
}

// IsPresent reports whether the element appears in the DOM within the probe
// window. Absence is a normal outcome, not an error.
func (p *BasePage) IsPresent(loc Locator) bool {
	err := p.Page.Locator(loc.Selector()).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(millis(ProbeTimeout)),
	})
	return err == nil
}

// IsVisible reports whether the element becomes visible within the probe
// window.
func (p *BasePage) IsVisible(loc Locator) bool {
	err := p.Page.Locator(loc.Selector()).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(millis(ProbeTimeout)),
	})
	return err == nil
}

// IsClickable reports whether the element becomes visible and enabled within
// the probe window.
func (p *BasePage) IsClickable(loc Locator) bool {
	el := p.Page.Locator(loc.Selector()).First()
	err := waitUntil(ProbeTimeout, func() (bool, error) {
		visible, err := el.IsVisible()
		if err != nil || !visible {
			return false, nil
		}
		enabled, err := el.IsEnabled()
		if err != nil {
			return false, nil
		}
		return enabled, nil
	})
	return err == nil
}

// Explicit waits

// WaitForVisible blocks until the element is visible.
func (p *BasePage) WaitForVisible(loc Locator, timeout time.Duration) error {
	p.step("Wait for element to be visible: " + loc.String())
	err := p.Page.Locator(loc.Selector()).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(millis(timeout)),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			p.CaptureScreenshot("wait_visible_failed_" + loc.tag())
			return fmt.Errorf("%w: element not visible: %s", ErrWaitTimeout, loc)
		}
		return err
	}
	return nil
}

// WaitForInvisible blocks until the element is hidden or detached.
func (p *BasePage) WaitForInvisible(loc Locator, timeout time.Duration) error {
	p.step("Wait for element to be invisible: " + loc.String())
	err := p.Page.Locator(loc.Selector()).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateHidden,
		Timeout: playwright.Float(millis(timeout)),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			p.CaptureScreenshot("wait_invisible_failed_" + loc.tag())
			return fmt.Errorf("%w: element still visible: %s", ErrWaitTimeout, loc)
		}
		return err
	}
	return nil
}

// WaitForText blocks until the element's text contains text.
func (p *BasePage) WaitForText(loc Locator, text string, timeout time.Duration) error {
	p.step(fmt.Sprintf("Wait for text '%s' in element: %s", text, loc))
	el := p.Page.Locator(loc.Selector()).First()
	err := waitUntil(timeout, func() (bool, error) {
		visible, verr := el.IsVisible()
		if verr != nil || !visible {
			return false, nil
		}
		current, terr := el.InnerText(playwright.LocatorInnerTextOptions{
			Timeout: playwright.Float(millis(time.Second)),
		})
		if terr != nil {
			return false, nil
		}
		return strings.Contains(current, text), nil
	})
	if err != nil {
		p.CaptureScreenshot("wait_text_failed_" + loc.tag())
		return fmt.Errorf("%w: text '%s' not found in element: %s", ErrWaitTimeout, text, loc)
	}
	return nil
}

// WaitForURLContains blocks until the page URL contains text.
func (p *BasePage) WaitForURLContains(text string, timeout time.Duration) error {
	p.step("Wait for URL to contain: " + text)
	err := waitUntil(timeout, func() (bool, error) {
		return strings.Contains(p.Page.URL(), text), nil
	})
	if err != nil {
		p.CaptureScreenshot("url_wait_failed_" + sanitizeName(text))
		return fmt.Errorf("%w: URL does not contain: %s", ErrWaitTimeout, text)
	}
	return nil
}

// Screenshots

// TakeScreenshot writes a full-page screenshot under the screenshot
// directory and attaches it to the report. An empty name yields a
// timestamped one.
func (p *BasePage) TakeScreenshot(name string) (string, error) {
	if name == "" {
		name = "screenshot_" + timestamp()
	}
	if err := os.MkdirAll(p.ScreenshotDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	path := filepath.Join(p.ScreenshotDir, name+".png")
	data, err := p.Page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	})
	if err != nil {
		return "", fmt.Errorf("failed to take screenshot: %w", err)
	}

	p.Reporter.Attach("Screenshot: "+name, report.MimePNG, data)
	return path, nil
}

// TakeElementScreenshot captures just the element; if element-level capture
// fails it falls back to a whole-page screenshot under the same name.
func (p *BasePage) TakeElementScreenshot(loc Locator, name string) (string, error) {
	if name == "" {
		name = "element_screenshot_" + timestamp()
	}

	el, err := p.FindElement(loc)
	if err == nil {
		if mkErr := os.MkdirAll(p.ScreenshotDir, 0755); mkErr == nil {
			path := filepath.Join(p.ScreenshotDir, name+".png")
			data, shotErr := el.Screenshot(playwright.LocatorScreenshotOptions{
				Path: playwright.String(path),
			})
			if shotErr == nil {
				p.Reporter.Attach("Element Screenshot: "+name, report.MimePNG, data)
				return path, nil
			}
			p.Logger.Warnf("Failed to take element screenshot: %v", shotErr)
		}
	}

	return p.TakeScreenshot(name)
}

// CaptureScreenshot is the diagnostic variant used on failure paths: capture
// problems are logged and swallowed so they never replace the original
// failure.
func (p *BasePage) CaptureScreenshot(name string) {
	if _, err := p.TakeScreenshot(name); err != nil {
		p.Logger.Warnf("Failed to capture screenshot %q: %v", name, err)
	}
}

// Assertions

// AssertElementText fails unless the element text equals expected.
func (p *BasePage) AssertElementText(loc Locator, expected string) error {
	p.step(fmt.Sprintf("Assert element text equals '%s'", expected))
	actual, err := p.GetText(loc)
	if err != nil {
		return err
	}
	if actual != expected {
		return assertionFailure("Expected '%s', but got '%s'", expected, actual)
	}
	return nil
}

// AssertContainsText fails unless the element text contains expected.
func (p *BasePage) AssertContainsText(loc Locator, expected string) error {
	p.step(fmt.Sprintf("Assert element contains text '%s'", expected))
	actual, err := p.GetText(loc)
	if err != nil {
		return err
	}
	if !strings.Contains(actual, expected) {
		return assertionFailure("Text '%s' not found in '%s'", expected, actual)
	}
	return nil
}

// AssertTitle fails unless the page title equals expected.
func (p *BasePage) AssertTitle(expected string) error {
	p.step(fmt.Sprintf("Assert page title equals '%s'", expected))
	actual, err := p.GetTitle()
	if err != nil {
		return err
	}
	if actual != expected {
		return assertionFailure("Expected title '%s', but got '%s'", expected, actual)
	}
	return nil
}

// AssertURL fails unless the current URL equals expected.
func (p *BasePage) AssertURL(expected string) error {
	p.step(fmt.Sprintf("Assert current URL equals '%s'", expected))
	actual := p.GetCurrentURL()
	if actual != expected {
		return assertionFailure("Expected URL '%s', but got '%s'", expected, actual)
	}
	return nil
}

// AssertURLContains fails unless the current URL contains expected.
func (p *BasePage) AssertURLContains(expected string) error {
	p.step(fmt.Sprintf("Assert URL contains '%s'", expected))
	actual := p.GetCurrentURL()
	if !strings.Contains(actual, expected) {
		return assertionFailure("Text '%s' not found in URL '%s'", expected, actual)
	}
	return nil
}

// Browser actions

// ScrollToElement scrolls the element into view.
func (p *BasePage) ScrollToElement(loc Locator) error {
	p.step("Scroll to element: " + loc.String())
	el, err := p.FindElement(loc)
	if err != nil {
		return err
	}
	return el.ScrollIntoViewIfNeeded()
}

// ScrollToTop scrolls to the top of the page.
func (p *BasePage) ScrollToTop() error {
	p.step("Scroll to top of page")
	_, err := p.Page.Evaluate("window.scrollTo(0, 0)")
	return err
}

// ScrollToBottom scrolls to the bottom of the page.
func (p *BasePage) ScrollToBottom() error {
	p.step("Scroll to bottom of page")
	_, err := p.Page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	return err
}

// ExecuteScript runs JavaScript in the page and returns its result.
func (p *BasePage) ExecuteScript(script string, args ...interface{}) (interface{}, error) {
	return p.Page.Evaluate(script, args...)
}

// GetPageSource returns the page's HTML.
func (p *BasePage) GetPageSource() (string, error) {
	return p.Page.Content()
}

// ClearCookies deletes all cookies in the page's browser context.
func (p *BasePage) ClearCookies() error {
	p.step("Clear browser cookies")
	return p.Page.Context().ClearCookies()
}

// SetViewportSize resizes the page viewport.
func (p *BasePage) SetViewportSize(width, height int) error {
	p.step(fmt.Sprintf("Set viewport size: %dx%d", width, height))
	return p.Page.SetViewportSize(width, height)
}

// AutoAcceptDialogs accepts every JavaScript dialog the page raises from now
// on. Dialog text is attached to the report.
func (p *BasePage) AutoAcceptDialogs() {
	p.Page.OnDialog(func(dialog playwright.Dialog) {
		p.Reporter.Attach("Alert Text", report.MimeText, []byte(dialog.Message()))
		if err := dialog.Accept(); err != nil {
			p.Logger.Warnf("Failed to accept dialog: %v", err)
		}
	})
}

// AutoDismissDialogs dismisses every JavaScript dialog the page raises from
// now on.
func (p *BasePage) AutoDismissDialogs() {
	p.Page.OnDialog(func(dialog playwright.Dialog) {
		p.Reporter.Attach("Alert Text", report.MimeText, []byte(dialog.Message()))
		if err := dialog.Dismiss(); err != nil {
			p.Logger.Warnf("Failed to dismiss dialog: %v", err)
		}
	})
}

// Frame returns a locator scope rooted at the iframe matching loc.
func (p *BasePage) Frame(loc Locator) playwright.FrameLocator {
	return p.Page.FrameLocator(loc.Selector())
}

// Window handling. Links with target=_blank and window.open calls open new
// pages in the same browser context.

// Pages returns every page open in this page's browser context, in
// creation order.
func (p *BasePage) Pages() []playwright.Page {
	return p.Page.Context().Pages()
}

// SwitchToPage brings page to the front and points subsequent operations
// at it.
func (p *BasePage) SwitchToPage(page playwright.Page) error {
	p.step("Switch to page: " + page.URL())
	if err := page.BringToFront(); err != nil {
		return fmt.Errorf("failed to switch to page: %w", err)
	}
	p.Page = page
	return nil
}

// SwitchToNewPage waits for a page other than the current one to open and
// switches to the newest of them.
func (p *BasePage) SwitchToNewPage() error {
	p.step("Switch to newly opened page")
	var target playwright.Page
	err := waitUntil(p.Timeout, func() (bool, error) {
		open := p.Page.Context().Pages()
		for i := len(open) - 1; i >= 0; i-- {
			if open[i] != p.Page {
				target = open[i]
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		p.CaptureScreenshot("new_page_wait_failed")
		return fmt.Errorf("%w: no new page opened", ErrWaitTimeout)
	}
	return p.SwitchToPage(target)
}

// CloseCurrentPage closes the active page and switches to the last page
// still open in the context. The only remaining page cannot be closed.
func (p *BasePage) CloseCurrentPage() error {
	p.step("Close current page")
	var remaining []playwright.Page
	for _, open := range p.Page.Context().Pages() {
		if open != p.Page {
			remaining = append(remaining, open)
		}
	}
	if len(remaining) == 0 {
		return fmt.Errorf("cannot close the only open page")
	}
	if err := p.Page.Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	return p.SwitchToPage(remaining[len(remaining)-1])
}

func millis(d time.Duration) float64 {
	return float64(d.Milliseconds())
}

func timestamp() string {
	return time.Now().Format("20060102_150405")
}
