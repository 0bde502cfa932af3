package pages

import (
	"fmt"
	"strings"
)

// Strategy identifies how a locator value should be interpreted.
type Strategy string

const (
	StrategyID     Strategy = "id"
	StrategyCSS    Strategy = "css"
	StrategyXPath  Strategy = "xpath"
	StrategyName   Strategy = "name"
	StrategyText   Strategy = "text"
	StrategyTestID Strategy = "data-testid"
)

// Locator is an immutable (strategy, value) pair describing how to find a
// page element.
type Locator struct {
	Strategy Strategy
	Value    string
}

// ID locates by element id.
func ID(value string) Locator { return Locator{Strategy: StrategyID, Value: value} }

// CSS locates by CSS selector.
func CSS(value string) Locator { return Locator{Strategy: StrategyCSS, Value: value} }

// XPath locates by XPath expression.
func XPath(value string) Locator { return Locator{Strategy: StrategyXPath, Value: value} }

// Name locates by the name attribute.
func Name(value string) Locator { return Locator{Strategy: StrategyName, Value: value} }

// Text locates by visible text.
func Text(value string) Locator { return Locator{Strategy: StrategyText, Value: value} }

// TestID locates by the data-testid attribute.
func TestID(value string) Locator { return Locator{Strategy: StrategyTestID, Value: value} }

// Selector compiles the locator into a Playwright selector-engine string.
func (l Locator) Selector() string {
	switch l.Strategy {
	case StrategyID:
		return "id=" + l.Value
	case StrategyXPath:
		return "xpath=" + l.Value
	case StrategyName:
		return fmt.Sprintf(`css=[name=%q]`, l.Value)
	case StrategyText:
		return "text=" + l.Value
	case StrategyTestID:
		return fmt.Sprintf(`css=[data-testid=%q]`, l.Value)
	default:
		return "css=" + l.Value
	}
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Strategy, l.Value)
}

// tag renders the locator value as a filename-safe screenshot suffix.
func (l Locator) tag() string {
	return sanitizeName(l.Value)
}

func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
