package calc

import (
	"strconv"
	"strings"
)

// Calculator models the button-driven calculator widget: keys append to an
// expression buffer, "=" evaluates, "C" clears, "←" backspaces. The display
// never holds anything but the buffer, a result, "0", or "Error".
type Calculator struct {
	buffer  string
	display string
}

const allowedKeys = "0123456789.+-*/%()"

func NewCalculator() *Calculator {
	return &Calculator{display: "0"}
}

func (c *Calculator) Display() string { return c.display }

func (c *Calculator) Buffer() string { return c.buffer }

// Seed pre-fills the buffer, e.g. from a bare numeric query.
func (c *Calculator) Seed(value string) {
	c.buffer = value
	c.display = value
}

// Press handles one key. Unknown keys are ignored.
func (c *Calculator) Press(key string) {
	switch key {
	case "=":
		c.evaluate()
	case "C":
		c.buffer = ""
		c.display = "0"
	case "←":
		c.backspace()
	default:
		if len(key) == 1 && strings.Contains(allowedKeys, key) {
			c.buffer += key
			c.display = c.buffer
		}
	}
}

func (c *Calculator) evaluate() {
	v, err := Evaluate(c.buffer)
	if err != nil {
		c.display = "Error"
		c.buffer = ""
		return
	}
	c.buffer = formatResult(v)
	c.display = c.buffer
}

func (c *Calculator) backspace() {
	if c.buffer == "" {
		c.display = "0"
		return
	}
	runes := []rune(c.buffer)
	c.buffer = string(runes[:len(runes)-1])
	if c.buffer == "" {
		c.display = "0"
	} else {
		c.display = c.buffer
	}
}

func formatResult(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
