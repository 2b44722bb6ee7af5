// Package otp holds the one-time verification code as the user types it.
package otp

// Length is the number of digits in a verification code.
const Length = 6

// Code is a fixed-size digit buffer with a cursor. It never holds more than
// Length characters and never holds a non-digit.
// The zero value is an empty code.
type Code struct {
	digits [Length]byte
	n      int
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Input appends r at the cursor. A non-digit or a full buffer is rejected
// and leaves the code unchanged.
func (c *Code) Input(r rune) bool {
	if !isDigit(r) || c.n == Length {
		return false
	}
	c.digits[c.n] = byte(r)
	c.n++
	return true
}

// Backspace removes the digit before the cursor.
func (c *Code) Backspace() {
	if c.n > 0 {
		c.n--
		c.digits[c.n] = 0
	}
}

func (c *Code) Clear() {
	*c = Code{}
}

// Paste replaces the code with the digits of s. Spaces and dashes are
// skipped and digits past Length are dropped. Any other character rejects
// the whole paste, as does a paste with no digit; the code is then left as
// it was.
func (c *Code) Paste(s string) bool {
	var next Code
	for _, r := range s {
		switch {
		case isDigit(r):
			next.Input(r)
		case r == ' ' || r == '-':
		default:
			return false
		}
	}
	if next.n == 0 {
		return false
	}
	*c = next
	return true
}

func (c *Code) Complete() bool {
	return c.n == Length
}

// Cursor is the index of the next digit to be typed.
func (c *Code) Cursor() int {
	return c.n
}

func (c *Code) String() string {
	return string(c.digits[:c.n])
}
