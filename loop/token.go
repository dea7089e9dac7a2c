package loop

// Token identifies one session of a controller. A continuation captures the
// token current when it was scheduled and drops its work if the token has
// since been superseded.
type Token uint64

// Generation hands out tokens. It is owned by a single Loop and must only be
// used from that loop's goroutine.
type Generation struct {
	n uint64
}

// Next invalidates every outstanding token and returns a fresh one.
func (g *Generation) Next() Token {
	g.n++
	return Token(g.n)
}

// Current returns the token of the live session.
func (g *Generation) Current() Token {
	return Token(g.n)
}

// Valid reports whether t still names the live session.
func (g *Generation) Valid(t Token) bool {
	return uint64(t) == g.n
}
