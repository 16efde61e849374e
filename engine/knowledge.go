package engine

import "fmt"

// Fact is one piece of private knowledge. Misinformation is modeled by
// appending a false fact, never by rewriting history.
type Fact struct {
	Round int
	Phase string
	Text  string
}

// Notebook is the hidden knowledge store: an append-only private fact log
// per owner. The engine writes it during resolution; only the owning
// player's agent reads it back when building decision context.
type Notebook struct {
	facts map[string][]Fact
}

func NewNotebook() *Notebook {
	return &Notebook{facts: make(map[string][]Fact)}
}

// Append records a private fact for owner.
func (nb *Notebook) Append(owner string, f Fact) {
	nb.facts[owner] = append(nb.facts[owner], f)
}

// Facts returns a copy of owner's full fact history.
func (nb *Notebook) Facts(owner string) []Fact {
	src := nb.facts[owner]
	out := make([]Fact, len(src))
	copy(out, src)
	return out
}

// Recent renders the last k facts for owner as context lines.
func (nb *Notebook) Recent(owner string, k int) []string {
	src := nb.facts[owner]
	if len(src) > k {
		src = src[len(src)-k:]
	}
	var out []string
	for _, f := range src {
		out = append(out, fmt.Sprintf("[%s %d] %s", f.Phase, f.Round, f.Text))
	}
	return out
}
