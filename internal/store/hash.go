package store

import (
	"crypto/sha256"
	"fmt"
)

// ComputeSignatureHash computes a deterministic hash from an entity's
// documented surface: kind, qualified name, rendered code and arguments.
// Docstring edits do NOT affect the hash.
func ComputeSignatureHash(kind, qualname, code string, args []*Argument) string {
	h := sha256.New()

	fmt.Fprintf(h, "kind:%s\n", kind)
	fmt.Fprintf(h, "name:%s\n", qualname)
	fmt.Fprintf(h, "code:%s\n", code)

	// Arguments are already in declaration order.
	for _, a := range args {
		fmt.Fprintf(h, "arg:%d:%s:%s:%s:%t:%s\n", a.Ordinal, a.Kind, a.Name, a.Annotation, a.HasDefault, a.Default)
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}
