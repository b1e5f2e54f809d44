package password

import (
	"strings"
	"unicode"
)

// Symbols es el conjunto fijo de puntuación aceptado como símbolo.
const Symbols = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?`~"

// bcrypt ignora todo lo que exceda 72 bytes.
const maxBytes = 72

// Códigos de regla violada; el cliente los usa para mostrar todas las pistas juntas.
const (
	RuleTooShort      = "too_short"
	RuleTooLong       = "too_long"
	RuleMissingUpper  = "missing_upper"
	RuleMissingLower  = "missing_lower"
	RuleMissingDigit  = "missing_digit"
	RuleMissingSymbol = "missing_symbol"
)

var ruleMessages = map[string]string{
	RuleTooShort:      "Password must be at least 8 characters long",
	RuleTooLong:       "Password must be at most 72 bytes long",
	RuleMissingUpper:  "Password must contain at least one uppercase letter",
	RuleMissingLower:  "Password must contain at least one lowercase letter",
	RuleMissingDigit:  "Password must contain at least one number",
	RuleMissingSymbol: "Password must contain at least one special character",
}

// Policy describe las reglas de fortaleza.
type Policy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// DefaultPolicy: largo >= 8, mayúscula, minúscula, dígito y símbolo.
var DefaultPolicy = Policy{
	MinLength:     8,
	RequireUpper:  true,
	RequireLower:  true,
	RequireDigit:  true,
	RequireSymbol: true,
}

// Result es el resultado de ValidateStrength.
type Result struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

// Messages devuelve los textos legibles de cada violación, en el mismo orden.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		out = append(out, ruleMessages[v])
	}
	return out
}

// ValidateStrength evalúa todas las reglas y devuelve todas las violadas (no corta en la primera).
func (p Policy) ValidateStrength(s string) Result {
	var reasons []string
	if len([]rune(s)) < p.MinLength {
		reasons = append(reasons, RuleTooShort)
	}
	if len(s) > maxBytes {
		reasons = append(reasons, RuleTooLong)
	}
	var hasU, hasL, hasD, hasS bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasU = true
		case unicode.IsLower(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		case strings.ContainsRune(Symbols, r):
			hasS = true
		}
	}
	if p.RequireUpper && !hasU {
		reasons = append(reasons, RuleMissingUpper)
	}
	if p.RequireLower && !hasL {
		reasons = append(reasons, RuleMissingLower)
	}
	if p.RequireDigit && !hasD {
		reasons = append(reasons, RuleMissingDigit)
	}
	if p.RequireSymbol && !hasS {
		reasons = append(reasons, RuleMissingSymbol)
	}
	return Result{Valid: len(reasons) == 0, Violations: reasons}
}

// ValidateStrength aplica DefaultPolicy.
func ValidateStrength(s string) Result {
	return DefaultPolicy.ValidateStrength(s)
}
