package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)

const DefaultInvoiceNumberTemplate = "AIX-{SEQ6}"

// FormatInvoiceNumber expands date tokens ({YYYY} {YY} {MM} {DD}) and
// sequence tokens ({SEQ}, {SEQn} zero-padded to n digits) in template.
// It is pure.
func FormatInvoiceNumber(template string, issuedAt time.Time, seq int64) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", fmt.Errorf("invoice number template is empty")
	}
	if seq <= 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", seq)
	}

	out := strings.NewReplacer(
		"{YYYY}", issuedAt.Format("2006"),
		"{YY}", issuedAt.Format("06"),
		"{MM}", issuedAt.Format("01"),
		"{DD}", issuedAt.Format("02"),
		"{SEQ}", strconv.FormatInt(seq, 10),
	).Replace(template)

	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		width, err := strconv.Atoi(seqPadRe.FindStringSubmatch(m)[1])
		if err != nil || width <= 0 {
			return m
		}
		return fmt.Sprintf("%0*d", width, seq)
	})

	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}
	return out, nil
}

// Sequence hands out invoice numbers for new drafts. The counter lives for
// the process only; numbers are suggestions the user may overwrite.
type Sequence struct {
	last atomic.Int64
}

func NewSequence() *Sequence {
	return &Sequence{}
}

// Next formats the next number. An invalid template falls back to the default.
func (s *Sequence) Next(template string, issuedAt time.Time) string {
	seq := s.last.Add(1)
	number, err := FormatInvoiceNumber(template, issuedAt, seq)
	if err != nil {
		number, _ = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, issuedAt, seq)
	}
	return number
}
