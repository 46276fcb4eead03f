// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pos

// A MultiSpan is a collection of spans for diagnostics. Spans have two
// orthogonal attributes: they can be primary spans (the locus of the
// message, rendered with ^^^), and they can carry a label rendered next
// to the snippet.
type MultiSpan struct {
	primarySpans []Span
	spanLabels   []labeledSpan
}

type labeledSpan struct {
	span  Span
	label string
}

// A SpanLabel is one string to highlight when rendering a MultiSpan.
type SpanLabel struct {
	// Span is the region to include in the final snippet.
	Span Span
	// IsPrimary distinguishes the locus (^^^^) from secondary
	// underlines (----).
	IsPrimary bool
	// Label is the text attached to the span, if any.
	Label string
	// HasLabel reports whether Label is meaningful; primary spans
	// without labels still produce a SpanLabel.
	HasLabel bool
}

// NewMultiSpan returns a MultiSpan with the given primary spans.
func NewMultiSpan(primary ...Span) *MultiSpan {
	return &MultiSpan{primarySpans: primary}
}

// PushSpanLabel attaches a label to a span.
func (m *MultiSpan) PushSpanLabel(span Span, label string) {
	m.spanLabels = append(m.spanLabels, labeledSpan{span, label})
}

// PrimarySpan returns the first primary span, if any.
func (m *MultiSpan) PrimarySpan() (Span, bool) {
	if len(m.primarySpans) == 0 {
		return Span{}, false
	}
	return m.primarySpans[0], true
}

// PrimarySpans returns all primary spans.
func (m *MultiSpan) PrimarySpans() []Span {
	return m.primarySpans
}

// Replace substitutes every occurrence of one span with another, in
// primary spans and labels alike. It is used to move spans out of areas
// that render poorly (such as macro-internal code) and reports whether
// any replacement occurred.
func (m *MultiSpan) Replace(before, after Span) bool {
	replaced := false
	for i, s := range m.primarySpans {
		if s == before {
			m.primarySpans[i] = after
			replaced = true
		}
	}
	for i, ls := range m.spanLabels {
		if ls.span == before {
			m.spanLabels[i].span = after
			replaced = true
		}
	}
	return replaced
}

// SpanLabels returns the strings to highlight. Every primary span is
// represented: if at least one label covers it, those labels are
// returned marked primary; otherwise an unlabeled primary SpanLabel is
// synthesized.
func (m *MultiSpan) SpanLabels() []SpanLabel {
	isPrimary := func(span Span) bool {
		for _, s := range m.primarySpans {
			if s == span {
				return true
			}
		}
		return false
	}

	var labels []SpanLabel
	for _, ls := range m.spanLabels {
		labels = append(labels, SpanLabel{
			Span:      ls.span,
			IsPrimary: isPrimary(ls.span),
			Label:     ls.label,
			HasLabel:  true,
		})
	}
	for _, span := range m.primarySpans {
		covered := false
		for _, l := range labels {
			if l.Span == span {
				covered = true
				break
			}
		}
		if !covered {
			labels = append(labels, SpanLabel{Span: span, IsPrimary: true})
		}
	}
	return labels
}
