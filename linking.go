package aboxlink

import (
	"context"
	"fmt"
	"strings"

	"github.com/soundprediction/aboxlink/pkg/linker"
	"github.com/soundprediction/aboxlink/pkg/triples"
	"github.com/soundprediction/aboxlink/pkg/types"
	"github.com/soundprediction/aboxlink/pkg/vocab"
)

// match is a resolved vocabulary link.
type match struct {
	entry vocab.Entry
	score float64
}

// pendingTriple is a normalized triple whose predicate resolved.
type pendingTriple struct {
	n         triples.Normalized
	predicate match
	kind      types.PropertyKind
	subject   types.NodeRef
	// subjectMention and objectMention are empty when the node is not
	// class-linked (external IRIs, numeric names).
	subjectMention string
	object         *types.NodeRef
	objectMention  string
	term           triples.Term
}

// link resolves predicates first, since the predicate kind decides whether
// the object is a node, and then class-links every node mention in one batch.
func (p *Pipeline) link(ctx context.Context, normalized []triples.Normalized, sum *Summary) ([]types.LinkedTriple, error) {
	predicates, err := p.resolvePredicates(ctx, normalized)
	if err != nil {
		return nil, err
	}

	pending := make([]pendingTriple, 0, len(normalized))
	for i, n := range normalized {
		m, ok := predicates[i]
		if !ok {
			skip := types.NewSkipError(types.StageLink, n.Index, types.ErrUnresolvedPredicate,
				fmt.Sprintf("predicate %q", n.Predicate))
			sum.Unresolved++
			sum.skip(skip)
			p.logger.Debug("triple skipped", "index", n.Index, "reason", skip.Error())
			continue
		}
		kind, _ := m.entry.Kind.PropertyKind()
		pending = append(pending, p.prepare(n, m, kind))
	}

	var mentions []string
	for _, pt := range pending {
		if pt.subjectMention != "" {
			mentions = append(mentions, pt.subjectMention)
		}
		if pt.objectMention != "" {
			mentions = append(mentions, pt.objectMention)
		}
	}
	classes, err := p.resolveClasses(ctx, mentions)
	if err != nil {
		return nil, err
	}

	linked := make([]types.LinkedTriple, 0, len(pending))
	for _, pt := range pending {
		lt, ok := p.finish(pt, classes, sum)
		if ok {
			linked = append(linked, lt)
		}
	}
	return linked, nil
}

// prepare builds the nodes of a triple without class links.
func (p *Pipeline) prepare(n triples.Normalized, m match, kind types.PropertyKind) pendingTriple {
	pt := pendingTriple{n: n, predicate: m, kind: kind}
	pt.subject, pt.subjectMention = p.subjectNode(n.Subject)

	pt.term = triples.Classify(n.Object, p.idx.Prefix)
	if kind != types.ObjectProperty {
		return pt
	}
	switch pt.term.Kind {
	case triples.ExternalResource:
		pt.object = &types.NodeRef{IRI: pt.term.IRI}
	case triples.LocalResource:
		pt.object = &types.NodeRef{Name: pt.term.Local}
		pt.objectMention = p.mentionText(pt.term.Text)
	default:
		// A number under an object property names a node.
		pt.object = &types.NodeRef{Name: triples.SafeID(pt.term.Text)}
	}
	return pt
}

func (p *Pipeline) subjectNode(mention string) (types.NodeRef, string) {
	if p.config.FocusSubject != "" && p.isFocusMention(mention) {
		return types.NodeRef{Name: triples.SafeID(p.config.FocusSubject)}, mention
	}
	term := triples.Classify(mention, p.idx.Prefix)
	switch term.Kind {
	case triples.ExternalResource:
		return types.NodeRef{IRI: term.IRI}, ""
	case triples.LocalResource:
		return types.NodeRef{Name: term.Local}, p.mentionText(term.Text)
	default:
		return types.NodeRef{Name: triples.SafeID(term.Text)}, ""
	}
}

// mentionText strips the vocabulary prefix from "prefix:local" mentions.
func (p *Pipeline) mentionText(text string) string {
	if local, ok := strings.CutPrefix(text, p.idx.Prefix+":"); ok && local != "" {
		return local
	}
	return text
}

func (p *Pipeline) isFocusMention(mention string) bool {
	key := vocab.NormalizeLabel(mention)
	for _, f := range p.config.FocusMentions {
		if vocab.NormalizeLabel(f) == key {
			return true
		}
	}
	return false
}

// finish attaches class links and the literal, or drops the triple.
func (p *Pipeline) finish(pt pendingTriple, classes map[string]match, sum *Summary) (types.LinkedTriple, bool) {
	n := pt.n
	lt := types.LinkedTriple{
		Index:   n.Index,
		Subject: pt.subject,
		Predicate: types.PredicateRef{
			Name:  pt.predicate.entry.Name,
			IRI:   pt.predicate.entry.IRI,
			Kind:  pt.kind,
			Score: pt.predicate.score,
		},
		Confidence: n.Confidence,
	}

	if !p.applyClass(&lt.Subject, pt.subjectMention, classes, n.Index, "subject", sum) {
		return lt, false
	}

	if pt.kind == types.ObjectProperty {
		obj := *pt.object
		if !p.applyClass(&obj, pt.objectMention, classes, n.Index, "object", sum) {
			return lt, false
		}
		lt.Object = &obj
		return lt, true
	}

	dt := pt.predicate.entry.Datatype
	if dt == "" && n.Datatype != "" {
		parsed, ok := types.ParseDatatype(n.Datatype)
		if !ok {
			p.malformed(sum, n.Index, fmt.Sprintf("unsupported datatype %q", n.Datatype))
		}
		dt = parsed
	}
	lit, err := triples.CoerceLiteral(pt.term, dt)
	if err != nil {
		p.malformed(sum, n.Index, err.Error())
	}
	lt.Literal = &lit
	return lt, true
}

// applyClass sets the class of node from its mention. It reports false when
// the triple must be dropped.
func (p *Pipeline) applyClass(node *types.NodeRef, mention string, classes map[string]match, index int, role string, sum *Summary) bool {
	if mention == "" {
		return true
	}
	if m, ok := classes[mention]; ok {
		node.Class = m.entry.Name
		node.ClassIRI = m.entry.IRI
		node.Score = m.score
		return true
	}

	skip := types.NewSkipError(types.StageLink, index, types.ErrLowConfidenceEntityLink,
		fmt.Sprintf("%s %q", role, mention))
	if p.config.DropUnlinkedEntities {
		sum.Dropped++
		sum.skip(skip)
		p.logger.Debug("triple skipped", "index", index, "reason", skip.Error())
		return false
	}
	sum.LowConfidenceLinks++
	sum.warn(skip)
	p.logger.Debug("entity kept untyped", "index", index, "reason", skip.Error())
	return true
}

func (p *Pipeline) malformed(sum *Summary, index int, detail string) {
	skip := types.NewSkipError(types.StageLink, index, types.ErrMalformedLiteral, detail)
	sum.MalformedLiterals++
	sum.warn(skip)
	p.logger.Debug("literal fell back to string", "index", index, "reason", skip.Error())
}

// resolvePredicates maps the position of each normalized triple to its
// property. Positions missing from the result are unresolved.
func (p *Pipeline) resolvePredicates(ctx context.Context, normalized []triples.Normalized) (map[int]match, error) {
	out := make(map[int]match, len(normalized))

	var distinct []string
	seen := make(map[string]bool)
	for i, n := range normalized {
		hint, hinted := n.PropertyKindHint()
		if p.config.ExactMatch {
			if e, ok := p.gazetteer.Property(n.Predicate); ok {
				kind, _ := e.Kind.PropertyKind()
				if !hinted || kind == hint {
					out[i] = match{entry: e, score: 1}
					continue
				}
			}
		}
		if !seen[n.Predicate] {
			seen[n.Predicate] = true
			distinct = append(distinct, n.Predicate)
		}
	}
	if len(distinct) == 0 {
		return out, nil
	}

	ranked, err := p.linker.LinkProperties(ctx, distinct, p.config.HintSearchK, p.config.Threshold)
	if err != nil {
		return nil, fmt.Errorf("link predicates: %w", err)
	}
	byMention := make(map[string][]linker.Candidate, len(distinct))
	for i, m := range distinct {
		byMention[m] = ranked[i]
	}

	for i, n := range normalized {
		if _, done := out[i]; done {
			continue
		}
		if c, ok := pickProperty(byMention[n.Predicate], n, p.config.TopK); ok {
			out[i] = match{entry: c.Entry, score: c.Score}
		}
	}
	return out, nil
}

// pickProperty chooses the best candidate, restricted to the hinted property
// kind when the triple carries a hint or literal flag.
func pickProperty(candidates []linker.Candidate, n triples.Normalized, topK int) (linker.Candidate, bool) {
	hint, hinted := n.PropertyKindHint()
	if !hinted {
		if len(candidates) == 0 || topK <= 0 {
			return linker.Candidate{}, false
		}
		return candidates[0], true
	}
	for _, c := range candidates {
		if kind, _ := c.Kind(); kind == hint {
			return c, true
		}
	}
	return linker.Candidate{}, false
}

// resolveClasses links every distinct mention to a class, consulting the
// gazetteer before the embedder. Mentions with no link are absent.
func (p *Pipeline) resolveClasses(ctx context.Context, mentions []string) (map[string]match, error) {
	out := make(map[string]match)
	var distinct []string
	seen := make(map[string]bool)
	for _, m := range mentions {
		if seen[m] {
			continue
		}
		seen[m] = true
		if p.config.ExactMatch {
			if e, ok := p.gazetteer.Class(m); ok {
				out[m] = match{entry: e, score: 1}
				continue
			}
		}
		distinct = append(distinct, m)
	}
	if len(distinct) == 0 {
		return out, nil
	}

	ranked, err := p.linker.LinkEntities(ctx, distinct, p.config.TopK, p.config.Threshold)
	if err != nil {
		return nil, fmt.Errorf("link entities: %w", err)
	}
	for i, m := range distinct {
		if len(ranked[i]) > 0 {
			out[m] = match{entry: ranked[i][0].Entry, score: ranked[i][0].Score}
		}
	}
	return out, nil
}
