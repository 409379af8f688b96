package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/dataset"
	"github.com/medicare-ai/medassist/intent"
	"github.com/medicare-ai/medassist/llm"
	"github.com/medicare-ai/medassist/metrics"
	"github.com/medicare-ai/medassist/retriever"
)

// Retriever returns text chunks for a query, most relevant first.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
}

// Options configures a Pipeline.
type Options struct {
	Generator  llm.Provider
	Dataset    *dataset.Dataset
	Retriever  Retriever
	Classifier intent.Classifier
	Budget     retriever.Budget
	MaxTokens  int
	Currency   string
}

// Pipeline answers one question from the medicine dataset, retrieved
// chunks or an attached document.
type Pipeline struct {
	gen        llm.Provider
	data       *dataset.Dataset
	store      Retriever
	classifier intent.Classifier
	budget     retriever.Budget
	maxTokens  int
	currency   string
}

func New(opts Options) *Pipeline {
	if opts.Classifier == nil {
		opts.Classifier = intent.NewRuleBasedClassifier(nil)
	}
	if opts.Budget.Limit <= 0 {
		opts.Budget.Limit = 512
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 500
	}
	if opts.Currency == "" {
		opts.Currency = "₹"
	}
	return &Pipeline{
		gen:        opts.Generator,
		data:       opts.Dataset,
		store:      opts.Retriever,
		classifier: opts.Classifier,
		budget:     opts.Budget,
		maxTokens:  opts.MaxTokens,
		currency:   opts.Currency,
	}
}

// Run returns the answer text. It never fails: generator errors are
// rendered as an apology.
func (p *Pipeline) Run(ctx context.Context, query string, docContext *string) string {
	answer, err := p.Answer(ctx, query, docContext)
	if err != nil {
		return fmt.Sprintf(generatorError, err)
	}
	return answer
}

// Answer is Run with the generator error kept separate. A nil or blank
// docContext means no document is attached.
func (p *Pipeline) Answer(ctx context.Context, query string, docContext *string) (string, error) {
	d := p.classify(ctx, query)
	if d.Has(intent.Greeting) {
		metrics.IncPipelineBranch("greeting")
		return greetingReply, nil
	}

	if docContext != nil && strings.TrimSpace(*docContext) != "" {
		return p.answerWithContext(ctx, query, *docContext, d)
	}

	if d.Has(intent.Price) {
		metrics.IncPipelineBranch("price")
		return p.Cheapest(query), nil
	}

	if d.Has(intent.Alternatives) && d.Subject != "" {
		if reply, ok := p.alternativesReply(d.Subject); ok {
			metrics.IncPipelineBranch("alternatives")
			return reply, nil
		}
	}

	metrics.IncPipelineBranch("general")
	intro := p.preamble(query)
	contextText := p.retrieve(ctx, query)
	var note string
	if d.Has(intent.Symptom) {
		note = disclaimer
	}
	return p.generate(ctx, fmt.Sprintf(answerPrompt, note, intro, contextText, query))
}

func (p *Pipeline) classify(ctx context.Context, query string) *intent.Decision {
	d, err := p.classifier.Classify(ctx, query)
	if err != nil || d == nil {
		logger.Warnf("pipeline: intent classification failed: %v", err)
		d, _ = intent.NewRuleBasedClassifier(nil).Classify(ctx, query)
	}
	return d
}

func (p *Pipeline) answerWithContext(ctx context.Context, query, docContext string, d *intent.Decision) (string, error) {
	if d.Has(intent.Summary) {
		metrics.IncPipelineBranch("summary")
		return p.generate(ctx, fmt.Sprintf(summaryPrompt, docContext, query))
	}

	generics, brands := p.data.MatchNames(query)
	lowerCtx := strings.ToLower(docContext)
	var found []string
	for _, n := range append(generics, brands...) {
		if strings.Contains(lowerCtx, strings.ToLower(n)) {
			found = append(found, n)
		}
	}
	if rows := p.data.RowsFor(found); len(rows) > 0 {
		metrics.IncPipelineBranch("cross_reference")
		details := make([]string, 0, len(rows))
		for _, r := range rows {
			details = append(details, r.Text())
		}
		return p.generate(ctx, fmt.Sprintf(crossReferencePrompt, strings.Join(details, "\n"), query))
	}

	metrics.IncPipelineBranch("context")
	return p.generate(ctx, fmt.Sprintf(contextOnlyPrompt, docContext, query))
}

// Cheapest answers a price question from the dataset.
func (p *Pipeline) Cheapest(query string) string {
	generics, brands := p.data.MatchNames(query)
	names, min, ok := p.data.Cheapest(append(generics, brands...))
	if !ok {
		return noPriceReply
	}
	return fmt.Sprintf(cheapestReply, strings.Join(names, ", "), p.currency, dataset.FormatPrice(min))
}

// Alternatives lists dataset brands with the same composition as brand.
func (p *Pipeline) Alternatives(brand string) ([]dataset.Record, error) {
	return p.data.Alternatives(brand)
}

func (p *Pipeline) alternativesReply(brand string) (string, bool) {
	alts, err := p.Alternatives(brand)
	if errors.Is(err, dataset.ErrDrugNotFound) {
		logger.Debugf("pipeline: %q not in dataset, answering generally", brand)
		return "", false
	}
	if err != nil {
		return err.Error(), true
	}
	lines := make([]string, 0, len(alts))
	for _, a := range alts {
		line := fmt.Sprintf("- %s (%s)", a.BrandName, a.Salt)
		if a.Manufacturer != "" {
			line += " by " + a.Manufacturer
		}
		if a.Price != "" {
			line += ", " + a.Price
		}
		lines = append(lines, line)
	}
	return fmt.Sprintf("Alternatives to %s with the same composition:\n%s", brand, strings.Join(lines, "\n")), true
}

// preamble names the dataset medicines in the query and the salts of the
// brands among them.
func (p *Pipeline) preamble(query string) string {
	generics, brands := p.data.MatchNames(query)
	if len(generics) == 0 && len(brands) == 0 {
		return ""
	}
	var parts []string
	if len(generics) > 0 {
		parts = append(parts, "generic medicine(s): "+strings.Join(generics, ", "))
	}
	if len(brands) > 0 {
		parts = append(parts, "brand name(s): "+strings.Join(brands, ", "))
	}
	salts := make([]string, 0, len(brands))
	for _, b := range brands {
		if s, ok := p.data.Salts(b); ok {
			salts = append(salts, fmt.Sprintf("Brand '%s' contains salt(s): %s", b, s))
		} else {
			salts = append(salts, fmt.Sprintf("Brand '%s' has no salt information available.", b))
		}
	}
	return "Note: Query includes " + strings.Join(parts, ", ") + ".\n" + strings.Join(salts, "\n") + "\n"
}

// Search returns the budgeted chunks for query.
func (p *Pipeline) Search(ctx context.Context, query string) ([]string, error) {
	if p.store == nil {
		return nil, retriever.ErrRetrievalEmpty
	}
	chunks, err := p.store.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	chunks = retriever.Accumulate(chunks, p.budget)
	if len(chunks) == 0 {
		return nil, retriever.ErrRetrievalEmpty
	}
	return chunks, nil
}

func (p *Pipeline) retrieve(ctx context.Context, query string) string {
	chunks, err := p.Search(ctx, query)
	if err != nil {
		if !errors.Is(err, retriever.ErrRetrievalEmpty) {
			logger.Warnf("pipeline: retrieval failed: %v", err)
		}
		return noContextText
	}
	return strings.Join(chunks, "\n")
}

func (p *Pipeline) generate(ctx context.Context, prompt string) (string, error) {
	if p.gen == nil {
		return "", errors.New("no generator configured")
	}
	out, err := p.gen.GenerateCompletion(ctx, prompt, llm.WithMaxTokens(p.maxTokens))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
