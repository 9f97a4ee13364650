// Package aidispatcher composes persona-appropriate prompts, selects a
// model provider with one-shot failover, filters responses, and enforces
// the cache-before-rate-limiter ordering of spec.md §4.5.
package aidispatcher

import (
	"context"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/jonesy-ops/ash/internal/aicache"
	"github.com/jonesy-ops/ash/internal/aierrors"
	"github.com/jonesy-ops/ash/internal/aiprovider"
	"github.com/jonesy-ops/ash/internal/config"
	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/platform"
	"github.com/jonesy-ops/ash/internal/ratelimit"
)

const maxResponseSentences = 4

// tokenEncoding is the tiktoken encoding used to estimate prompt cost for
// logging; it is an estimate only, since neither provider SDK here
// guarantees an identical tokenizer.
const tokenEncoding = "cl100k_base"

// Request is one completion request routed through the dispatcher.
type Request struct {
	UserID       string
	Tier         platform.Tier
	Priority     model.Priority
	Prompt       string
	QueryType    model.QueryType
	CatalogFacts string // injected only when the caller determines this is a catalog-adjacent question
}

// Response is the dispatcher's outcome, tagged with the five-state
// taxonomy of spec.md §4.5.
type Response struct {
	Outcome   aierrors.Outcome
	Text      string
	TraceID   string
	FromCache bool
}

// Dispatcher fronts a primary and backup Provider.
type Dispatcher struct {
	primary  aiprovider.Provider
	backup   aiprovider.Provider
	cache    *aicache.Cache
	limiter  *ratelimit.Limiter
	personas config.Personas
	log      zerolog.Logger
	enc      *tiktoken.Tiktoken

	enabled bool
}

// New constructs a Dispatcher. backup may be nil, in which case failover
// degrades to a plain upstream_error.
func New(primary, backup aiprovider.Provider, cache *aicache.Cache, limiter *ratelimit.Limiter, personas config.Personas, log zerolog.Logger) *Dispatcher {
	enc, _ := tiktoken.GetEncoding(tokenEncoding)
	return &Dispatcher{
		primary:  primary,
		backup:   backup,
		cache:    cache,
		limiter:  limiter,
		personas: personas,
		log:      log,
		enc:      enc,
		enabled:  true,
	}
}

// SetEnabled toggles the dispatcher on or off (the `toggleai` operator
// command of spec.md §6); while disabled every request returns
// OutcomeDisabled without touching the cache, rate limiter, or a provider.
func (d *Dispatcher) SetEnabled(enabled bool) { d.enabled = enabled }

// Dispatch executes req end to end: cache lookup, rate-limit check,
// provider call with one-shot failover, and response filtering.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	traceID := xid.New().String()
	log := d.log.With().Str("trace_id", traceID).Str("user_id", req.UserID).Logger()

	if !d.enabled {
		return Response{Outcome: aierrors.OutcomeDisabled, TraceID: traceID}
	}

	persona := d.personas.For(req.Tier)
	system := composeSystemPrompt(persona, req.Tier, req.CatalogFacts)

	if entry, ok := d.cache.Lookup(req.Prompt); ok {
		log.Debug().Msg("aidispatcher: cache hit")
		return Response{Outcome: aierrors.OutcomeOK, Text: entry.Response, TraceID: traceID, FromCache: true}
	}

	decision := d.limiter.Check(req.UserID, req.Priority)
	if !decision.Allow {
		log.Info().Str("reason", decision.Reason).Dur("retry_after", decision.RetryAfter).Msg("aidispatcher: rate limited")
		return Response{Outcome: aierrors.OutcomeQuotaExhausted, TraceID: traceID}
	}

	params := aiprovider.GenerateParams{
		SystemPrompt: system,
		Messages:     []aiprovider.Message{{Role: aiprovider.RoleUser, Content: req.Prompt}},
	}
	if d.enc != nil {
		log = log.With().Int("estimated_prompt_tokens", len(d.enc.Encode(system+req.Prompt, nil, nil))).Logger()
	}

	text, outcome := d.generateWithFailover(ctx, params, log)
	if outcome != aierrors.OutcomeOK {
		return Response{Outcome: outcome, TraceID: traceID}
	}

	filtered := filterResponse(text, persona.DeniedPhrases)
	d.cache.Set(req.Prompt, filtered, req.QueryType)
	return Response{Outcome: aierrors.OutcomeOK, Text: filtered, TraceID: traceID}
}

// generateWithFailover calls the primary provider, failing over to backup
// at most once on any error (spec.md §4.5's failover triggers: timeout,
// rate-limit, quota-exhausted, or any exception).
func (d *Dispatcher) generateWithFailover(ctx context.Context, params aiprovider.GenerateParams, log zerolog.Logger) (string, aierrors.Outcome) {
	if d.primary != nil {
		resp, err := d.generate(ctx, d.primary, params)
		if err == nil {
			return resp.Content, aierrors.OutcomeOK
		}
		log.Warn().Err(err).Str("provider", d.primary.Name()).Msg("aidispatcher: primary provider failed, attempting failover")
	}

	if d.backup == nil {
		return "", aierrors.OutcomeUpstreamError
	}
	resp, err := d.generate(ctx, d.backup, params)
	if err != nil {
		log.Error().Err(err).Str("provider", d.backup.Name()).Msg("aidispatcher: backup provider also failed")
		return "", aierrors.Classify(err)
	}
	return resp.Content, aierrors.OutcomeOK
}

func (d *Dispatcher) generate(ctx context.Context, p aiprovider.Provider, params aiprovider.GenerateParams) (*aiprovider.GenerateResponse, error) {
	params.Model = ""
	return p.Generate(ctx, params)
}

// composeSystemPrompt builds the persona block plus tier-dependent addenda
// of spec.md §4.5, and injects catalog facts only when the caller supplied
// them (i.e. the classifier identified a catalog-adjacent question).
func composeSystemPrompt(persona config.Persona, tier platform.Tier, catalogFacts string) string {
	var b strings.Builder
	b.WriteString(persona.SystemPrompt)
	b.WriteString("\n\n")
	switch tier {
	case platform.TierStreamer:
		b.WriteString("You are speaking with the streamer. Use deferential, warm phrasing.")
	case platform.TierCreator:
		b.WriteString("You are speaking with the content creator behind this community. Acknowledge their role.")
	case platform.TierOperator:
		b.WriteString("You are speaking with a moderator. Use professional, concise phrasing.")
	default:
		b.WriteString("Use neutral, friendly phrasing.")
	}
	if catalogFacts != "" {
		b.WriteString("\n\nRelevant catalog facts:\n")
		b.WriteString(catalogFacts)
	}
	return b.String()
}

// filterResponse applies spec.md §4.5's three response filters in order:
// sentence dedup, a 4-sentence cap, then denied-phrase dedup.
func filterResponse(text string, deniedPhrases []string) string {
	sentences := splitSentences(text)
	sentences = dedupSentences(sentences)
	if len(sentences) > maxResponseSentences {
		sentences = sentences[:maxResponseSentences]
	}
	joined := strings.Join(sentences, " ")
	return dedupDeniedPhrases(joined, deniedPhrases)
}

func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder
	for _, r := range text {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(cur.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			cur.Reset()
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

func dedupSentences(sentences []string) []string {
	seen := make(map[string]bool, len(sentences))
	var out []string
	for _, s := range sentences {
		key := strings.ToLower(strings.TrimSpace(s))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// dedupDeniedPhrases removes every occurrence of each denied phrase beyond
// its first in text, case-insensitively.
func dedupDeniedPhrases(text string, deniedPhrases []string) string {
	for _, phrase := range deniedPhrases {
		if phrase == "" {
			continue
		}
		text = dedupPhraseBeyondFirst(text, phrase)
	}
	return text
}

func dedupPhraseBeyondFirst(text, phrase string) string {
	lower := strings.ToLower(text)
	lowerPhrase := strings.ToLower(phrase)
	first := strings.Index(lower, lowerPhrase)
	if first < 0 {
		return text
	}
	head := text[:first+len(phrase)]
	tail := text[first+len(phrase):]
	for {
		lowerTail := strings.ToLower(tail)
		idx := strings.Index(lowerTail, lowerPhrase)
		if idx < 0 {
			break
		}
		tail = tail[:idx] + tail[idx+len(phrase):]
	}
	return head + tail
}
