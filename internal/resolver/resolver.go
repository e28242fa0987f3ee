// Package resolver implements song-request resolution: grammar parsing and
// the catalog-first fallback chain ending in an external search, with
// asynchronous catalog self-population so repeat requests never pay for a
// second external call.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/kim-jongsoung/tikfind/internal/domain"
	"github.com/kim-jongsoung/tikfind/internal/match"
	"github.com/kim-jongsoung/tikfind/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// similarityThreshold is the minimum normalized title similarity an external
// candidate needs, together with an artist match, to be accepted outright.
const similarityThreshold = 0.4

// requestPattern is the song-request grammar: #title#artist.
var requestPattern = regexp.MustCompile(`#([^#]+)#([^#]+)`)

// Resolver resolves (title, artist) pairs against the catalog and, failing
// that, the external search collaborator.
type Resolver struct {
	catalog domain.CatalogRepository
	search  domain.SearchClient
	clock   clockwork.Clock
	group   singleflight.Group
}

// New creates a resolver over the given catalog and external search client.
func New(catalog domain.CatalogRepository, search domain.SearchClient, clock clockwork.Clock) *Resolver {
	return &Resolver{catalog: catalog, search: search, clock: clock}
}

// Parse extracts a delimited title/artist pair from the request grammar.
// Returns ok=false when the text is not a song request; no queue action
// follows from that.
func (r *Resolver) Parse(text string) (title, artist string, ok bool) {
	m := requestPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	title = strings.TrimSpace(m[1])
	artist = strings.TrimSpace(m[2])
	if title == "" || artist == "" {
		return "", "", false
	}
	return title, artist, true
}

// Resolve runs the fallback chain in strict order, returning on first
// success:
//
//  1. exact case-insensitive title+artist match in the catalog
//  2. exact case-insensitive title-only match
//  3. substring match on title
//  4. keyword/full-text catalog search
//  5. external search across query variants
//
// Catalog hits increment the entry's request counter asynchronously; external
// hits upsert a new catalog entry so the next identical request resolves from
// the catalog. Returns domain.ErrSongNotFound only if the external search
// yields zero candidates across all variants.
func (r *Resolver) Resolve(ctx context.Context, title, artist string) (*domain.ResolvedSong, error) {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)

	if entry, stage, err := r.lookupCatalog(ctx, title, artist); err != nil {
		return nil, err
	} else if entry != nil {
		metrics.ResolverOutcomes.WithLabelValues(stage).Inc()
		r.touchEntry(entry.ExternalMediaID)
		return &domain.ResolvedSong{
			Title:           entry.Title,
			Artist:          entry.Artist,
			ExternalMediaID: entry.ExternalMediaID,
			ThumbnailURL:    entry.ThumbnailURL,
			URL:             watchURL(entry.ExternalMediaID),
			FromCatalog:     true,
		}, nil
	}

	return r.resolveExternal(ctx, title, artist)
}

func (r *Resolver) lookupCatalog(ctx context.Context, title, artist string) (*domain.CatalogEntry, string, error) {
	entry, err := r.catalog.FindExact(ctx, title, artist)
	if err != nil {
		return nil, "", fmt.Errorf("catalog exact lookup: %w", err)
	}
	if entry != nil {
		return entry, "exact", nil
	}

	entry, err = r.catalog.FindByTitle(ctx, title)
	if err != nil {
		return nil, "", fmt.Errorf("catalog title lookup: %w", err)
	}
	if entry != nil {
		return entry, "title", nil
	}

	entry, err = r.catalog.FindTitleSubstring(ctx, title)
	if err != nil {
		return nil, "", fmt.Errorf("catalog substring lookup: %w", err)
	}
	if entry != nil {
		return entry, "substring", nil
	}

	// Keyword search only makes sense with a non-trivial query.
	if len([]rune(title)) >= 3 {
		results, err := r.catalog.SearchKeywords(ctx, title, 5)
		if err != nil {
			return nil, "", fmt.Errorf("catalog keyword search: %w", err)
		}
		if len(results) > 0 {
			return &results[0], "keyword", nil
		}
	}

	return nil, "", nil
}

// queryVariants are tried in order; the first variant returning any candidate
// wins.
func queryVariants(title, artist string) []string {
	base := strings.TrimSpace(title + " " + artist)
	return []string{
		base,
		base + " official",
		base + " MV",
		strings.TrimSpace(artist + " " + title),
	}
}

func (r *Resolver) resolveExternal(ctx context.Context, title, artist string) (*domain.ResolvedSong, error) {
	// Collapse concurrent external resolutions of the same song; the loser of
	// the race reuses the winner's result instead of paying for another call.
	key := strings.ToLower(title) + "\x00" + strings.ToLower(artist)
	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.searchExternal(ctx, title, artist)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ResolvedSong), nil
}

func (r *Resolver) searchExternal(ctx context.Context, title, artist string) (*domain.ResolvedSong, error) {
	var candidates []domain.SearchCandidate
	for _, q := range queryVariants(title, artist) {
		start := r.clock.Now()
		found, err := r.search.Query(ctx, q)
		metrics.ExternalSearchDuration.Observe(r.clock.Since(start).Seconds())
		if err != nil {
			metrics.ResolverOutcomes.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("external search: %w", errors.Join(domain.ErrSearchUnavailable, err))
		}
		if len(found) > 0 {
			candidates = found
			break
		}
	}

	if len(candidates) == 0 {
		metrics.ResolverOutcomes.WithLabelValues("not_found").Inc()
		return nil, domain.ErrSongNotFound
	}

	chosen := candidates[0]
	stage := "external_fallback"
	for _, c := range candidates {
		similarity := match.Similarity(title, c.Title)
		artistMatch := match.ContainsFold(c.ChannelName, artist) || match.ContainsFold(c.Title, artist)
		if similarity >= similarityThreshold && artistMatch {
			chosen = c
			stage = "external"
			break
		}
	}
	metrics.ResolverOutcomes.WithLabelValues(stage).Inc()

	r.populateCatalog(title, artist, chosen)

	return &domain.ResolvedSong{
		Title:           title,
		Artist:          artist,
		ExternalMediaID: chosen.ExternalMediaID,
		ThumbnailURL:    chosen.ThumbnailURL,
		URL:             watchURL(chosen.ExternalMediaID),
		FromCatalog:     false,
	}, nil
}

// touchEntry bumps the request counter in the background. Persistence here is
// best effort; a failure is logged and never reaches the relay path.
func (r *Resolver) touchEntry(externalMediaID string) {
	go func() {
		if err := r.catalog.IncrementRequestCount(context.Background(), externalMediaID); err != nil {
			slog.Error("Failed to increment catalog request count",
				"external_media_id", externalMediaID, "error", err)
		}
	}()
}

// populateCatalog upserts a user-submitted entry so identical future requests
// resolve without an external call. Duplicate-key races are benign: the
// repository treats them as no-ops, first writer wins.
func (r *Resolver) populateCatalog(title, artist string, c domain.SearchCandidate) {
	entry := domain.CatalogEntry{
		ExternalMediaID: c.ExternalMediaID,
		Title:           title,
		Artist:          artist,
		ThumbnailURL:    c.ThumbnailURL,
		Keywords:        match.Tokenize(title + " " + artist),
		Provenance:      domain.ProvenanceUser,
		Popularity:      1,
		RequestCount:    1,
		LastRequestedAt: r.clock.Now(),
		IsActive:        true,
	}
	go func() {
		if err := r.catalog.Upsert(context.Background(), entry); err != nil {
			metrics.CatalogUpsertFailures.Inc()
			slog.Error("Failed to self-populate catalog",
				"external_media_id", entry.ExternalMediaID, "error", err)
		}
	}()
}

func watchURL(externalMediaID string) string {
	return "https://www.youtube.com/watch?v=" + externalMediaID
}
