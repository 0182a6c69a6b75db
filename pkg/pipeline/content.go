package pipeline

import (
	"context"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/labelsheet/pkg/catalog"
	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/layout"
	"github.com/matzehuels/labelsheet/pkg/render"
)

type resolved struct {
	contents map[string]render.Content
	status   catalog.Status
	symbols  int
	warnings []string
}

// resolve builds the label content for every distinct ref on the pages
// and downloads the symbols they need.
func (r *Runner) resolve(ctx context.Context, mode string, req Request, pages []layout.Page) (*resolved, error) {
	refs := distinctRefs(pages)
	res := &resolved{contents: make(map[string]render.Content, len(refs))}
	symbolRefs := make(map[string]string, len(refs))

	var err error
	switch mode {
	case ViewTypes:
		err = r.resolveTypes(ctx, refs, res, symbolRefs)
	default:
		err = r.resolveSets(ctx, refs, req.QRCodes, res, symbolRefs)
	}
	if err != nil {
		return nil, err
	}

	symbols, warnings, err := r.prefetch(ctx, symbolRefs)
	if err != nil {
		return nil, err
	}
	for ref, uri := range symbolRefs {
		if data, ok := symbols[uri]; ok {
			c := res.contents[ref]
			c.Symbol = data
			res.contents[ref] = c
		}
	}
	res.symbols = len(symbols)
	res.warnings = append(res.warnings, warnings...)
	return res, nil
}

func (r *Runner) resolveSets(ctx context.Context, refs []string, qr bool, res *resolved, symbolRefs map[string]string) error {
	sets, err := r.Fetcher.Sets(ctx)
	if err != nil {
		return err
	}
	res.status = sets.Status
	if sets.Status == catalog.Stale {
		res.warnings = append(res.warnings, "catalog is stale, cached at "+sets.CachedAt.Format("2006-01-02 15:04"))
	}

	byID := catalog.Lookup(sets.Value)
	byCode := make(map[string]catalog.Set, len(sets.Value))
	for _, s := range sets.Value {
		byCode[strings.ToLower(s.Code)] = s
	}
	abbrev := catalog.Abbreviations()

	for _, ref := range refs {
		s, ok := byID[ref]
		if !ok {
			s, ok = byCode[strings.ToLower(ref)]
		}
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "unknown set %q", ref)
		}
		c := render.Content{
			Title:    catalog.Abbreviate(s.Name, abbrev, catalog.MaxNameLength),
			Subtitle: s.Subtitle(),
		}
		if qr {
			c.QR = s.ScryfallURI
		}
		res.contents[ref] = c
		if s.IconSVGURI != "" {
			symbolRefs[ref] = s.IconSVGURI
		}
	}
	return nil
}

func (r *Runner) resolveTypes(ctx context.Context, refs []string, res *resolved, symbolRefs map[string]string) error {
	types := make(map[string]catalog.CardType, len(refs))
	for _, ref := range refs {
		ct, ok := catalog.ParseCardType(ref)
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "card type %q must look like Color:Type", ref)
		}
		if _, ok := catalog.ManaSymbol(ct.Color); !ok {
			return errors.New(errors.ErrCodeInvalidInput, "unknown color %q", ct.Color)
		}
		types[ref] = ct
		res.contents[ref] = render.Content{Title: ct.Type, Subtitle: ct.Color}
	}

	sym, err := r.Fetcher.Symbology(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.Logger.Warn("mana symbols unavailable", "err", err)
		res.warnings = append(res.warnings, "mana symbols unavailable")
		return nil
	}
	res.status = sym.Status
	for ref, ct := range types {
		if uri, ok := sym.Value.ManaSymbolURI(ct.Color); ok {
			symbolRefs[ref] = uri
		}
	}
	return nil
}

// prefetch downloads every distinct URI with bounded concurrency. A
// failed download is a warning; only cancellation aborts.
func (r *Runner) prefetch(ctx context.Context, symbolRefs map[string]string) (map[string][]byte, []string, error) {
	var uris []string
	for _, uri := range symbolRefs {
		if !slices.Contains(uris, uri) {
			uris = append(uris, uri)
		}
	}

	var (
		mu       sync.Mutex
		symbols  = make(map[string][]byte, len(uris))
		warnings []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.Prefetch))
	for _, uri := range uris {
		g.Go(func() error {
			data, err := r.Fetcher.Asset(gctx, uri)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.Logger.Warn("symbol unavailable", "uri", uri, "err", err)
				warnings = append(warnings, "symbol unavailable: "+uri)
				return nil
			}
			symbols[uri] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	slices.Sort(warnings)
	return symbols, warnings, nil
}

// distinctRefs returns the occupant refs in order of first appearance.
func distinctRefs(pages []layout.Page) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, p := range pages {
		for _, s := range p.Slots {
			if s.Empty() || seen[s.Occupant.Ref] {
				continue
			}
			seen[s.Occupant.Ref] = true
			refs = append(refs, s.Occupant.Ref)
		}
	}
	return refs
}
