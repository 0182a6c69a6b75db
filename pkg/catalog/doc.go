// Package catalog fetches the items that labels are printed for.
//
// The catalog is the list of Magic: The Gathering sets published by the
// Scryfall API together with the card symbology used for the "types" view.
// A [Source] talks to the remote API; a [Fetcher] puts the cache tiers of
// [cache.Manager] in front of it so that repeated requests do not hit the
// network.
//
// # Fetching Sets
//
//	src := catalog.NewScryfallClient()
//	f := catalog.NewFetcher(src, mgr)
//	res, err := f.Sets(ctx)
//	if err != nil {
//	    return err // SOURCE_UNAVAILABLE, nothing cached
//	}
//	if res.Status == catalog.Stale {
//	    log.Warn("serving stale catalog", "cached_at", res.CachedAt)
//	}
//
// # Filtering
//
// [Filter] reduces the raw listing to physical sets worth a divider label,
// [Group] buckets them by set type and [Abbreviate] shortens long names so
// they fit on one label line.
package catalog
