// Package pkg provides the libraries behind labelsheet, a generator of
// printable label sheets for Magic: The Gathering set storage.
//
// # Overview
//
// A label sheet is a PDF laid out on an Avery-style template: a page with
// margins and a grid of equally sized labels. Each label names one set (or
// one card type) and carries its symbol. The pkg directory is organized as:
//
//  1. [template], [units] - Sheet templates, presets and length units
//  2. [layout] - Label positions and the assignment of labels to pages
//  3. [catalog] - Scryfall set data, abbreviations and symbol downloads
//  4. [cache] - Metadata and asset tiers with Redis or file backends
//  5. [render] - PDF drawing of labels, symbols and QR codes
//  6. [pipeline] - Orchestration (validate → paginate → resolve → draw)
//  7. [api], [config] - HTTP API and configuration
//
// # Architecture
//
//	Request (template + selections)
//	         ↓
//	    [template] validate, [layout] paginate
//	         ↓
//	    [catalog] resolve sets, fetch symbols through [cache]
//	         ↓
//	    [render] draw pages
//	         ↓
//	    PDF
//
// Every length is in points (1/72 inch) with the origin at the top-left of
// the page. Other units are converted only at the edges.
package pkg
