// Package websearch provides the research pipeline's gathering services:
// a SearxNG-compatible metasearch client and an HTML page fetcher that
// reduces pages to readable text. Both degrade gracefully; the pipeline
// treats their failures as missing evidence, not fatal errors.
package websearch
