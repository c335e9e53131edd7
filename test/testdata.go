package test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
)

// referenceSectionDoc is a small article body with a well-formed APA
// reference list, enough prose ahead of it that section detection has
// something to skip.
const referenceSectionDoc = `Extracting Structured Citations at Scale

Abstract

This study examines automated citation extraction methodology across a
corpus of scholarly documents. The experiment measures precision and
recall of the reference parser against a manually curated baseline, and
the analysis discusses the dominant failure modes of each citation style.

1. Introduction

Bibliographies are the connective tissue of the research literature, yet
most of them exist only as formatted text. Turning that text back into
structured records requires locating the reference section, splitting it
into individual citations, and parsing each one.

References

Leonardi, P. M. (2012). Car Crashes Without Cars. MIT Press.
Provost, F., & Fawcett, T. (2013). Data Science for Business. O'Reilly Media.
Smith, J. A. (2019). Parsing strategies for noisy text. Journal of Documentation, 45(3), 100-110.
`

// urlCitationDoc embeds web citations whose URLs point at a test server;
// the %s placeholders take the server base URL.
const urlCitationDoc = `Working Notes

References

Miller, K. (2021). An online handbook of methods. Retrieved from %s/handbook
Garcia, L. (2020). A resource that has since vanished. Retrieved from %s/gone
`

// newResolverServer returns a server standing in for the web targets of
// citations: /handbook resolves, /gone definitively does not.
func newResolverServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/handbook", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	return httptest.NewServer(mux)
}
