package discover

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/btraven00/refsift/internal/refparse"
)

const defaultCrossrefURL = "https://api.crossref.org"

// crossrefResponse mirrors the parts of the works API answer we consume.
type crossrefResponse struct {
	Message struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	Title          []string         `json:"title"`
	Author         []crossrefAuthor `json:"author"`
	Issued         crossrefDate     `json:"issued"`
	DOI            string           `json:"DOI"`
	ContainerTitle []string         `json:"container-title"`
	Publisher      string           `json:"publisher"`
	Type           string           `json:"type"`
	ISBN           []string         `json:"ISBN"`
	URL            string           `json:"URL"`
	Volume         string           `json:"volume"`
	Issue          string           `json:"issue"`
	Page           string           `json:"page"`
}

type crossrefAuthor struct {
	Family string `json:"family"`
	Given  string `json:"given"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

func (d crossrefDate) year() int {
	if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 {
		return d.DateParts[0][0]
	}
	return 0
}

// CrossrefSource searches the Crossref works API. Crossref covers DOIs
// across publishers and is the strongest corroboration source for journal
// and conference material.
type CrossrefSource struct {
	client  *resty.Client
	limiter *rate.Limiter
	baseURL string
}

// NewCrossrefSource creates a client for the public Crossref API.
func NewCrossrefSource() *CrossrefSource {
	client := resty.New().
		SetTimeout(20 * time.Second).
		SetHeader("User-Agent", apiUserAgent)

	return &CrossrefSource{
		client: client,
		// Crossref's polite pool allows far more, but extraction batches
		// should not look like scraping runs.
		limiter: rate.NewLimiter(rate.Limit(2), 2),
		baseURL: defaultCrossrefURL,
	}
}

func (s *CrossrefSource) Name() string { return "crossref" }

// Search queries query.bibliographic, which matches against the whole
// citation string rather than title alone.
func (s *CrossrefSource) Search(ctx context.Context, query string, limit int) ([]refparse.ParsedReference, error) {
	if limit < 1 {
		limit = 5
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body crossrefResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query.bibliographic": query,
			"rows":                strconv.Itoa(limit),
		}).
		SetResult(&body).
		Get(s.baseURL + "/works")
	if err != nil {
		return nil, fmt.Errorf("crossref search failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("crossref search returned status %d", resp.StatusCode())
	}

	refs := make([]refparse.ParsedReference, 0, len(body.Message.Items))
	for i, item := range body.Message.Items {
		refs = append(refs, s.mapItem(item, i))
	}
	return refs, nil
}

func (s *CrossrefSource) mapItem(item crossrefItem, index int) refparse.ParsedReference {
	ref := refparse.ParsedReference{
		Year:   item.Issued.year(),
		Volume: item.Volume,
		Issue:  item.Issue,
		Pages:  item.Page,
		Type:   crossrefType(item.Type),
		Provenance: refparse.Provenance{
			Source: s.Name(),
			Rule:   "works_api",
			Index:  index,
		},
	}

	if len(item.Title) > 0 {
		ref.Title = item.Title[0]
	}
	for _, a := range item.Author {
		switch {
		case a.Family != "" && a.Given != "":
			ref.Authors = append(ref.Authors, a.Family+", "+a.Given)
		case a.Family != "":
			ref.Authors = append(ref.Authors, a.Family)
		}
	}
	if len(item.ContainerTitle) > 0 {
		ref.Venue = item.ContainerTitle[0]
	} else if item.Publisher != "" && ref.Type == refparse.TypeBook {
		ref.Venue = item.Publisher
	}

	ref.Identifiers.DOI = strings.ToLower(item.DOI)
	if len(item.ISBN) > 0 {
		ref.Identifiers.ISBN = item.ISBN[0]
	}
	if item.URL != "" && ref.Identifiers.DOI == "" {
		ref.Identifiers.URL = item.URL
	}

	ref.FieldConf = fieldConf(&ref)
	ref.Confidence = hitConfidence(&ref)
	return ref
}

func crossrefType(apiType string) refparse.ReferenceType {
	switch apiType {
	case "journal-article":
		return refparse.TypeJournal
	case "book", "monograph", "edited-book", "book-chapter":
		return refparse.TypeBook
	case "proceedings-article":
		return refparse.TypeConference
	case "dissertation":
		return refparse.TypeThesis
	case "report":
		return refparse.TypeReport
	default:
		return refparse.TypeUnknown
	}
}
