package pubmed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eryajf/medqa/internal/config"
)

const searchResponse = `<?xml version="1.0"?>
<eSearchResult>
  <Count>2</Count>
  <IdList>
    <Id>11111</Id>
    <Id>22222</Id>
  </IdList>
</eSearchResult>`

const errorResponse = `<?xml version="1.0"?>
<eSearchResult>
  <ERROR>Invalid db name specified</ERROR>
</eSearchResult>`

const fetchResponse = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>11111</PMID>
      <Article>
        <Journal>
          <Title>Journal of Testing</Title>
          <JournalIssue><PubDate><Year>2022</Year><Month>03</Month><Day>15</Day></PubDate></JournalIssue>
        </Journal>
        <ArticleTitle>Diabetes outcomes study</ArticleTitle>
        <Abstract>
          <AbstractText Label="BACKGROUND">Some context.</AbstractText>
          <AbstractText Label="RESULTS">Some findings.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author><LastName>Smith</LastName></Author>
          <Author><LastName>Chen</LastName></Author>
        </AuthorList>
        <PublicationTypeList>
          <PublicationType>Randomized Controlled Trial</PublicationType>
        </PublicationTypeList>
      </Article>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">11111</ArticleId>
        <ArticleId IdType="doi">10.1000/test.2022</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>22222</PMID>
    </MedlineCitation>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <Article><ArticleTitle>Record without PMID</ArticleTitle></Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func testRetriever(baseURL string) *Retriever {
	r := NewRetriever(&config.PubMedConfig{
		BaseURL:        baseURL,
		ToolName:       "medqa-test",
		MaxRetries:     1,
		RateLimitDelay: 0.01,
		MaxArticles:    20,
	})
	r.backoffBase = time.Millisecond
	return r
}

func TestSearchArticles(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Query().Get("db"))
		_, _ = w.Write([]byte(searchResponse))
	}))
	defer server.Close()

	r := testRetriever(server.URL)
	ids, err := r.SearchArticles(context.Background(), "diabetes", 10)
	if err != nil {
		t.Fatalf("SearchArticles() error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "11111" || ids[1] != "22222" {
		t.Errorf("SearchArticles() = %v, want [11111 22222]", ids)
	}
	// 首个 db 形态成功即返回
	if len(requests) != 1 || requests[0] != "pubmed" {
		t.Errorf("requests = %v, want single db=pubmed request", requests)
	}
}

func TestSearchArticlesDBFallback(t *testing.T) {
	var dbs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		db := r.URL.Query().Get("db")
		dbs = append(dbs, db)
		// db=pubmed 在响应体里报错,db=pmc 成功
		if db == "pubmed" {
			_, _ = w.Write([]byte(errorResponse))
			return
		}
		_, _ = w.Write([]byte(searchResponse))
	}))
	defer server.Close()

	r := testRetriever(server.URL)
	ids, err := r.SearchArticles(context.Background(), "diabetes", 10)
	if err != nil {
		t.Fatalf("SearchArticles() error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("SearchArticles() = %v, want 2 ids from fallback", ids)
	}
	if len(dbs) != 2 || dbs[0] != "pubmed" || dbs[1] != "pmc" {
		t.Errorf("db attempts = %v, want [pubmed pmc]", dbs)
	}
}

func TestSearchArticlesAllFailuresReturnEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	r := testRetriever(server.URL)
	ids, err := r.SearchArticles(context.Background(), "diabetes", 5)
	if err != nil {
		t.Fatalf("SearchArticles() error: %v, want nil (empty result, not error)", err)
	}
	if len(ids) != 0 {
		t.Errorf("SearchArticles() = %v, want empty", ids)
	}
}

func TestSearchArticlesMaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchResponse))
	}))
	defer server.Close()

	r := testRetriever(server.URL)
	ids, err := r.SearchArticles(context.Background(), "diabetes", 1)
	if err != nil {
		t.Fatalf("SearchArticles() error: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("SearchArticles() returned %d ids, want 1 (truncated)", len(ids))
	}
}

func TestMakeRequestRetries(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(searchResponse))
	}))
	defer server.Close()

	r := testRetriever(server.URL)
	body, err := r.makeRequest(context.Background(), server.URL+"/esearch.fcgi", nil)
	if err != nil {
		t.Fatalf("makeRequest() error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if !strings.Contains(string(body), "<Id>11111</Id>") {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchResponse))
	}))
	defer server.Close()

	r := testRetriever(server.URL)
	r.rateLimit = 50 * time.Millisecond

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := r.makeRequest(context.Background(), server.URL+"/esearch.fcgi", nil); err != nil {
			t.Fatalf("makeRequest() error: %v", err)
		}
	}
	// 三次请求至少有两个完整的限速间隔
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("3 requests took %v, want >= 100ms under rate limiting", elapsed)
	}
}

func TestFetchArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fetchResponse))
	}))
	defer server.Close()

	r := testRetriever(server.URL)
	articles, err := r.FetchArticles(context.Background(), []string{"11111", "22222"})
	if err != nil {
		t.Fatalf("FetchArticles() error: %v", err)
	}
	// 无 PMID 的第三条记录被丢弃
	if len(articles) != 2 {
		t.Fatalf("FetchArticles() returned %d articles, want 2", len(articles))
	}

	full := articles[0]
	if full.PMID != "11111" {
		t.Errorf("PMID = %q, want 11111", full.PMID)
	}
	if full.Title != "Diabetes outcomes study" {
		t.Errorf("Title = %q", full.Title)
	}
	if full.Journal != "Journal of Testing" {
		t.Errorf("Journal = %q", full.Journal)
	}
	if full.Authors != "Smith, Chen" {
		t.Errorf("Authors = %q, want last names joined", full.Authors)
	}
	if full.PublicationDate != "2022-03-15" {
		t.Errorf("PublicationDate = %q, want 2022-03-15", full.PublicationDate)
	}
	if full.DOI != "10.1000/test.2022" {
		t.Errorf("DOI = %q", full.DOI)
	}
	if full.Abstract["BACKGROUND"] != "Some context." || full.Abstract["RESULTS"] != "Some findings." {
		t.Errorf("Abstract = %v", full.Abstract)
	}

	// 字段缺失的记录应用安全默认值
	sparse := articles[1]
	if sparse.Title != "No Title" {
		t.Errorf("sparse Title = %q, want No Title", sparse.Title)
	}
	if sparse.Journal != "Unknown Journal" {
		t.Errorf("sparse Journal = %q, want Unknown Journal", sparse.Journal)
	}
	if sparse.Authors != "No Authors" {
		t.Errorf("sparse Authors = %q, want No Authors", sparse.Authors)
	}
	if sparse.Abstract["SUMMARY"] != "No Abstract" {
		t.Errorf("sparse Abstract = %v, want SUMMARY default", sparse.Abstract)
	}
	if sparse.PublicationDate != "Unknown Date" {
		t.Errorf("sparse PublicationDate = %q, want Unknown Date", sparse.PublicationDate)
	}
}

func TestFetchArticlesEmptyInput(t *testing.T) {
	r := testRetriever("http://unused.invalid")
	articles, err := r.FetchArticles(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchArticles() error: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("FetchArticles(nil) = %v, want empty", articles)
	}
}

func TestExtractPublicationDate(t *testing.T) {
	tests := []struct {
		name string
		date pubDate
		want string
	}{
		{"full date", pubDate{Year: "2022", Month: "03", Day: "15"}, "2022-03-15"},
		{"year and month", pubDate{Year: "2022", Month: "03"}, "2022-03"},
		{"year only", pubDate{Year: "2022"}, "2022"},
		{"day without month ignored", pubDate{Year: "2022", Day: "15"}, "2022"},
		{"medline date fallback", pubDate{MedlineDate: "2021 Nov-Dec"}, "2021 Nov-Dec"},
		{"empty", pubDate{}, "Unknown Date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractPublicationDate(tt.date); got != tt.want {
				t.Errorf("extractPublicationDate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSearchResultAPIError(t *testing.T) {
	_, err := parseSearchResult([]byte(errorResponse))
	if err == nil {
		t.Fatal("parseSearchResult() accepted ERROR payload")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.Message != "Invalid db name specified" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}
