package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eryajf/medqa/internal/model"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fakeEmbedder 确定性向量生成器
// 向量由文本哈希派生,相同文本产生相同向量
type fakeEmbedder struct {
	failOn     string // 匹配此子串的文本返回错误
	calls      int
	batchCalls int
}

func (f *fakeEmbedder) vector(text string) []float64 {
	vec := make([]float64, 8)
	for i, r := range text {
		vec[i%8] += float64(r)
	}
	return vec
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.calls++
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("embedding backend unavailable")
	}
	return f.vector(text), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	f.batchCalls++
	vectors := make([][]float64, 0, len(texts))
	for _, text := range texts {
		if f.failOn != "" && strings.Contains(text, f.failOn) {
			return nil, errors.New("embedding backend unavailable")
		}
		vectors = append(vectors, f.vector(text))
	}
	return vectors, nil
}

func (f *fakeEmbedder) GetModel() string {
	return "fake-embedding-model"
}

func testManager(t *testing.T) (*Manager, *fakeEmbedder) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	embedder := &fakeEmbedder{}
	m := NewManager(db, embedder, "test_articles")
	if err := m.EnsureCollection(false); err != nil {
		t.Fatalf("EnsureCollection() error: %v", err)
	}
	return m, embedder
}

func testDoc(pmid, text string) Document {
	return Document{
		PMID:     pmid,
		FullText: text,
		Metadata: Metadata{
			PMID:                pmid,
			Title:               "Title " + pmid,
			Journal:             "Journal " + pmid,
			Year:                "2022",
			PublicationDate:     "2022-01",
			StudyType:           "clinical_trial",
			ArticleTypes:        "Clinical Trial",
			HealthcareRelevance: 0.8,
		},
	}
}

func TestAddDocumentsBatching(t *testing.T) {
	m, embedder := testManager(t)
	ctx := context.Background()

	docs := make([]Document, 150)
	for i := range docs {
		docs[i] = testDoc(fmt.Sprintf("%d", i+1), fmt.Sprintf("document body %d about diabetes", i+1))
	}

	added, err := m.AddDocuments(ctx, docs, 100)
	if err != nil {
		t.Fatalf("AddDocuments() error: %v", err)
	}
	if added != 150 {
		t.Errorf("added = %d, want 150", added)
	}
	if embedder.batchCalls != 2 {
		t.Errorf("embedder batch calls = %d, want one per batch", embedder.batchCalls)
	}
	if embedder.calls != 0 {
		t.Errorf("embedder per-document calls = %d, want 0 when batching succeeds", embedder.calls)
	}

	stats, err := m.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalDocuments != 150 {
		t.Errorf("TotalDocuments = %d, want 150", stats.TotalDocuments)
	}
}

func TestAddDocumentsUpsert(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()

	if _, err := m.AddDocuments(ctx, []Document{testDoc("42", "original text")}, 10); err != nil {
		t.Fatalf("AddDocuments() error: %v", err)
	}
	if _, err := m.AddDocuments(ctx, []Document{testDoc("42", "replacement text")}, 10); err != nil {
		t.Fatalf("AddDocuments() error: %v", err)
	}

	stats, err := m.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalDocuments != 1 {
		t.Errorf("TotalDocuments = %d, want 1 (same PMID overwrites)", stats.TotalDocuments)
	}
}

func TestAddDocumentsEmbeddingFailureStillStores(t *testing.T) {
	m, embedder := testManager(t)
	embedder.failOn = "broken"
	ctx := context.Background()

	added, err := m.AddDocuments(ctx, []Document{
		testDoc("1", "healthy document"),
		testDoc("2", "broken document"),
	}, 10)
	if err != nil {
		t.Fatalf("AddDocuments() error: %v", err)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2 (failed embedding still stores the chunk)", added)
	}

	// 无向量的块不参与检索
	embedder.failOn = ""
	results, err := m.Search(ctx, "healthy document", 10, nil)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "pmid_1" {
		t.Errorf("Search() = %v, want only the embedded chunk", results)
	}
}

func TestAddDocumentsWriteFailureDoesNotAbort(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()

	// 底层表被删除后每个批次写入都失败,但 AddDocuments 只记录日志并继续
	if err := m.db.Migrator().DropTable(&model.ArticleChunk{}); err != nil {
		t.Fatalf("DropTable() error: %v", err)
	}

	docs := []Document{
		testDoc("1", "first document"),
		testDoc("2", "second document"),
		testDoc("3", "third document"),
	}
	added, err := m.AddDocuments(ctx, docs, 2)
	if err != nil {
		t.Fatalf("AddDocuments() error: %v, want nil (failed batches are logged, not returned)", err)
	}
	if added != 0 {
		t.Errorf("added = %d, want 0 when every batch fails", added)
	}

	// 表恢复后同一管理器可继续写入
	if err := m.EnsureCollection(false); err != nil {
		t.Fatalf("EnsureCollection() error: %v", err)
	}
	added, err = m.AddDocuments(ctx, docs, 2)
	if err != nil {
		t.Fatalf("AddDocuments() after recovery error: %v", err)
	}
	if added != 3 {
		t.Errorf("added = %d, want 3 after recovery", added)
	}
}

func TestSearchOrdering(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()

	docs := []Document{
		testDoc("1", "diabetes treatment and insulin therapy"),
		testDoc("2", "completely unrelated astronomy text"),
		testDoc("3", "diabetes treatment and insulin therapy outcomes"),
	}
	if _, err := m.AddDocuments(ctx, docs, 10); err != nil {
		t.Fatalf("AddDocuments() error: %v", err)
	}

	results, err := m.Search(ctx, "diabetes treatment and insulin therapy", 3, nil)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Search() returned %d results, want 3", len(results))
	}

	// 距离升序
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Errorf("results not sorted by ascending distance: %v", results)
		}
	}
	// 与查询完全一致的文档距离最小
	if results[0].ID != "pmid_1" {
		t.Errorf("closest result = %s, want pmid_1 (identical text)", results[0].ID)
	}
}

func TestSearchTopK(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()

	var docs []Document
	for i := 1; i <= 5; i++ {
		docs = append(docs, testDoc(fmt.Sprintf("%d", i), fmt.Sprintf("document %d", i)))
	}
	if _, err := m.AddDocuments(ctx, docs, 10); err != nil {
		t.Fatalf("AddDocuments() error: %v", err)
	}

	results, err := m.Search(ctx, "document", 2, nil)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Search() returned %d results, want 2", len(results))
	}
}

func TestSearchEmptyCollection(t *testing.T) {
	m, _ := testManager(t)

	results, err := m.Search(context.Background(), "anything", 5, nil)
	if err != nil {
		t.Fatalf("Search() error: %v, want nil (zero matches is not an error)", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() = %v, want empty", results)
	}
}

func TestSearchEmbeddingFailureIsStorageError(t *testing.T) {
	m, embedder := testManager(t)
	embedder.failOn = "doomed"

	_, err := m.Search(context.Background(), "doomed query", 5, nil)
	if err == nil {
		t.Fatal("Search() succeeded despite embedding failure")
	}
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("error type = %T, want *StorageError", err)
	}
}

func TestSearchFilter(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()

	rct := testDoc("1", "an rct about diabetes")
	rct.Metadata.StudyType = "randomized_controlled_trial"
	cohort := testDoc("2", "a cohort study about diabetes")
	cohort.Metadata.StudyType = "cohort_study"

	if _, err := m.AddDocuments(ctx, []Document{rct, cohort}, 10); err != nil {
		t.Fatalf("AddDocuments() error: %v", err)
	}

	results, err := m.Search(ctx, "diabetes", 10, map[string]string{
		"study_type": "randomized_controlled_trial",
		"bogus":      "ignored", // 不支持的过滤字段被忽略
	})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "pmid_1" {
		t.Errorf("Search() = %v, want only the rct chunk", results)
	}
}

func TestStats(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()

	a := testDoc("1", "text a")
	a.Metadata.Journal = "Journal A"
	a.Metadata.PublicationDate = "2021-05"
	a.Metadata.ArticleTypes = "Clinical Trial, Journal Article"
	b := testDoc("2", "text b")
	b.Metadata.Journal = "Journal B"
	b.Metadata.PublicationDate = "2022 Nov-Dec" // 非标准年份,不计入
	b.Metadata.ArticleTypes = "Review"

	if _, err := m.AddDocuments(ctx, []Document{a, b}, 10); err != nil {
		t.Fatalf("AddDocuments() error: %v", err)
	}

	stats, err := m.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalDocuments != 2 {
		t.Errorf("TotalDocuments = %d, want 2", stats.TotalDocuments)
	}
	if stats.UniqueJournals != 2 {
		t.Errorf("UniqueJournals = %d, want 2", stats.UniqueJournals)
	}
	if len(stats.PublicationYears) != 1 || stats.PublicationYears[0] != "2021" {
		t.Errorf("PublicationYears = %v, want [2021]", stats.PublicationYears)
	}
	if len(stats.ArticleTypes) != 3 {
		t.Errorf("ArticleTypes = %v, want 3 distinct types", stats.ArticleTypes)
	}
	if stats.CollectionName != "test_articles" {
		t.Errorf("CollectionName = %q", stats.CollectionName)
	}
}

func TestDeleteDocuments(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()

	if _, err := m.AddDocuments(ctx, []Document{testDoc("1", "a"), testDoc("2", "b")}, 10); err != nil {
		t.Fatalf("AddDocuments() error: %v", err)
	}

	deleted, err := m.DeleteDocuments(ctx, []string{"pmid_1", "pmid_missing"})
	if err != nil {
		t.Fatalf("DeleteDocuments() error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestUpdateDocument(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()

	if _, err := m.AddDocuments(ctx, []Document{testDoc("1", "old text")}, 10); err != nil {
		t.Fatalf("AddDocuments() error: %v", err)
	}

	meta := testDoc("1", "").Metadata
	meta.Title = "Updated Title"
	if err := m.UpdateDocument(ctx, "pmid_1", "new text", meta); err != nil {
		t.Fatalf("UpdateDocument() error: %v", err)
	}

	results, err := m.Search(ctx, "new text", 1, nil)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 || results[0].Content != "new text" {
		t.Fatalf("Search() after update = %v", results)
	}
	if results[0].Metadata.Title != "Updated Title" {
		t.Errorf("Title = %q, want Updated Title", results[0].Metadata.Title)
	}

	if err := m.UpdateDocument(ctx, "pmid_missing", "text", meta); err == nil {
		t.Error("UpdateDocument() succeeded for missing document")
	}
}

func TestReset(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()

	if _, err := m.AddDocuments(ctx, []Document{testDoc("1", "a")}, 10); err != nil {
		t.Fatalf("AddDocuments() error: %v", err)
	}

	if err := m.Reset(ctx); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	stats, err := m.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalDocuments != 0 {
		t.Errorf("TotalDocuments after reset = %d, want 0", stats.TotalDocuments)
	}

	// 对空集合幂等
	if err := m.Reset(ctx); err != nil {
		t.Errorf("Reset() on empty collection error: %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()

	docs := []Document{
		testDoc("1", "first document about diabetes"),
		testDoc("2", "second document about obesity"),
	}
	if _, err := m.AddDocuments(ctx, docs, 10); err != nil {
		t.Fatalf("AddDocuments() error: %v", err)
	}

	exportPath := filepath.Join(t.TempDir(), "export.json")
	if err := m.Export(ctx, exportPath); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	if err := m.Reset(ctx); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}

	imported, err := m.Import(ctx, exportPath)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if imported != 2 {
		t.Errorf("imported = %d, want 2", imported)
	}

	results, err := m.Search(ctx, "first document about diabetes", 1, nil)
	if err != nil {
		t.Fatalf("Search() after import error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "pmid_1" {
		t.Fatalf("Search() after import = %v, want pmid_1", results)
	}
	if results[0].Metadata.HealthcareRelevance != 0.8 {
		t.Errorf("HealthcareRelevance = %v, metadata lost in round trip", results[0].Metadata.HealthcareRelevance)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"dimension mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}
