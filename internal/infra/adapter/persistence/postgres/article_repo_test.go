package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"yana/internal/domain/entity"
	pg "yana/internal/infra/adapter/persistence/postgres"
)

func artRow(a *entity.Article) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "feed_id", "url", "canonical_url", "name", "content", "published_at",
		"created_at", "author", "external_id", "thumbnail_url", "media_url", "media_type",
		"score", "view_count",
	}).AddRow(
		a.ID, a.FeedID, a.URL, a.CanonicalURL, a.Name, a.Content, a.PublishedAt,
		a.CreatedAt, a.Author, a.ExternalID, a.ThumbnailURL, a.MediaURL, a.MediaType,
		a.Score, a.ViewCount,
	)
}

func TestArticleRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	now := time.Date(2026, 7, 19, 0, 0, 0, 0, time.UTC)
	want := &entity.Article{
		ID: 1, FeedID: 2, URL: "https://example.com/a", CanonicalURL: "https://example.com/a",
		Name: "Go 1.25 released", Content: "<article>body</article>",
		PublishedAt: now, CreatedAt: now,
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, feed_id")).
		WithArgs(int64(1)).
		WillReturnRows(artRow(want))

	repo := pg.NewArticleRepo(db)
	got, err := repo.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_GetByCanonicalURL_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE feed_id = $1 AND canonical_url = $2")).
		WithArgs(int64(5), "https://example.com/missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "feed_id", "url", "canonical_url", "name", "content", "published_at",
			"created_at", "author", "external_id", "thumbnail_url", "media_url", "media_type",
			"score", "view_count",
		}))

	repo := pg.NewArticleRepo(db)
	got, err := repo.GetByCanonicalURL(context.Background(), 5, "https://example.com/missing")
	if err != nil {
		t.Fatalf("GetByCanonicalURL err=%v", err)
	}
	if got != nil {
		t.Fatalf("want nil, got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_ExistsByCanonicalURLBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT canonical_url FROM articles")).
		WithArgs(int64(7), "https://a", "https://b").
		WillReturnRows(sqlmock.NewRows([]string{"canonical_url"}).AddRow("https://a"))

	repo := pg.NewArticleRepo(db)
	got, err := repo.ExistsByCanonicalURLBatch(context.Background(), 7, []string{"https://a", "https://b"})
	if err != nil {
		t.Fatalf("ExistsByCanonicalURLBatch err=%v", err)
	}
	want := map[string]bool{"https://a": true, "https://b": false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO articles")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	repo := pg.NewArticleRepo(db)
	article := &entity.Article{FeedID: 3, URL: "https://example.com/new", Name: "New"}
	if err := repo.Create(context.Background(), article); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if article.ID != 42 {
		t.Fatalf("want ID=42, got %d", article.ID)
	}
	if article.CanonicalURL != "https://example.com/new" {
		t.Fatalf("want canonical url normalized, got %q", article.CanonicalURL)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_Delete_NoMatchingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM articles WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := pg.NewArticleRepo(db)
	if err := repo.Delete(context.Background(), 9); err == nil {
		t.Fatal("want error for no matching row, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
