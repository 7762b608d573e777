package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	cat, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create catalog: %v", err)
	}
	t.Cleanup(func() {
		if err := cat.Close(); err != nil {
			t.Errorf("Failed to close catalog: %v", err)
		}
	})
	return cat
}

func addTestLibrary(t *testing.T, cat *Catalog, slug string, sync bool) Library {
	t.Helper()

	lib := Library{Slug: slug, Name: slug, Path: "/media/" + slug, Sync: sync, Type: "movies"}
	if err := cat.UpsertLibrary(context.Background(), &lib); err != nil {
		t.Fatalf("Failed to upsert library: %v", err)
	}
	return lib
}

func addTestItem(t *testing.T, cat *Catalog, lib Library, path string, isVideo bool) MediaItem {
	t.Helper()

	item := MediaItem{
		LibraryID: lib.ID,
		FilePath:  path,
		Title:     filepath.Base(path),
		Ext:       "mp4",
		IsVideo:   isVideo,
		Size:      100,
	}
	if err := cat.InsertMediaItem(context.Background(), &item); err != nil {
		t.Fatalf("Failed to insert item: %v", err)
	}
	return item
}

func TestUpsertLibraryUpdatesInPlace(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	lib := addTestLibrary(t, cat, "movies", true)
	if lib.ID == 0 {
		t.Fatal("Expected library id to be set")
	}

	updated := Library{Slug: "movies", Name: "Movies Renamed", Path: "/new/path", Hidden: true, Type: "movies"}
	if err := cat.UpsertLibrary(ctx, &updated); err != nil {
		t.Fatalf("Failed to upsert library again: %v", err)
	}
	if updated.ID != lib.ID {
		t.Errorf("Expected same id after upsert, got %d and %d", lib.ID, updated.ID)
	}

	got, err := cat.LibraryBySlug(ctx, "movies")
	if err != nil {
		t.Fatalf("Failed to fetch library: %v", err)
	}
	if got.Name != "Movies Renamed" || got.Path != "/new/path" || !got.Hidden {
		t.Errorf("Library not updated: %+v", got)
	}
}

func TestDeleteLibrariesExcept(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	lib := addTestLibrary(t, cat, "keep", false)
	addTestLibrary(t, cat, "drop", false)
	addTestItem(t, cat, lib, "/media/keep/a.mp4", true)

	removed, err := cat.DeleteLibrariesExcept(ctx, []string{"keep"})
	if err != nil {
		t.Fatalf("Failed to delete libraries: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed library, got %d", removed)
	}

	if _, err := cat.LibraryBySlug(ctx, "drop"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for dropped library, got %v", err)
	}
	if _, err := cat.LibraryBySlug(ctx, "keep"); err != nil {
		t.Errorf("Expected kept library to remain, got %v", err)
	}
}

func TestLibraryCascadeDeletesItems(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	lib := addTestLibrary(t, cat, "movies", false)
	addTestItem(t, cat, lib, "/media/movies/a.mp4", true)

	if _, err := cat.DeleteLibrariesExcept(ctx, nil); err != nil {
		t.Fatalf("Failed to delete libraries: %v", err)
	}

	refs, err := cat.AllItemRefs(ctx)
	if err != nil {
		t.Fatalf("Failed to list item refs: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("Expected cascade to delete items, %d remain", len(refs))
	}
}

func TestHiddenLibraryFiltering(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	addTestLibrary(t, cat, "public", false)
	hidden := Library{Slug: "private", Name: "private", Path: "/media/private", Hidden: true, Type: "other"}
	if err := cat.UpsertLibrary(ctx, &hidden); err != nil {
		t.Fatalf("Failed to upsert hidden library: %v", err)
	}

	visible, err := cat.Libraries(ctx, false)
	if err != nil {
		t.Fatalf("Failed to list libraries: %v", err)
	}
	if len(visible) != 1 || visible[0].Slug != "public" {
		t.Errorf("Expected only public library, got %+v", visible)
	}

	all, err := cat.Libraries(ctx, true)
	if err != nil {
		t.Fatalf("Failed to list all libraries: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 libraries with hidden included, got %d", len(all))
	}
}

func TestFolderTree(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	lib := addTestLibrary(t, cat, "pics", false)

	root := Folder{LibraryID: lib.ID, Name: "2024", Path: "/media/pics/2024"}
	if err := cat.UpsertFolder(ctx, &root); err != nil {
		t.Fatalf("Failed to upsert root folder: %v", err)
	}

	child := Folder{LibraryID: lib.ID, ParentID: &root.ID, Name: "summer", Path: "/media/pics/2024/summer"}
	if err := cat.UpsertFolder(ctx, &child); err != nil {
		t.Fatalf("Failed to upsert child folder: %v", err)
	}

	roots, err := cat.ChildFolders(ctx, lib.ID, nil)
	if err != nil {
		t.Fatalf("Failed to list root folders: %v", err)
	}
	if len(roots) != 1 || roots[0].Path != root.Path || roots[0].ParentID != nil {
		t.Errorf("Unexpected root folders: %+v", roots)
	}

	children, err := cat.ChildFolders(ctx, lib.ID, &root.ID)
	if err != nil {
		t.Fatalf("Failed to list child folders: %v", err)
	}
	if len(children) != 1 || children[0].Name != "summer" {
		t.Errorf("Unexpected child folders: %+v", children)
	}
	if children[0].ParentID == nil || *children[0].ParentID != root.ID {
		t.Errorf("Expected child parent id %d, got %+v", root.ID, children[0].ParentID)
	}
}

func TestFolderUpsertIsStableByPath(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	lib := addTestLibrary(t, cat, "pics", false)

	f1 := Folder{LibraryID: lib.ID, Name: "a", Path: "/media/pics/a"}
	if err := cat.UpsertFolder(ctx, &f1); err != nil {
		t.Fatalf("Failed to upsert folder: %v", err)
	}

	f2 := Folder{LibraryID: lib.ID, Name: "a", Path: "/media/pics/a", Poster: "/media/pics/a/cover.jpg"}
	if err := cat.UpsertFolder(ctx, &f2); err != nil {
		t.Fatalf("Failed to re-upsert folder: %v", err)
	}
	if f2.ID != f1.ID {
		t.Errorf("Expected stable folder id, got %d then %d", f1.ID, f2.ID)
	}
}

func TestMediaItemRoundTrip(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	lib := addTestLibrary(t, cat, "movies", true)

	item := MediaItem{
		LibraryID: lib.ID,
		FilePath:  "/media/movies/The-Matrix_1999.mp4",
		Title:     "The Matrix",
		Ext:       "mp4",
		IsVideo:   true,
		Size:      4096,
		Year:      1999,
	}
	if err := cat.InsertMediaItem(ctx, &item); err != nil {
		t.Fatalf("Failed to insert item: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("Expected item id to be set")
	}

	got, err := cat.MediaItemByPath(ctx, item.FilePath)
	if err != nil {
		t.Fatalf("Failed to fetch item by path: %v", err)
	}
	if got.Title != "The Matrix" || got.Year != 1999 || !got.IsVideo || got.Size != 4096 {
		t.Errorf("Unexpected item: %+v", got)
	}
	if got.FolderID != nil {
		t.Errorf("Expected nil folder id, got %v", *got.FolderID)
	}

	if _, err := cat.MediaItemByPath(ctx, "/nope.mp4"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestItemsMissingPoster(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	synced := addTestLibrary(t, cat, "synced", true)
	unsynced := addTestLibrary(t, cat, "unsynced", false)

	wantID := addTestItem(t, cat, synced, "/media/synced/a.mp4", true).ID
	addTestItem(t, cat, synced, "/media/synced/pic.jpg", false)
	addTestItem(t, cat, unsynced, "/media/unsynced/b.mp4", true)

	done := addTestItem(t, cat, synced, "/media/synced/c.mp4", true)
	if err := cat.ApplyEnrichment(ctx, done.ID, Enrichment{Title: "C", Poster: "c.jpg"}); err != nil {
		t.Fatalf("Failed to apply enrichment: %v", err)
	}

	ids, err := cat.ItemsMissingPoster(ctx, synced.ID)
	if err != nil {
		t.Fatalf("Failed to list enrichment candidates: %v", err)
	}
	if len(ids) != 1 || ids[0] != wantID {
		t.Errorf("Expected only item %d, got %v", wantID, ids)
	}

	ids, err = cat.ItemsMissingPoster(ctx, unsynced.ID)
	if err != nil {
		t.Fatalf("Failed to list candidates for unsynced library: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected no candidates in unsynced library, got %v", ids)
	}
}

func TestApplyEnrichment(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	lib := addTestLibrary(t, cat, "movies", true)
	item := addTestItem(t, cat, lib, "/media/movies/matrix.mp4", true)

	collectionID, err := cat.GetOrCreateCollection(ctx, "coll-1", "The Matrix Collection")
	if err != nil {
		t.Fatalf("Failed to create collection: %v", err)
	}

	e := Enrichment{
		Title:        "The Matrix",
		Synopsis:     "A hacker discovers reality is simulated.",
		Genres:       []string{"Action", "Sci-Fi"},
		ProviderID:   "tt0133093",
		CollectionID: &collectionID,
		Poster:       "abc.jpg",
		Backdrop:     "def.jpg",
	}
	if err := cat.ApplyEnrichment(ctx, item.ID, e); err != nil {
		t.Fatalf("Failed to apply enrichment: %v", err)
	}

	got, err := cat.MediaItemByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("Failed to fetch enriched item: %v", err)
	}
	if got.Title != "The Matrix" || got.ProviderID != "tt0133093" || got.Poster != "abc.jpg" {
		t.Errorf("Enrichment not applied: %+v", got)
	}
	if len(got.Genres) != 2 || got.Genres[0] != "Action" || got.Genres[1] != "Sci-Fi" {
		t.Errorf("Unexpected genres: %v", got.Genres)
	}
	if got.CollectionID == nil || *got.CollectionID != collectionID {
		t.Errorf("Collection not linked: %+v", got.CollectionID)
	}
}

func TestGetOrCreateCollectionReusesRow(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	id1, err := cat.GetOrCreateCollection(ctx, "coll-1", "Series")
	if err != nil {
		t.Fatalf("Failed to create collection: %v", err)
	}
	id2, err := cat.GetOrCreateCollection(ctx, "coll-1", "Series")
	if err != nil {
		t.Fatalf("Failed to get collection: %v", err)
	}
	if id1 != id2 {
		t.Errorf("Expected same collection id, got %d and %d", id1, id2)
	}
}

func TestPlaybackProgressUpsert(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	lib := addTestLibrary(t, cat, "movies", false)
	item := addTestItem(t, cat, lib, "/media/movies/a.mp4", true)

	if _, err := cat.PlaybackProgressFor(ctx, item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound before save, got %v", err)
	}

	if err := cat.SavePlaybackProgress(ctx, item.ID, 12.5); err != nil {
		t.Fatalf("Failed to save progress: %v", err)
	}
	if err := cat.SavePlaybackProgress(ctx, item.ID, 42.0); err != nil {
		t.Fatalf("Failed to overwrite progress: %v", err)
	}

	got, err := cat.PlaybackProgressFor(ctx, item.ID)
	if err != nil {
		t.Fatalf("Failed to load progress: %v", err)
	}
	if got.Position != 42.0 {
		t.Errorf("Expected last write to win, got position %f", got.Position)
	}
}

func TestSubtitleOrdinalsAreSequential(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	lib := addTestLibrary(t, cat, "movies", false)
	item := addTestItem(t, cat, lib, "/media/movies/a.mp4", true)

	s1, err := cat.CreateSubtitleItem(ctx, item.ID, "EN", "/subs/EN-1.vtt")
	if err != nil {
		t.Fatalf("Failed to create first subtitle: %v", err)
	}
	s2, err := cat.CreateSubtitleItem(ctx, item.ID, "EN", "/subs/EN-2.vtt")
	if err != nil {
		t.Fatalf("Failed to create second subtitle: %v", err)
	}
	if s1.Ordinal != 1 || s2.Ordinal != 2 {
		t.Errorf("Expected ordinals 1 and 2, got %d and %d", s1.Ordinal, s2.Ordinal)
	}

	// A different language starts its own sequence.
	s3, err := cat.CreateSubtitleItem(ctx, item.ID, "DE", "/subs/DE-1.vtt")
	if err != nil {
		t.Fatalf("Failed to create subtitle in second language: %v", err)
	}
	if s3.Ordinal != 1 {
		t.Errorf("Expected DE sequence to start at 1, got %d", s3.Ordinal)
	}
}

func TestSubtitleOrdinalsUnderConcurrentWriters(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	lib := addTestLibrary(t, cat, "movies", false)
	item := addTestItem(t, cat, lib, "/media/movies/a.mp4", true)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cat.CreateSubtitleItem(ctx, item.ID, "EN", "/subs/x.vtt"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Concurrent subtitle create failed: %v", err)
	}

	subs, err := cat.SubtitlesForItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("Failed to list subtitles: %v", err)
	}
	if len(subs) != writers {
		t.Fatalf("Expected %d subtitles, got %d", writers, len(subs))
	}
	seen := make(map[int]bool)
	for _, s := range subs {
		if seen[s.Ordinal] {
			t.Fatalf("Duplicate ordinal %d", s.Ordinal)
		}
		seen[s.Ordinal] = true
	}
	for i := 1; i <= writers; i++ {
		if !seen[i] {
			t.Errorf("Missing ordinal %d", i)
		}
	}
}

func TestSearchFindsByTitle(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	lib := addTestLibrary(t, cat, "movies", false)

	matrix := MediaItem{LibraryID: lib.ID, FilePath: "/m/matrix.mp4", Title: "The Matrix", Ext: "mp4", IsVideo: true}
	if err := cat.InsertMediaItem(ctx, &matrix); err != nil {
		t.Fatalf("Failed to insert item: %v", err)
	}
	other := MediaItem{LibraryID: lib.ID, FilePath: "/m/other.mp4", Title: "Something Else", Ext: "mp4", IsVideo: true}
	if err := cat.InsertMediaItem(ctx, &other); err != nil {
		t.Fatalf("Failed to insert item: %v", err)
	}

	results, err := cat.Search(ctx, "matrix", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Title != "The Matrix" {
		t.Errorf("Unexpected search results: %+v", results)
	}
}

func TestCalculateStats(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	lib := addTestLibrary(t, cat, "movies", false)
	addTestItem(t, cat, lib, "/m/a.mp4", true)
	addTestItem(t, cat, lib, "/m/b.jpg", false)

	stats, err := cat.CalculateStats(ctx)
	if err != nil {
		t.Fatalf("Failed to calculate stats: %v", err)
	}
	if stats.TotalLibraries != 1 || stats.TotalItems != 2 || stats.TotalVideos != 1 || stats.TotalImages != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}
