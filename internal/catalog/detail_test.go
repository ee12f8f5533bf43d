package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-discovery-catalog-service/internal/models"
	"movie-discovery-catalog-service/internal/youtube"
)

type fakeDetailSource struct {
	gates     map[int]chan struct{}
	recordErr error
	videosErr error
	assets    []models.MediaAsset
	cast      []models.CastMember
}

func (f *fakeDetailSource) wait(key models.ItemKey) {
	if g, ok := f.gates[key.ID]; ok {
		<-g
	}
}

func (f *fakeDetailSource) Record(_ *Token, key models.ItemKey, _ ContentPolicy) (*models.DetailRecord, error) {
	f.wait(key)
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	return &models.DetailRecord{CatalogItem: models.CatalogItem{ID: key.ID, MediaType: key.MediaType, Title: key.String()}}, nil
}

func (f *fakeDetailSource) Videos(_ *Token, key models.ItemKey, _ ContentPolicy) ([]models.MediaAsset, error) {
	f.wait(key)
	return f.assets, f.videosErr
}

func (f *fakeDetailSource) Credits(_ *Token, key models.ItemKey, _ ContentPolicy) ([]models.CastMember, error) {
	f.wait(key)
	return f.cast, nil
}

func TestComposeBuildsBundleIncrementally(t *testing.T) {
	var cast []models.CastMember
	for i := 0; i < 20; i++ {
		cast = append(cast, models.CastMember{ID: i, Order: i})
	}
	source := &fakeDetailSource{
		assets: []models.MediaAsset{
			{Key: "t1", Site: "YouTube", Type: "Trailer"},
			{Key: "c1", Site: "YouTube", Type: "Clip"},
			{Key: "v1", Site: "Vimeo", Type: "Trailer"},
		},
		cast: cast,
	}

	var (
		mu        sync.Mutex
		snapshots []models.DetailBundle
	)
	key := models.ItemKey{MediaType: models.MediaMovie, ID: 1}
	bundle, err := NewDetailComposer(source, nil, 12, 15).Compose(Detached(context.Background()), key, ContentPolicy{}, func(b models.DetailBundle) {
		mu.Lock()
		snapshots = append(snapshots, b)
		mu.Unlock()
	})
	require.NoError(t, err)
	require.NotNil(t, bundle.Record)
	assert.True(t, bundle.Complete())
	assert.Equal(t, []models.MediaAsset{{Key: "t1", Site: "YouTube", Type: "Trailer"}}, bundle.Trailers)
	assert.Len(t, bundle.Cast, 12)

	require.Len(t, snapshots, 3)
	assert.Len(t, snapshots[0].Pending, 2)
	assert.Len(t, snapshots[1].Pending, 1)
	assert.True(t, snapshots[2].Complete())
}

func TestComposeRecordFailureIsNotFound(t *testing.T) {
	source := &fakeDetailSource{recordErr: &SourceUnavailableError{Endpoint: "/movie/9", Err: errors.New("404")}}
	_, err := NewDetailComposer(source, nil, 12, 15).Compose(Detached(context.Background()), models.ItemKey{MediaType: models.MediaMovie, ID: 9}, ContentPolicy{}, nil)
	require.ErrorIs(t, err, ErrDetailNotFound)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestComposeAbsorbsAssetFailure(t *testing.T) {
	source := &fakeDetailSource{videosErr: errors.New("down")}
	bundle, err := NewDetailComposer(source, nil, 12, 15).Compose(Detached(context.Background()), models.ItemKey{MediaType: models.MediaTV, ID: 3}, ContentPolicy{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, bundle.Trailers)
	assert.Empty(t, bundle.Trailers)
	assert.True(t, bundle.Complete())
}

func TestComposeNeverShowsSupersededEntity(t *testing.T) {
	reg := NewRegistry()
	keyA := models.ItemKey{MediaType: models.MediaMovie, ID: 1}
	keyB := models.ItemKey{MediaType: models.MediaMovie, ID: 2}
	gateA := make(chan struct{})
	composer := NewDetailComposer(&fakeDetailSource{gates: map[int]chan struct{}{1: gateA}}, nil, 12, 15)

	publishTo := func(tok *Token) func(models.DetailBundle) {
		return func(b models.DetailBundle) {
			tok.Publish(func(any) any { return b })
		}
	}

	tokA := reg.Begin(context.Background(), "u1", SurfaceDetail, keyA.String())
	doneA := make(chan error, 1)
	go func() {
		_, err := composer.Compose(tokA, keyA, ContentPolicy{}, publishTo(tokA))
		doneA <- err
	}()

	tokB := reg.Begin(context.Background(), "u1", SurfaceDetail, keyB.String())
	bundleB, err := composer.Compose(tokB, keyB, ContentPolicy{}, publishTo(tokB))
	require.NoError(t, err)
	assert.Equal(t, keyB, bundleB.Key)

	close(gateA)
	require.ErrorIs(t, <-doneA, ErrCancelled)

	visible, ok := reg.Visible("u1", SurfaceDetail)
	require.True(t, ok)
	assert.Equal(t, keyB, visible.(models.DetailBundle).Key)
	assert.True(t, visible.(models.DetailBundle).Complete())
}

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	results map[string][]models.Video
	fail    map[string]bool
	onCall  func(query string)
}

func (f *fakeSearcher) Search(_ context.Context, query string, opts youtube.SearchOptions) ([]models.Video, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.onCall != nil {
		f.onCall(query)
	}
	if opts.MaxResults != 5 || opts.VideoDuration != "long" || opts.Order != "relevance" {
		return nil, errors.New("unexpected options")
	}
	if f.fail[query] {
		return nil, errors.New("quota")
	}
	return f.results[query], nil
}

func videos(prefix string, n int) []models.Video {
	out := make([]models.Video, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Video{ID: prefix + string(rune('a'+i))})
	}
	return out
}

func TestPlayableQueries(t *testing.T) {
	assert.Equal(t, []string{
		"Heat 1995 full movie",
		"Heat full movie",
		"Heat 1995 free movie",
		"Heat free movie",
	}, PlayableQueries("Heat", 1995))
	assert.Equal(t, []string{"Heat full movie", "Heat free movie"}, PlayableQueries(" Heat ", 0))
}

func TestFetchPlayableSourcesDedupesAndCaps(t *testing.T) {
	s := &fakeSearcher{
		results: map[string][]models.Video{
			"Heat 1995 full movie": videos("x", 5),
			"Heat full movie":      append(videos("x", 2), videos("y", 3)...),
			"Heat 1995 free movie": videos("z", 5),
			"Heat free movie":      videos("w", 5),
		},
		fail: map[string]bool{},
	}
	out, err := NewDetailComposer(&fakeDetailSource{}, s, 12, 15).FetchPlayableSources(Detached(context.Background()), "Heat", 1995)
	require.NoError(t, err)
	require.Len(t, out, 15)
	assert.Equal(t, "xa", out[0].ID)
	assert.Equal(t, "ya", out[5].ID)
	assert.Equal(t, "wb", out[14].ID)

	seen := map[string]bool{}
	for _, v := range out {
		assert.False(t, seen[v.ID])
		seen[v.ID] = true
	}
}

func TestFetchPlayableSourcesSkipsFailedVariant(t *testing.T) {
	s := &fakeSearcher{
		results: map[string][]models.Video{"Heat free movie": videos("w", 2)},
		fail:    map[string]bool{"Heat full movie": true},
	}
	out, err := NewDetailComposer(&fakeDetailSource{}, s, 12, 15).FetchPlayableSources(Detached(context.Background()), "Heat", 0)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, []string{"Heat full movie", "Heat free movie"}, s.queries)
}

func TestFetchPlayableSourcesCancelled(t *testing.T) {
	tok := Detached(context.Background())
	s := &fakeSearcher{
		results: map[string][]models.Video{},
		fail:    map[string]bool{},
		onCall: func(q string) {
			if strings.HasPrefix(q, "Heat full") {
				tok.Cancel()
			}
		},
	}
	out, err := NewDetailComposer(&fakeDetailSource{}, s, 12, 15).FetchPlayableSources(tok, "Heat", 1995)
	require.ErrorIs(t, err, ErrCancelled)
	assert.Nil(t, out)
	assert.Len(t, s.queries, 2)
}
