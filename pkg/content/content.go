// Package content provides the read side of the public site. Each entity is
// read through the shared query cache and degrades to a built-in fallback when
// the store is not configured, unreachable, or returns nothing.
package content

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ocakbasi/pkg/domain"
	"ocakbasi/pkg/querycache"
	"ocakbasi/pkg/store"
	"ocakbasi/pkg/video"
)

// ContentStaleTime is the staleness window for the slowly changing entities.
const ContentStaleTime = 5 * time.Minute

// Cache keys, one per entity.
const (
	KeyHeroSlides = "hero_slides"
	KeyMenu       = "menu"
	KeyGallery    = "gallery_items"
	KeyAwards     = "awards"
	KeyPress      = "press_items"
	KeyPositions  = "job_positions"
	KeyVideos     = "videos"
)

// ErrEmpty reports a successful read that returned no rows.
var ErrEmpty = errors.New("no rows")

// Result is what the presentation layer consumes. Read failures are masked by
// fallback data, so Cause is diagnostic only and never rendered.
type Result[T any] struct {
	Data     T     `json:"data"`
	Loading  bool  `json:"loading"`
	Fallback bool  `json:"fallback"`
	Cause    error `json:"-"`
}

// Service exposes one read per content entity.
type Service struct {
	store  store.ContentStore
	cache  *querycache.Client
	logger *slog.Logger

	hero      func(context.Context) Result[[]domain.HeroSlide]
	menu      func(context.Context) Result[[]domain.MenuCategory]
	gallery   func(context.Context) Result[[]domain.GalleryItem]
	awards    func(context.Context) Result[[]domain.Award]
	press     func(context.Context) Result[[]domain.PressItem]
	positions func(context.Context) Result[[]domain.JobPosition]
	videos    func(context.Context) Result[domain.VideoSet]
}

// Config wires the service. A nil Store means the store is not configured.
type Config struct {
	Store  store.ContentStore
	Cache  *querycache.Client
	Logger *slog.Logger
}

// New constructs the service.
func New(cfg Config) *Service {
	s := &Service{
		store:  cfg.Store,
		cache:  cfg.Cache,
		logger: cfg.Logger,
	}
	if s.cache == nil {
		s.cache = querycache.NewDefault(nil)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.hero = withFallback(s, source[[]domain.HeroSlide]{
		key:      KeyHeroSlides,
		stale:    ContentStaleTime,
		fetch:    func(ctx context.Context, st store.ContentStore) ([]domain.HeroSlide, error) { return st.ListHeroSlides(ctx) },
		empty:    func(v []domain.HeroSlide) bool { return len(v) == 0 },
		fallback: fallbackHero,
	})
	s.menu = withFallback(s, source[[]domain.MenuCategory]{
		key:      KeyMenu,
		stale:    ContentStaleTime,
		fetch:    fetchMenu,
		empty:    func(v []domain.MenuCategory) bool { return len(v) == 0 },
		fallback: fallbackMenuCategories,
	})
	s.gallery = withFallback(s, source[[]domain.GalleryItem]{
		key:      KeyGallery,
		stale:    ContentStaleTime,
		fetch:    func(ctx context.Context, st store.ContentStore) ([]domain.GalleryItem, error) { return st.ListGalleryItems(ctx) },
		empty:    func(v []domain.GalleryItem) bool { return len(v) == 0 },
		fallback: fallbackGalleryItems,
	})
	s.awards = withFallback(s, source[[]domain.Award]{
		key:      KeyAwards,
		stale:    ContentStaleTime,
		fetch:    func(ctx context.Context, st store.ContentStore) ([]domain.Award, error) { return st.ListAwards(ctx) },
		empty:    func(v []domain.Award) bool { return len(v) == 0 },
		fallback: fallbackAwardList,
	})
	s.press = withFallback(s, source[[]domain.PressItem]{
		key:      KeyPress,
		stale:    ContentStaleTime,
		fetch:    func(ctx context.Context, st store.ContentStore) ([]domain.PressItem, error) { return st.ListPressItems(ctx) },
		empty:    func(v []domain.PressItem) bool { return len(v) == 0 },
		fallback: fallbackPressItems,
	})
	s.positions = withFallback(s, source[[]domain.JobPosition]{
		key:      KeyPositions,
		stale:    ContentStaleTime,
		fetch:    func(ctx context.Context, st store.ContentStore) ([]domain.JobPosition, error) { return st.ListJobPositions(ctx) },
		empty:    func(v []domain.JobPosition) bool { return len(v) == 0 },
		fallback: fallbackJobPositions,
	})
	s.videos = withFallback(s, source[domain.VideoSet]{
		key: KeyVideos,
		fetch: func(ctx context.Context, st store.ContentStore) (domain.VideoSet, error) {
			rows, err := st.ListVideos(ctx)
			if err != nil {
				return domain.VideoSet{}, err
			}
			if len(rows) == 0 {
				return domain.VideoSet{}, nil
			}
			return video.Resolve(rows), nil
		},
		empty:    func(v domain.VideoSet) bool { return v == domain.VideoSet{} },
		fallback: fallbackVideos,
	})
	return s
}

func (s *Service) HeroSlides(ctx context.Context) Result[[]domain.HeroSlide] { return s.hero(ctx) }

// Menu returns active categories with their active items joined in.
func (s *Service) Menu(ctx context.Context) Result[[]domain.MenuCategory] { return s.menu(ctx) }

func (s *Service) Gallery(ctx context.Context) Result[[]domain.GalleryItem] { return s.gallery(ctx) }

func (s *Service) Awards(ctx context.Context) Result[[]domain.Award] { return s.awards(ctx) }

func (s *Service) Press(ctx context.Context) Result[[]domain.PressItem] { return s.press(ctx) }

func (s *Service) Positions(ctx context.Context) Result[[]domain.JobPosition] { return s.positions(ctx) }

// Videos returns embeddable URLs for the background and modal roles.
func (s *Service) Videos(ctx context.Context) Result[domain.VideoSet] { return s.videos(ctx) }

// Refresh drops all cached entities so the next reads hit the store.
func (s *Service) Refresh() {
	s.cache.InvalidateAll()
}

type source[T any] struct {
	key      string
	stale    time.Duration
	fetch    func(context.Context, store.ContentStore) (T, error)
	empty    func(T) bool
	fallback func() T
}

// withFallback builds the read for one entity: no store means the fallback
// without any call; an error or an empty result also means the fallback.
func withFallback[T any](s *Service, src source[T]) func(context.Context) Result[T] {
	return func(ctx context.Context) Result[T] {
		if s.store == nil {
			return Result[T]{Data: src.fallback(), Fallback: true}
		}
		v, err := s.cache.Query(ctx, src.key, src.stale, func(ctx context.Context) (any, error) {
			data, err := src.fetch(ctx, s.store)
			if err != nil {
				return nil, err
			}
			if src.empty(data) {
				return nil, querycache.Permanent(ErrEmpty)
			}
			return data, nil
		})
		if err != nil {
			if errors.Is(err, ErrEmpty) {
				s.logger.Debug("content empty, serving fallback", "key", src.key)
			} else {
				s.logger.Warn("content read failed, serving fallback", "key", src.key, "err", err)
			}
			return Result[T]{Data: src.fallback(), Fallback: true, Cause: err}
		}
		return Result[T]{Data: v.(T)}
	}
}

func fetchMenu(ctx context.Context, st store.ContentStore) ([]domain.MenuCategory, error) {
	categories, err := st.ListMenuCategories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, nil
	}
	items, err := st.ListMenuItems(ctx)
	if err != nil {
		return nil, err
	}
	return joinMenu(categories, items), nil
}

// joinMenu nests items under their category; items pointing at unknown
// categories are dropped.
func joinMenu(categories []domain.MenuCategory, items []domain.MenuItem) []domain.MenuCategory {
	index := make(map[string]int, len(categories))
	out := make([]domain.MenuCategory, len(categories))
	for i, c := range categories {
		c.Items = []domain.MenuItem{}
		out[i] = c
		index[c.ID] = i
	}
	for _, item := range items {
		if i, ok := index[item.CategoryID]; ok {
			out[i].Items = append(out[i].Items, item)
		}
	}
	return out
}
