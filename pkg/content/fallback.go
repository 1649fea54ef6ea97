package content

import (
	"slices"

	"ocakbasi/pkg/domain"
	"ocakbasi/pkg/video"
)

// Built-in content served whenever live data is unavailable or empty.
var (
	fallbackHeroSlides = []domain.HeroSlide{
		{ID: "default", Image: "/images/hero/ocakbasi-grill.jpg", Alt: "Ocakbaşı közde pişen kebaplar", Order: 0},
	}

	fallbackMenu = []domain.MenuCategory{
		{
			ID:    "kebaplar",
			Title: "Kebaplar",
			Icon:  "flame",
			Items: []domain.MenuItem{
				{ID: "adana", CategoryID: "kebaplar", Name: "Adana Kebap", Price: "450.00", Description: "Zırh kıyması, közlenmiş domates ve biber ile", Image: "/images/menu/adana.jpg"},
				{ID: "urfa", CategoryID: "kebaplar", Name: "Urfa Kebap", Price: "450.00", Description: "Acısız zırh kıyması, lavaş üzerinde", Image: "/images/menu/urfa.jpg"},
				{ID: "beyti", CategoryID: "kebaplar", Name: "Beyti Sarma", Price: "520.00", Description: "Lavaşa sarılı kebap, yoğurt ve tereyağlı sos", Image: "/images/menu/beyti.jpg"},
			},
		},
	}

	fallbackGallery = []domain.GalleryItem{
		{ID: "guest-1", Category: domain.GalleryGuest, Image: "/images/gallery/guest-1.jpg", Alt: "Misafirlerimiz ocak başında", Order: 0},
		{ID: "signature-1", Category: domain.GallerySignature, Image: "/images/gallery/signature-1.jpg", Alt: "Şefin imza tabağı", Order: 1},
	}

	fallbackAwards = []domain.Award{
		{ID: "award-1", Title: "Yılın Ocakbaşı Restoranı", Year: "2024", Image: "/images/awards/award-1.png", Description: "İstanbul lezzet rehberi seçimi", Order: 0},
	}

	fallbackPress = []domain.PressItem{
		{ID: "press-1", Name: "Gastro Dergisi", Link: "https://example.com/gastro/ocakbasi", Quote: "Şehrin en iyi közü burada yanıyor.", Color: "#b45309", Date: "2024-03-01"},
	}

	fallbackPositions = []domain.JobPosition{
		{
			ID:           "ocakbasi-ustasi",
			Title:        "Ocakbaşı Ustası",
			Department:   "Mutfak",
			Location:     "İstanbul",
			Type:         "Tam Zamanlı",
			Description:  "Közde kebap ve ızgara hazırlığından sorumlu usta arıyoruz.",
			Requirements: []string{"En az 3 yıl ocakbaşı deneyimi", "Hijyen eğitimi sertifikası"},
		},
	}
)

func fallbackHero() []domain.HeroSlide { return slices.Clone(fallbackHeroSlides) }

func fallbackMenuCategories() []domain.MenuCategory {
	out := make([]domain.MenuCategory, len(fallbackMenu))
	for i, c := range fallbackMenu {
		c.Items = slices.Clone(c.Items)
		out[i] = c
	}
	return out
}

func fallbackGalleryItems() []domain.GalleryItem { return slices.Clone(fallbackGallery) }

func fallbackAwardList() []domain.Award { return slices.Clone(fallbackAwards) }

func fallbackPressItems() []domain.PressItem { return slices.Clone(fallbackPress) }

func fallbackJobPositions() []domain.JobPosition {
	out := slices.Clone(fallbackPositions)
	for i := range out {
		out[i].Requirements = slices.Clone(out[i].Requirements)
	}
	return out
}

func fallbackVideos() domain.VideoSet { return video.Fallback() }
