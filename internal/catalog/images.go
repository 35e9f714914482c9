package catalog

import (
	"net/url"
	"path"
	"strings"

	"github.com/ecofinds/ecofinds-core/pkg/enums"
)

var stockImages = map[enums.ProductCategory]string{
	enums.ProductCategoryElectronics: "https://images.pexels.com/photos/356056/pexels-photo-356056.jpeg?auto=compress&cs=tinysrgb&w=400",
	enums.ProductCategoryClothing:    "https://images.pexels.com/photos/996329/pexels-photo-996329.jpeg?auto=compress&cs=tinysrgb&w=400",
	enums.ProductCategoryHomeGarden:  "https://images.pexels.com/photos/1099816/pexels-photo-1099816.jpeg?auto=compress&cs=tinysrgb&w=400",
	enums.ProductCategoryBooks:       "https://images.pexels.com/photos/159866/books-book-pages-read-literature-159866.jpeg?auto=compress&cs=tinysrgb&w=400",
	enums.ProductCategorySports:      "https://images.pexels.com/photos/863988/pexels-photo-863988.jpeg?auto=compress&cs=tinysrgb&w=400",
	enums.ProductCategoryToys:        "https://images.pexels.com/photos/163064/play-stone-network-networked-interactive-163064.jpeg?auto=compress&cs=tinysrgb&w=400",
	enums.ProductCategoryAutomotive:  "https://images.pexels.com/photos/210019/pexels-photo-210019.jpeg?auto=compress&cs=tinysrgb&w=400",
	enums.ProductCategoryArtCrafts:   "https://images.pexels.com/photos/1047540/pexels-photo-1047540.jpeg?auto=compress&cs=tinysrgb&w=400",
	enums.ProductCategoryMusic:       "https://images.pexels.com/photos/164743/pexels-photo-164743.jpeg?auto=compress&cs=tinysrgb&w=400",
	enums.ProductCategoryOther:       "https://images.pexels.com/photos/3621104/pexels-photo-3621104.jpeg?auto=compress&cs=tinysrgb&w=400",
}

// StockImage returns the placeholder image for category.
func StockImage(category enums.ProductCategory) string {
	if img, ok := stockImages[category]; ok {
		return img
	}
	return stockImages[enums.ProductCategoryOther]
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// IsImageURL reports whether raw is an http(s) URL whose path ends in a
// known image extension. Query strings are ignored.
func IsImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}
