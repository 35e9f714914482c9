package catalog

import (
	"slices"
	"time"

	"github.com/ecofinds/ecofinds-core/pkg/db/models"
	"github.com/ecofinds/ecofinds-core/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// demoNamespace derives stable ids for fixture rows so reseeding is
// idempotent.
var demoNamespace = uuid.MustParse("8f2c7b1e-5d4a-4e39-9c61-0a7e3b2d9f14")

type demoProduct struct {
	key         string
	title       string
	description string
	category    enums.ProductCategory
	price       string
	image       string
	seller      string
	created     string
}

var demoProducts = []demoProduct{
	{
		key:         "1",
		title:       "Bamboo Cutlery Set",
		description: "Eco-friendly portable bamboo cutlery set including fork, spoon, knife and chopsticks in a cotton pouch",
		category:    enums.ProductCategoryHomeGarden,
		price:       "19.99",
		image:       "https://images.pexels.com/photos/5702281/pexels-photo-5702281.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller123",
		created:     "2023-01-15T08:00:00Z",
	},
	{
		key:         "2",
		title:       "Solar Power Bank",
		description: "10000mAh portable solar charger with dual USB ports, perfect for outdoor activities",
		category:    enums.ProductCategoryElectronics,
		price:       "45.99",
		image:       "https://images.pexels.com/photos/6195132/pexels-photo-6195132.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller124",
		created:     "2023-02-20T10:30:00Z",
	},
	{
		key:         "3",
		title:       "Organic Cotton T-Shirt",
		description: "100% organic cotton unisex t-shirt, sustainably sourced and ethically manufactured",
		category:    enums.ProductCategoryClothing,
		price:       "29.99",
		image:       "https://images.pexels.com/photos/5698853/pexels-photo-5698853.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller125",
		created:     "2023-03-01T09:15:00Z",
	},
	{
		key:         "4",
		title:       "Recycled Paper Notebook",
		description: "A5 notebook made from 100% recycled paper with biodegradable cover",
		category:    enums.ProductCategoryBooks,
		price:       "12.99",
		image:       "https://images.pexels.com/photos/6192117/pexels-photo-6192117.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller126",
		created:     "2023-03-15T14:20:00Z",
	},
	{
		key:         "5",
		title:       "Reusable Produce Bags",
		description: "Set of 6 mesh produce bags made from recycled plastic bottles",
		category:    enums.ProductCategoryHomeGarden,
		price:       "15.99",
		image:       "https://images.pexels.com/photos/4614227/pexels-photo-4614227.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller127",
		created:     "2023-04-01T11:45:00Z",
	},
	{
		key:         "6",
		title:       "Recycled Glass Water Bottle",
		description: "Stylish 750ml water bottle made from recycled glass with silicone sleeve and bamboo lid",
		category:    enums.ProductCategoryHomeGarden,
		price:       "24.99",
		image:       "https://images.pexels.com/photos/1000084/pexels-photo-1000084.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller128",
		created:     "2023-04-10T13:20:00Z",
	},
	{
		key:         "7",
		title:       "Biodegradable Phone Case",
		description: "Eco-friendly smartphone case made from plant-based materials that fully biodegrades",
		category:    enums.ProductCategoryElectronics,
		price:       "19.99",
		image:       "https://images.pexels.com/photos/1294886/pexels-photo-1294886.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller129",
		created:     "2023-04-15T15:30:00Z",
	},
	{
		key:         "8",
		title:       "Hemp Backpack",
		description: "Durable, water-resistant backpack made from organic hemp with multiple compartments",
		category:    enums.ProductCategoryClothing,
		price:       "59.99",
		image:       "https://images.pexels.com/photos/1262692/pexels-photo-1262692.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller130",
		created:     "2023-04-20T09:45:00Z",
	},
	{
		key:         "9",
		title:       "Bamboo Toothbrush Set",
		description: "Set of 4 biodegradable bamboo toothbrushes with charcoal-infused bristles",
		category:    enums.ProductCategoryHomeGarden,
		price:       "12.95",
		image:       "https://images.pexels.com/photos/3737591/pexels-photo-3737591.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller131",
		created:     "2023-04-25T16:15:00Z",
	},
	{
		key:         "10",
		title:       "Solar Garden Lights",
		description: "Pack of 6 solar-powered LED garden lights with auto on/off dusk sensors",
		category:    enums.ProductCategoryHomeGarden,
		price:       "32.50",
		image:       "https://images.pexels.com/photos/1108701/pexels-photo-1108701.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller132",
		created:     "2023-05-01T10:30:00Z",
	},
	{
		key:         "11",
		title:       "Recycled Plastic Outdoor Rug",
		description: "Durable 5'x7' outdoor rug made from 100% recycled plastic bottles, reversible design",
		category:    enums.ProductCategoryHomeGarden,
		price:       "79.99",
		image:       "https://images.pexels.com/photos/6444247/pexels-photo-6444247.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller133",
		created:     "2023-05-05T14:20:00Z",
	},
	{
		key:         "12",
		title:       "Organic Cotton Bedding Set",
		description: "Queen size 100% GOTS-certified organic cotton bedding set with duvet cover and 4 pillowcases",
		category:    enums.ProductCategoryHomeGarden,
		price:       "119.99",
		image:       "https://images.pexels.com/photos/1248583/pexels-photo-1248583.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller134",
		created:     "2023-05-10T11:10:00Z",
	},
	{
		key:         "13",
		title:       "Recycled Skateboard",
		description: "Skateboard made from reclaimed wood and recycled aluminum trucks with bamboo wheels",
		category:    enums.ProductCategorySports,
		price:       "89.99",
		image:       "https://images.pexels.com/photos/769525/pexels-photo-769525.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller135",
		created:     "2023-05-15T08:45:00Z",
	},
	{
		key:         "14",
		title:       "Eco-Friendly Yoga Mat",
		description: "Non-toxic, biodegradable yoga mat made from natural rubber and organic cotton",
		category:    enums.ProductCategorySports,
		price:       "49.99",
		image:       "https://images.pexels.com/photos/4498577/pexels-photo-4498577.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller136",
		created:     "2023-05-20T15:30:00Z",
	},
	{
		key:         "15",
		title:       "Reusable Silicone Food Wraps",
		description: "Set of 5 different sized silicone food wraps, an eco-friendly alternative to plastic wrap",
		category:    enums.ProductCategoryHomeGarden,
		price:       "18.99",
		image:       "https://images.pexels.com/photos/5202104/pexels-photo-5202104.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller137",
		created:     "2023-05-25T09:15:00Z",
	},
	{
		key:         "16",
		title:       "Upcycled Denim Tote Bag",
		description: "Handmade tote bag created from repurposed denim jeans, durable and one-of-a-kind",
		category:    enums.ProductCategoryClothing,
		price:       "34.99",
		image:       "https://images.pexels.com/photos/5714549/pexels-photo-5714549.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller138",
		created:     "2023-06-01T12:45:00Z",
	},
	{
		key:         "17",
		title:       "Recycled Metal Wall Art",
		description: "Unique wall art sculpture handcrafted from recycled metal scraps and salvaged parts",
		category:    enums.ProductCategoryArtCrafts,
		price:       "129.99",
		image:       "https://images.pexels.com/photos/139764/pexels-photo-139764.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller139",
		created:     "2023-06-05T14:20:00Z",
	},
	{
		key:         "18",
		title:       "Compostable Phone Charger",
		description: "USB-C fast charger made from biodegradable materials with braided hemp cable",
		category:    enums.ProductCategoryElectronics,
		price:       "28.99",
		image:       "https://images.pexels.com/photos/4526481/pexels-photo-4526481.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller140",
		created:     "2023-06-10T10:35:00Z",
	},
	{
		key:         "19",
		title:       "Plantable Pencils",
		description: "Set of 12 pencils with seed capsules that can be planted after use to grow herbs or flowers",
		category:    enums.ProductCategoryArtCrafts,
		price:       "14.99",
		image:       "https://images.pexels.com/photos/3833518/pexels-photo-3833518.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller141",
		created:     "2023-06-15T11:25:00Z",
	},
	{
		key:         "20",
		title:       "Reclaimed Wood Coffee Table",
		description: "Modern coffee table handcrafted from reclaimed barn wood with steel hairpin legs",
		category:    enums.ProductCategoryHomeGarden,
		price:       "249.99",
		image:       "https://images.pexels.com/photos/1866149/pexels-photo-1866149.jpeg?auto=compress&cs=tinysrgb&w=600",
		seller:      "seller142",
		created:     "2023-06-20T13:40:00Z",
	},
}

// DemoSellerID returns the fixture profile id for a demo seller handle such
// as "seller123".
func DemoSellerID(handle string) uuid.UUID {
	return uuid.NewSHA1(demoNamespace, []byte("seller:"+handle))
}

// DemoProductID returns the fixture id of the demo product with key.
func DemoProductID(key string) uuid.UUID {
	return uuid.NewSHA1(demoNamespace, []byte("product:"+key))
}

// DemoSellers returns one profile per demo seller handle.
func DemoSellers() []models.Profile {
	out := make([]models.Profile, 0, len(demoProducts))
	for _, d := range demoProducts {
		created := mustTime(d.created)
		out = append(out, models.Profile{
			ID:        DemoSellerID(d.seller),
			Email:     d.seller + "@example.com",
			Username:  d.seller,
			CreatedAt: created,
			UpdatedAt: created,
		})
	}
	return out
}

// DemoProducts returns the demo catalog, newest first, with sellers joined.
func DemoProducts() []models.Product {
	sellers := make(map[uuid.UUID]models.Profile)
	for _, s := range DemoSellers() {
		sellers[s.ID] = s
	}

	out := make([]models.Product, 0, len(demoProducts))
	for _, d := range demoProducts {
		created := mustTime(d.created)
		seller := sellers[DemoSellerID(d.seller)]
		out = append(out, models.Product{
			ID:          DemoProductID(d.key),
			Title:       d.title,
			Description: d.description,
			Category:    d.category,
			Price:       decimal.RequireFromString(d.price),
			ImageURL:    d.image,
			SellerID:    seller.ID,
			Seller:      &seller,
			CreatedAt:   created,
			UpdatedAt:   created,
		})
	}
	slices.Reverse(out)
	return out
}

func mustTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		panic(err)
	}
	return t
}
