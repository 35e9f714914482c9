// Package routeguard decides whether a page may render for the current
// session, from a static table of per-route access policies.
package routeguard

// Policy is the access rule and page metadata of one route pattern.
type Policy struct {
	Path          string `json:"path"`
	RequiresAuth  bool   `json:"requires_auth,omitempty"`
	RequiresGuest bool   `json:"requires_guest,omitempty"`
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	ShowInNav     bool   `json:"show_in_nav,omitempty"`
	NavLabel      string `json:"nav_label,omitempty"`
	Icon          string `json:"icon,omitempty"`
}

// Public reports whether the route is open to everyone.
func (p Policy) Public() bool {
	return !p.RequiresAuth && !p.RequiresGuest
}

const (
	HomePath  = "/"
	LoginPath = "/login"
)

// Fallback applies to any path no policy matches.
var Fallback = Policy{Path: "*", Title: "Page Not Found"}

var publicPolicies = []Policy{
	{Path: "/", Title: "EcoFinds - Sustainable Marketplace", Description: "Discover pre-loved items and contribute to a sustainable future", ShowInNav: true, NavLabel: "Browse", Icon: "home"},
	{Path: "/product/{id}", Title: "Product Details", Description: "View product information and details"},
	{Path: "/cart", Title: "Shopping Cart - EcoFinds", Description: "Review items in your cart", ShowInNav: true, NavLabel: "Cart", Icon: "shopping-cart"},
	{Path: "/profile", Title: "Profile - EcoFinds", Description: "View and manage your profile information", ShowInNav: true, NavLabel: "Profile", Icon: "user"},
	{Path: "/orders", Title: "Orders - EcoFinds", Description: "View your orders and purchase history", ShowInNav: true, NavLabel: "Orders", Icon: "package"},
	{Path: "/search", Title: "Search Results - EcoFinds", Description: "Search for sustainable and eco-friendly products"},
	{Path: "/categories", Title: "Browse Categories - EcoFinds", Description: "Browse all product categories", ShowInNav: true, NavLabel: "Categories", Icon: "grid"},
	{Path: "/category/{category}", Title: "Category Products - EcoFinds", Description: "Browse products by category"},
	{Path: "/category/electronics", Title: "Electronics - EcoFinds", Description: "Browse sustainable electronics products"},
	{Path: "/category/clothing", Title: "Clothing - EcoFinds", Description: "Browse sustainable clothing products"},
	{Path: "/category/home-and-garden", Title: "Home & Garden - EcoFinds", Description: "Browse sustainable home and garden products"},
	{Path: "/category/books", Title: "Books - EcoFinds", Description: "Browse sustainable books and stationery"},
	{Path: "/category/sports-and-recreation", Title: "Sports & Recreation - EcoFinds", Description: "Browse sustainable sports and recreation products"},
	{Path: "/category/art-and-crafts", Title: "Art & Crafts - EcoFinds", Description: "Browse sustainable art and craft supplies"},
}

var guestPolicies = []Policy{
	{Path: "/login", RequiresGuest: true, Title: "Login - EcoFinds", Description: "Sign in to your EcoFinds account"},
	{Path: "/register", RequiresGuest: true, Title: "Register - EcoFinds", Description: "Create your EcoFinds account"},
}

var protectedPolicies = []Policy{
	{Path: "/dashboard", RequiresAuth: true, Title: "Dashboard - EcoFinds", Description: "Manage your products and view your activity", ShowInNav: true, NavLabel: "Dashboard", Icon: "dashboard"},
	{Path: "/create-product", RequiresAuth: true, Title: "Create Product - EcoFinds", Description: "List a new product for sale"},
	{Path: "/edit-product/{id}", RequiresAuth: true, Title: "Edit Product - EcoFinds", Description: "Edit your product listing"},
	{Path: "/purchase-history", RequiresAuth: true, Title: "Purchase History - EcoFinds", Description: "View your past purchases", ShowInNav: true, NavLabel: "History", Icon: "history"},
}

// DefaultPolicies returns the EcoFinds route table: public pages, then
// guest-only pages, then pages behind sign-in.
func DefaultPolicies() []Policy {
	out := make([]Policy, 0, len(publicPolicies)+len(guestPolicies)+len(protectedPolicies))
	out = append(out, publicPolicies...)
	out = append(out, guestPolicies...)
	return append(out, protectedPolicies...)
}
