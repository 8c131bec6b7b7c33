package constants

// Static route constants
const (
	PublicImageRoute = "/r"
	APIRoute         = "/api"
	// Image path prefix without leading slash for URL construction
	PublicImagePath = "r"
)
