// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxFormSize is the maximum size for urlencoded form submissions
	// (sign-in, sign-up, profile, account).
	MaxFormSize = 64 << 10 // 64 KB

	// MaxProductFormSize is the maximum size for the rich-text product
	// description form.
	MaxProductFormSize = 1 << 20 // 1 MB

	// MaxMultipartMemory is how much of a multipart upload is held in memory
	// before spilling to temp files.
	MaxMultipartMemory = 8 << 20 // 8 MB

	// ShortDescriptionMax is the longest short description the directory
	// cards show.
	ShortDescriptionMax = 150

	// PasswordMin is the shortest password accepted at sign-up and on the
	// account page.
	PasswordMin = 8
)
