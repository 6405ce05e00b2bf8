//go:build !amd64

package block

// hasAVX2 is always false off amd64; DefaultWidth falls back to the
// narrower block width on these platforms.
var hasAVX2 = false
