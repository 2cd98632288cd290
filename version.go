package hypernote

// Version is the library version, overridable at build time via
// -ldflags "-X github.com/futurepaul/hypernote-pages.Version=...".
var Version = "0.1.0"
