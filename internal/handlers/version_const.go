package handlers

// BackendVersion is the current version of the media backend.
const BackendVersion = "0.4.0"

// FrontendCompatibleVersion is the semver range of compatible homecam frontends.
const FrontendCompatibleVersion = "^0.4"
