package domain

// StagedArtifact records a single copy performed by the artifact stager.
type StagedArtifact struct {
	Package InternedString
	Source  string
	Dest    string
	// Digest is the xxhash of the copied bytes, hex encoded.
	Digest string
}

// StagingReport lists the copies performed by one staging pass, in plan order.
type StagingReport struct {
	OutputDir string
	Artifacts []StagedArtifact
}

// Len returns the number of staged artifacts.
func (r *StagingReport) Len() int {
	return len(r.Artifacts)
}
