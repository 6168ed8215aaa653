package ports

import "go.trai.ch/kiln/internal/core/domain"

// PlatformDetector describes the machine kiln runs on.
//
//go:generate go run go.uber.org/mock/mockgen -source=platform.go -destination=mocks/mock_platform.go -package=mocks
type PlatformDetector interface {
	// Detect returns the host platform, using buildType as the build variant.
	Detect(buildType domain.BuildType) domain.PlatformContext
}
